package role

import (
	"encoding/json"
	"fmt"
)

// Role is an ordered privilege level. Higher values include the
// privileges of lower ones.
type Role int

const (
	User  Role = 0
	Admin Role = 1
)

var names = map[Role]string{
	User:  "user",
	Admin: "admin",
}

// Parse converts a role name to a Role.
func Parse(s string) (Role, error) {
	for r, name := range names {
		if name == s {
			return r, nil
		}
	}
	return User, fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

// AtLeast reports whether r grants the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func (r Role) String() string {
	if name, ok := names[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	name, ok := names[r]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown role %d", int(r))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a role from its name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
