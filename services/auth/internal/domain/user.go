package domain

import (
	"time"

	"github.com/BigRedEye/dc-hw/pkg/role"
)

// User represents a registered account. Email and Phone stay NULL until
// the matching confirmation is redeemed, so an unconfirmed account is
// unreachable by login.
type User struct {
	ID           string    `json:"id"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         role.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Confirmed reports whether at least one login channel has been confirmed.
func (u *User) Confirmed() bool {
	return u.Email != nil || u.Phone != nil
}

// Session is a server-side record of one issued token pair. Tokens are
// opaque random strings; revoking the session invalidates both instantly.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session has reached its absolute
// deadline. The deadline instant itself is already expired.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Confirmation is a single-use token a registration hands to the user
// out of band. Redeeming it moves the pending login onto the user row.
type Confirmation struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
