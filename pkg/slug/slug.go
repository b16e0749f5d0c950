// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases the name and collapses every run of characters
// outside [a-z0-9] into a single hyphen, so "Wireless Mouse (v2)"
// becomes "wireless-mouse-v2". The result never starts or ends with
// a hyphen and may be empty for names with no usable characters.
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
