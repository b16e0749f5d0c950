// Package token generates opaque session tokens.
package token

import (
	"crypto/rand"
	"fmt"
)

const (
	// Length is the number of characters in a generated token.
	Length = 32

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxUnbiased is the largest multiple of len(alphabet) that fits in
	// a byte. Bytes at or above it are rejected so every alphabet
	// character is equally likely.
	maxUnbiased = 256 - 256%len(alphabet)
)

// New returns a random alphanumeric token of Length characters.
// Tokens carry no embedded claims; they are only meaningful as
// lookup keys against the session store.
func New() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}
