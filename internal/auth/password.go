// Package auth handles admin password hashing.
package auth

import (
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a password with argon2id using library defaults.
func HashPassword(password string) (string, error) {
	cfg := argon2.DefaultConfig()
	raw, err := cfg.Hash([]byte(password), nil)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(raw.Encode()), nil
}

// VerifyPassword reports whether password matches the encoded hash. A
// malformed hash verifies as false rather than erroring; login code treats
// both the same way.
func VerifyPassword(hash, password string) bool {
	raw, err := argon2.Decode([]byte(hash))
	if err != nil {
		return false
	}
	ok, err := raw.Verify([]byte(password))
	if err != nil {
		return false
	}
	return ok
}
