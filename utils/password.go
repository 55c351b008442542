package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the salt rounds the platform has always used.
const bcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt. The returned
// string embeds the salt and cost, so it can be stored as-is.
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", fmt.Errorf("password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches the stored hash.
// bcrypt's comparison is constant-time.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
