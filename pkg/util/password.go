package util

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// IsPasswordHash reports whether s is a well-formed bcrypt hash.
func IsPasswordHash(s string) bool {
	if s == "" {
		return false
	}
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
