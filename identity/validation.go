package identity

import (
	"fmt"
	"strings"
)

// ValidateUsername checks registration usernames: 3-50 characters,
// letters, digits, hyphens and underscores only.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("username must be between 3 and 50 characters long")
	}
	for _, char := range username {
		switch {
		case char >= 'a' && char <= 'z':
		case char >= 'A' && char <= 'Z':
		case char >= '0' && char <= '9':
		case char == '-' || char == '_':
		default:
			return fmt.Errorf("username may only contain letters, digits, hyphens, and underscores")
		}
	}
	return nil
}

// ValidateEmail performs a shallow shape check; real verification
// happens out of band.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword checks password length bounds. The upper bound is
// bcrypt's 72-byte input limit; anything longer would fail to hash.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		return fmt.Errorf("password must be at most 72 characters long")
	}
	return nil
}
