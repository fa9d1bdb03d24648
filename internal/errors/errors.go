package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all three services. The core packages only
// ever return sentinels from this list (wrapped with context); the
// transport layer maps them to status codes.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrConflict           = errors.New("already exists")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnavailable = errors.New("service unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
