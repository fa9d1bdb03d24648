package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// NewSigner creates a signer from a configured algorithm name and secret.
// The algorithm and secret are deployment configuration; all verifying
// parties must share them.
func NewSigner(algorithm, secret string) (Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}

	switch algorithm {
	case "HS256":
		return NewHMACSigner(secret, jwt.SigningMethodHS256), nil
	case "HS384":
		return NewHMACSigner(secret, jwt.SigningMethodHS384), nil
	case "HS512":
		return NewHMACSigner(secret, jwt.SigningMethodHS512), nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
}
