package token

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload carried inside a signed token. It is
// never persisted; it is reconstructed by decoding a token.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	IsVerified bool   `json:"is_verified"`
}

func (c *Claims) toMapClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id":     c.UserID,
		"username":    c.Username,
		"email":       c.Email,
		"is_admin":    c.IsAdmin,
		"is_verified": c.IsVerified,
	}
}

// claimsFromMap is the single deserialization boundary for token
// payloads. Missing or mistyped fields fail here rather than at
// arbitrary call sites.
func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	userID, err := claimInt64(m, "user_id")
	if err != nil {
		return nil, err
	}
	username, err := claimString(m, "username")
	if err != nil {
		return nil, err
	}
	email, err := claimString(m, "email")
	if err != nil {
		return nil, err
	}

	return &Claims{
		UserID:     userID,
		Username:   username,
		Email:      email,
		IsAdmin:    claimBool(m, "is_admin"),
		IsVerified: claimBool(m, "is_verified"),
	}, nil
}

func claimInt64(m jwt.MapClaims, key string) (int64, error) {
	switch v := m[key].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("claim %q missing or not a number", key)
	}
}

func claimString(m jwt.MapClaims, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("claim %q missing or not a string", key)
	}
	return s, nil
}

func claimBool(m jwt.MapClaims, key string) bool {
	b, _ := m[key].(bool)
	return b
}
