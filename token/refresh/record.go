package refresh

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is the server-side trace of an issued refresh token. Only a
// one-way hash of the token is stored; the store is not trusted to keep
// raw secrets. A record is never updated except to flip Revoked — a
// refresh produces a new record rather than mutating the old one.
type Record struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"refresh_token_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Revoked   bool      `json:"is_revoked"`
}

// HashToken derives the storage key for a refresh token string.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
