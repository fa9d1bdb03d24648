package identity

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Identity is a user account as the credential store sees it. Accounts
// are never physically deleted; deactivation sets DeactivatedAt.
type Identity struct {
	ID            int64      `json:"id,omitempty"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"password_hash,omitempty"`
	IsAdmin       bool       `json:"is_admin"`
	IsVerified    bool       `json:"is_verified"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	DeactivatedAt *time.Time `json:"disactivated_at,omitempty"`
}

// Active reports whether the account can still authenticate.
func (i *Identity) Active() bool {
	return i.DeactivatedAt == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
