package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetJWTSecret() string
	GetJWTAlgorithm() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetStrictTokenPersistence() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetJWTSecret returns the shared signing secret. The default is only
// usable for local development and must be overridden in production.
func (Security) GetJWTSecret() string {
	return GetEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production")
}

func (Security) GetJWTAlgorithm() string {
	return GetEnv("JWT_ALGORITHM", "HS256")
}

func (Security) GetAccessTokenExpiry() time.Duration {
	return time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute
}

func (Security) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(envInt("REFRESH_TOKEN_EXPIRE_DAYS", 30)) * 24 * time.Hour
}

// GetStrictTokenPersistence controls whether a failure to persist a
// refresh token record fails the whole request instead of being logged.
func (Security) GetStrictTokenPersistence() bool {
	return GetEnv("STRICT_TOKEN_PERSISTENCE", "false") == "true"
}

func envInt(envVar string, defaultValue int) int {
	v, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
