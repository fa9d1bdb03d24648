package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	usersAPIEnvVar  = "USERS_DB_API_URL"
	tokensAPIEnvVar = "AUTH_DB_API_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Service")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetUsersAPIURL returns the base URL of the credential store service
func (EnvVars) GetUsersAPIURL() string {
	return GetEnv(usersAPIEnvVar, "http://localhost:8001")
}

// GetTokensAPIURL returns the base URL of the token store service
func (EnvVars) GetTokensAPIURL() string {
	return GetEnv(tokensAPIEnvVar, "http://localhost:8002")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
