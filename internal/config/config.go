package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	DBConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetUsersAPIURL() string
	GetTokensAPIURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	DB
}

func New() Config {
	return mainConfig{}
}
