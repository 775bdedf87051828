package config

import (
	"fmt"
	"os"
	"time"
)

// AppConfig holds process configuration sourced from the environment.
type AppConfig struct {
	ServerPort string
	JWTSecret  string
	TokenTTL   time.Duration
	LogFormat  string // "json" or "text"
}

// LoadAppConfig reads application configuration from environment variables.
// The token signing secret is required; startup must fail without it.
func LoadAppConfig() (*AppConfig, error) {
	secret := os.Getenv("JWT_ACCESS_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET not set in environment")
	}

	ttl := 15 * time.Minute
	if val := os.Getenv("JWT_ACCESS_TTL"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_ACCESS_TTL %q: %w", val, err)
		}
		ttl = parsed
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}

	return &AppConfig{
		ServerPort: port,
		JWTSecret:  secret,
		TokenTTL:   ttl,
		LogFormat:  format,
	}, nil
}
