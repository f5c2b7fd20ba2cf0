package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: Backend API client configuration
//   - session.go: Session cookie, token store and rate limit configuration
//   - redis.go: Redis connection configuration
//   - http.go: HTTP server configuration
//   - observability.go: Logging and metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, insecure cookies).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend API configuration
	API APIConfig `envPrefix:"API_"`

	// Redis connection for persisted tokens
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Browser session configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Login/register throttling
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Metrics configuration
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.RateLimit.Sanitize()
	c.Metrics.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
