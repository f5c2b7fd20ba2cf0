package config

import (
	"strings"
	"time"
)

// APIConfig describes the remote REST backend.
type APIConfig struct {
	// BaseURL is the backend origin; paths /login, /register and /profile are appended.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// Timeout bounds each backend request. Zero means no timeout.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0"`
}

// Sanitize trims the base URL and clamps negative timeouts.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = "http://localhost:3000"
	}
	if a.Timeout < 0 {
		a.Timeout = 0
	}
}
