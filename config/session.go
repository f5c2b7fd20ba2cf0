package config

import (
	"strings"
	"time"
)

const (
	defaultSessionCookie = "session_id"
	defaultKeyPrefix     = "portal:session:"
	minFlashSecretLength = 32
)

// SessionConfig controls the browser session cookie and the persisted token.
type SessionConfig struct {
	// CookieName is the name of the cookie holding the browser session ID.
	CookieName string `env:"COOKIE_NAME" envDefault:"session_id"`

	// TTL is the cookie lifetime and the Redis TTL for tokens without an expiry of their own.
	TTL time.Duration `env:"TTL" envDefault:"168h"`

	// KeyPrefix namespaces token keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"portal:session:"`

	// FlashSecret signs the flash notice cookie. Must be at least 32 bytes outside dev mode.
	FlashSecret string `env:"FLASH_SECRET"`

	// IdleTTL is how long an unused session stays in memory before it is rebuilt from Redis.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"30m"`
}

// Sanitize restores defaults for empty or non-positive values.
func (s *SessionConfig) Sanitize() {
	if s.CookieName = strings.TrimSpace(s.CookieName); s.CookieName == "" {
		s.CookieName = defaultSessionCookie
	}
	if s.KeyPrefix = strings.TrimSpace(s.KeyPrefix); s.KeyPrefix == "" {
		s.KeyPrefix = defaultKeyPrefix
	}
	if s.TTL <= 0 {
		s.TTL = 7 * 24 * time.Hour
	}
	if s.IdleTTL <= 0 {
		s.IdleTTL = 30 * time.Minute
	}
}

// HasStrongFlashSecret reports whether FlashSecret is long enough for production use.
func (s *SessionConfig) HasStrongFlashSecret() bool {
	return len(s.FlashSecret) >= minFlashSecretLength
}

// RateLimitConfig throttles login and register submissions per client IP and username.
type RateLimitConfig struct {
	Enabled bool    `env:"ENABLED" envDefault:"true"`
	RPS     float64 `env:"RPS"     envDefault:"1"`
	Burst   int     `env:"BURST"   envDefault:"5"`
	// TrustProxy must only be set behind a reverse proxy that overwrites X-Forwarded-For.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// Sanitize disables the limiter when the rate is not positive and keeps the burst at least 1.
func (r *RateLimitConfig) Sanitize() {
	if r.RPS <= 0 {
		r.Enabled = false
	}
	if r.Burst < 1 {
		r.Burst = 1
	}
}
