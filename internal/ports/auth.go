package ports

// Package ports defines interfaces (hexagonal ports) for the login/register/profile flow.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

// AuthAPI is the outbound HTTP client adapter for the remote backend.
// It holds one mutable bearer token applied as a default header to every later request.
type AuthAPI interface {
	// SetAuthHeader applies token to all subsequent requests; an empty token removes the header.
	SetAuthHeader(token string)
	// AuthHeader returns the current Authorization header value, or "" when none is set.
	AuthHeader() string

	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error)
	Register(ctx context.Context, reg domainauth.Registration) (domainauth.AuthResult, error)
	Profile(ctx context.Context) (domainauth.User, error)
}

// ErrTokenNotFound is returned by TokenStore.Get when no token is stored for a session.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists the bearer token of a browser session across restarts.
type TokenStore interface {
	Save(ctx context.Context, tok domainauth.StoredToken) error
	Get(ctx context.Context, sessionID string) (domainauth.StoredToken, error)
	Delete(ctx context.Context, sessionID string) error
}
