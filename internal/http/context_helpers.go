package httpx

import (
	"context"

	"github.com/target/profile-portal/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *service.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the browser session attached by the Sessions middleware.
func GetSessionFromContext(ctx context.Context) (*service.Session, bool) {
	if s, ok := ctx.Value(sessionKey{}).(*service.Session); ok && s != nil {
		return s, true
	}
	return nil, false
}

// IsAuthenticated reports whether the request's session holds a user.
func IsAuthenticated(ctx context.Context) bool {
	s, ok := GetSessionFromContext(ctx)
	return ok && s.Snapshot().Authenticated()
}
