package httpx

import (
	"net/http"
	"time"

	"github.com/target/profile-portal/internal/service"
)

// SessionProvider returns the in-memory session for a browser session ID.
type SessionProvider interface {
	Get(id string) *service.Session
}

var _ SessionProvider = (*service.SessionRegistry)(nil)

// SessionCookieConfig describes the browser session cookie.
type SessionCookieConfig struct {
	Name   string
	Domain string
	TTL    time.Duration
}

// Sessions returns a middleware that attaches the caller's Session to the request context.
// A missing or malformed cookie starts a new session. The cookie is refreshed on every
// request so active sessions slide forward.
func Sessions(cfg SessionCookieConfig, provider SessionProvider) Middleware {
	if cfg.Name == "" {
		cfg.Name = "session_id"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.Name); err == nil && service.ValidSessionID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = service.NewSessionID()
			}

			cookie := &http.Cookie{
				Name:     cfg.Name,
				Value:    id,
				Path:     "/",
				Domain:   cfg.Domain,
				HttpOnly: true,
				Secure:   isSecureRequest(r),
				SameSite: http.SameSiteLaxMode,
			}
			if cfg.TTL > 0 {
				cookie.MaxAge = int(cfg.TTL.Seconds())
			}
			http.SetCookie(w, cookie)

			sess := provider.Get(id)
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

// SessionFrom returns the request's session. Handlers are only mounted behind Sessions,
// so a missing session is a wiring error.
func SessionFrom(r *http.Request) *service.Session {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		panic("httpx: request has no session; is the Sessions middleware installed?")
	}
	return sess
}
