package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mockauth "github.com/target/profile-portal/internal/mocks/auth"
	"github.com/target/profile-portal/internal/observability/requestid"
	"github.com/target/profile-portal/internal/ports"
	"github.com/target/profile-portal/internal/service"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, requestid.Valid(seen))
	assert.Equal(t, seen, rr.Header().Get(requestid.Header))

	incoming := requestid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen, "well-formed incoming IDs are kept")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
}

func TestLoggingAndRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		Recover(logger), RequestID(), Logging(logger))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), `"msg":"panic"`)
	assert.Contains(t, buf.String(), `"path":"/login"`)
	assert.Contains(t, buf.String(), `"request_id"`)
}

func TestLoggingStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/register", nil))
	assert.Contains(t, buf.String(), `"status":422`)

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String(), "health checks log at debug")
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders()(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "same-origin", rr.Header().Get("Referrer-Policy"))
}

func newTestSessions() *service.SessionRegistry {
	return service.NewSessionRegistry(service.SessionRegistryOptions{
		NewAPI: func() ports.AuthAPI { return mockauth.NewFakeAuthAPI() },
		Tokens: mockauth.NewMemoryTokenStore(),
	})
}

func TestSessionsMiddleware(t *testing.T) {
	reg := newTestSessions()
	var got *service.Session
	h := Sessions(SessionCookieConfig{Name: "sid", Domain: "example.com"}, reg)(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { got = SessionFrom(r) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	c := findCookie(t, rr, "sid")
	require.NotNil(t, c)
	assert.True(t, service.ValidSessionID(c.Value))
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "example.com", c.Domain)
	require.NotNil(t, got)
	assert.Equal(t, c.Value, got.ID())

	first := got
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: c.Value})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, first, got, "the cookie selects the same session")

	forged := httptest.NewRequest(http.MethodGet, "/login", nil)
	forged.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, forged)
	assert.NotEqual(t, "../../etc", got.ID())
	assert.True(t, service.ValidSessionID(findCookie(t, rr, "sid").Value))
}

func TestSessionFromPanicsWithoutMiddleware(t *testing.T) {
	assert.Panics(t, func() { SessionFrom(httptest.NewRequest(http.MethodGet, "/", nil)) })
}
