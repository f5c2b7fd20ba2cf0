package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	apperrors "github.com/target/profile-portal/internal/errors"
	"github.com/target/profile-portal/internal/observability/metrics"
	"github.com/target/profile-portal/internal/observability/statsd"
	"github.com/target/profile-portal/internal/ports"
	"golang.org/x/sync/singleflight"
)

// User-visible notice texts and fallback messages.
const (
	MsgLoggedIn           = "Logged in"
	MsgRegistered         = "Registered"
	MsgLoggedOut          = "Logged out"
	MsgSessionExpired     = "Session expired, please log in"
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
)

const (
	initializeFlightKey = "initialize"
	operationLogin      = "login"
	operationRegister   = "register"
	operationInitialize = "initialize"
	operationLogout     = "logout"
)

// Outcome describes what the caller must do after a session operation:
// show the notices and, when Redirect is set, navigate there replacing the current page.
type Outcome struct {
	Redirect string
	Notices  []domainauth.Notice
	// FormError is the whole-form message of a failed login or register.
	FormError string
	// FieldErrors are server-reported errors attached to specific form fields.
	FieldErrors map[string]string
	// Superseded is set when a newer submission started before this one finished;
	// nothing was changed and the newer submission's outcome is authoritative.
	Superseded bool
}

// Snapshot is a read-only copy of a session's state for rendering.
type Snapshot struct {
	User          *domainauth.User
	Loading       bool
	LoginError    string
	RegisterError string
}

// Authenticated reports whether a validated user record is held.
func (s Snapshot) Authenticated() bool { return s.User != nil }

// SessionOptions groups dependencies for a Session.
type SessionOptions struct {
	ID      string
	API     ports.AuthAPI
	Tokens  ports.TokenStore
	Logger  *slog.Logger
	Metrics statsd.Sink
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Session is the state of one browser session. It owns the user record, the loading flag,
// the per-form error slots and the session's backend client, and it is the only writer of
// the session's persisted token.
//
// Every login, register, logout and initialize takes a new generation number. An operation
// only commits its result if no newer operation started meanwhile, so the latest submission
// always wins regardless of the order in which backend responses arrive.
type Session struct {
	id      string
	api     ports.AuthAPI
	tokens  ports.TokenStore
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	initFlight singleflight.Group

	mu           sync.Mutex
	user         *domainauth.User
	loading      bool
	loginErr     string
	registerErr  string
	generation   uint64
	initialized  bool
	lastActivity time.Time
}

// NewSession constructs a Session with no user.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:           opts.ID,
		api:          opts.API,
		tokens:       opts.Tokens,
		logger:       logger.With("component", "session"),
		metrics:      opts.Metrics,
		now:          now,
		lastActivity: now(),
	}
}

// ID returns the browser session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Loading:       s.loading,
		LoginError:    s.loginErr,
		RegisterError: s.registerErr,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// begin starts a new operation: it bumps the generation, marks loading and returns the new generation.
func (s *Session) begin() uint64 {
	s.generation++
	s.loading = true
	s.lastActivity = s.now()
	return s.generation
}

// current reports whether gen is still the latest operation. Callers hold s.mu.
func (s *Session) current(gen uint64) bool {
	return gen == s.generation
}

// Initialize restores the session from its persisted token on first use.
// path is the client route being requested; when it requires authentication and no valid
// token exists, the outcome redirects to the login route.
// Later calls are no-ops; concurrent first calls share one profile fetch.
func (s *Session) Initialize(ctx context.Context, path string) Outcome {
	s.mu.Lock()
	done := s.initialized
	s.mu.Unlock()
	if done {
		return Outcome{}
	}

	// The fetch is shared by every waiting request, so one caller going away must not cancel it.
	flightCtx := context.WithoutCancel(ctx)

	leader := false
	v, _, _ := s.initFlight.Do(initializeFlightKey, func() (any, error) {
		leader = true
		return s.initialize(flightCtx, path), nil
	})

	out, _ := v.(Outcome)
	if !leader {
		// Followers share the redirect but the notices belong to the leading request only.
		out.Notices = nil
	}
	return out
}

func (s *Session) initialize(ctx context.Context, path string) Outcome {
	start := s.now()

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return Outcome{}
	}
	gen := s.generation
	s.mu.Unlock()
	// Requests arriving while the fetch runs join the flight; later ones are no-ops.
	defer s.markInitialized()

	stored, err := s.tokens.Get(ctx, s.id)
	if err != nil || stored.Token == "" {
		if err != nil && !errors.Is(err, ports.ErrTokenNotFound) {
			s.logger.ErrorContext(ctx, "read persisted token", "session_id", s.id, "error", err)
		}
		return Outcome{Redirect: loginRedirectFor(path)}
	}

	s.mu.Lock()
	if !s.current(gen) {
		// A login/register/logout started before we read the store; it owns the state now.
		s.mu.Unlock()
		return Outcome{}
	}
	s.api.SetAuthHeader(stored.Token)
	gen = s.begin()
	s.mu.Unlock()

	user, fetchErr := s.api.Profile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
			Operation: operationInitialize, Result: metrics.ResultSuperseded, Duration: s.now().Sub(start),
		})
		return Outcome{Superseded: true}
	}
	s.loading = false

	if fetchErr == nil {
		s.user = &user
		metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
			Operation: operationInitialize, Result: metrics.ResultSuccess, Duration: s.now().Sub(start),
		})
		return Outcome{}
	}

	// Any failure (rejection or transport) means the session is no longer valid.
	s.logger.Log(ctx, failureLevel(fetchErr), "persisted token rejected",
		"session_id", s.id, "reason", failureReason(fetchErr), "error", fetchErr)
	s.clearLocked(ctx)
	metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
		Operation: operationInitialize, Result: metrics.ResultError, Duration: s.now().Sub(start), Err: fetchErr,
	})

	return Outcome{
		Redirect: loginRedirectFor(path),
		Notices:  []domainauth.Notice{{Message: MsgSessionExpired, Kind: domainauth.NoticeError}},
	}
}

// Login submits credentials to the backend. On success the user and token are stored and the
// outcome navigates to the profile route; on failure the login error slot holds the server's
// message or a generic fallback.
func (s *Session) Login(ctx context.Context, creds domainauth.Credentials) Outcome {
	return s.authenticate(ctx, authAttempt{
		operation: operationLogin,
		fallback:  MsgLoginFailed,
		success:   MsgLoggedIn,
		errSlot:   func(s *Session) *string { return &s.loginErr },
		call: func(ctx context.Context) (domainauth.AuthResult, error) {
			return s.api.Login(ctx, creds)
		},
	})
}

// Register creates an account. Same contract as Login, using the register error slot.
func (s *Session) Register(ctx context.Context, reg domainauth.Registration) Outcome {
	return s.authenticate(ctx, authAttempt{
		operation: operationRegister,
		fallback:  MsgRegistrationFailed,
		success:   MsgRegistered,
		errSlot:   func(s *Session) *string { return &s.registerErr },
		call: func(ctx context.Context) (domainauth.AuthResult, error) {
			return s.api.Register(ctx, reg)
		},
	})
}

type authAttempt struct {
	operation string
	fallback  string
	success   string
	errSlot   func(*Session) *string
	call      func(context.Context) (domainauth.AuthResult, error)
}

func (s *Session) authenticate(ctx context.Context, a authAttempt) Outcome {
	start := s.now()

	s.mu.Lock()
	gen := s.begin()
	*a.errSlot(s) = ""
	s.mu.Unlock()

	res, err := a.call(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
			Operation: a.operation, Result: metrics.ResultSuperseded, Duration: s.now().Sub(start),
		})
		return Outcome{Superseded: true}
	}
	s.loading = false

	if err == nil {
		if saveErr := s.persist(ctx, res.Token); saveErr != nil {
			s.logger.ErrorContext(ctx, "persist token", "session_id", s.id, "operation", a.operation, "error", saveErr)
			err = saveErr
		}
	}

	if err != nil {
		msg := apperrors.GetMessage(err)
		if msg == "" {
			msg = a.fallback
		}
		*a.errSlot(s) = msg

		out := Outcome{
			FormError: msg,
			Notices:   []domainauth.Notice{{Message: msg, Kind: domainauth.NoticeError}},
		}
		// Server errors tied to a form field (a taken username) are also shown on that field.
		if field := apperrors.GetField(err); field != "" {
			out.FieldErrors = map[string]string{field: msg}
		}

		s.logger.Log(ctx, failureLevel(err), "authentication failed",
			"session_id", s.id, "operation", a.operation, "reason", failureReason(err), "error", err)
		metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
			Operation: a.operation, Result: metrics.ResultError, Duration: s.now().Sub(start), Err: err,
		})
		return out
	}

	user := res.User
	s.user = &user
	s.initialized = true
	s.api.SetAuthHeader(res.Token)

	metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
		Operation: a.operation, Result: metrics.ResultSuccess, Duration: s.now().Sub(start),
	})
	return Outcome{
		Redirect: domainauth.PathProfile,
		Notices:  []domainauth.Notice{{Message: a.success, Kind: domainauth.NoticeSuccess}},
	}
}

// persist writes the token to the store. Callers hold s.mu so that only the latest
// attempt ever reaches the store.
func (s *Session) persist(ctx context.Context, token string) error {
	stored := domainauth.StoredToken{
		SessionID: s.id,
		Token:     token,
		ExpiresAt: TokenExpiry(token, s.now()),
	}
	if err := s.tokens.Save(ctx, stored); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Logout clears the user, the persisted token and the bearer header, and navigates to the
// login route. It cannot fail and is safe to call without a session.
func (s *Session) Logout(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.begin()
	s.loading = false
	s.initialized = true
	s.clearLocked(ctx)

	metrics.EmitSessionOperation(s.metrics, metrics.SessionMetric{
		Operation: operationLogout, Result: metrics.ResultSuccess,
	})
	return Outcome{
		Redirect: domainauth.PathLogin,
		Notices:  []domainauth.Notice{{Message: MsgLoggedOut, Kind: domainauth.NoticeSuccess}},
	}
}

// clearLocked drops the user, the persisted token and the bearer header. Callers hold s.mu.
func (s *Session) clearLocked(ctx context.Context) {
	s.user = nil
	if err := s.tokens.Delete(ctx, s.id); err != nil {
		s.logger.ErrorContext(ctx, "delete persisted token", "session_id", s.id, "error", err)
	}
	s.api.SetAuthHeader("")
}

func (s *Session) markInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

// idleSince returns the time of the last operation.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// touch records activity without starting an operation.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// failureReason names why a backend call failed, for logs.
func failureReason(err error) string {
	switch {
	case apperrors.IsUnauthorized(err):
		return "rejected"
	case apperrors.IsTimeout(err):
		return "timeout"
	case apperrors.IsUnavailable(err):
		return "unreachable"
	default:
		return "failed"
	}
}

// failureLevel logs an unreachable or slow backend as a warning; rejections are routine.
func failureLevel(err error) slog.Level {
	if apperrors.IsUnavailable(err) || apperrors.IsTimeout(err) {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func loginRedirectFor(path string) string {
	if domainauth.RequiresAuth(path) {
		return domainauth.PathLogin
	}
	return ""
}
