package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/profile-portal/internal/observability/statsd"
	"github.com/target/profile-portal/internal/ports"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// SessionRegistryOptions groups dependencies for SessionRegistry.
type SessionRegistryOptions struct {
	// NewAPI returns a fresh backend client (with no bearer token) for a new session.
	NewAPI  func() ports.AuthAPI
	Tokens  ports.TokenStore
	Logger  *slog.Logger
	Metrics statsd.Sink
	// IdleTTL is how long an unused session stays in memory. Evicted sessions are
	// rebuilt from their persisted token on the next request.
	IdleTTL time.Duration
	Now     func() time.Time
}

// SessionRegistry holds the in-memory Session of every active browser session.
type SessionRegistry struct {
	newAPI  func() ports.AuthAPI
	tokens  ports.TokenStore
	logger  *slog.Logger
	metrics statsd.Sink
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry constructs a new SessionRegistry.
func NewSessionRegistry(opts SessionRegistryOptions) *SessionRegistry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idle := opts.IdleTTL
	if idle <= 0 {
		idle = defaultIdleTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionRegistry{
		newAPI:   opts.NewAPI,
		tokens:   opts.Tokens,
		logger:   logger,
		metrics:  opts.Metrics,
		idleTTL:  idle,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// NewSessionID creates a cryptographically secure random session ID.
func NewSessionID() string {
	// UUIDs are URL-safe and carry enough entropy for a cookie value.
	return uuid.New().String()
}

// ValidSessionID reports whether id has the shape of an ID produced by NewSessionID.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the Session for id, creating it when it is not in memory.
// The registry lock is never held while a session's own lock is taken.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		sess = NewSession(SessionOptions{
			ID:      id,
			API:     r.newAPI(),
			Tokens:  r.tokens,
			Logger:  r.logger,
			Metrics: r.metrics,
			Now:     r.now,
		})
		r.sessions[id] = sess
	}
	r.mu.Unlock()

	if ok {
		sess.touch()
	}
	return sess
}

// Len returns the number of sessions held in memory.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the idle TTL and returns how many were evicted.
// Sessions with an operation in flight are kept.
func (r *SessionRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	candidates := make(map[string]*Session, len(r.sessions))
	for id, sess := range r.sessions {
		candidates[id] = sess
	}
	r.mu.Unlock()

	idle := make(map[string]*Session)
	for id, sess := range candidates {
		if sess.Snapshot().Loading {
			continue
		}
		if sess.idleSince().Before(cutoff) {
			idle[id] = sess
		}
	}

	r.mu.Lock()
	evicted := 0
	for id, sess := range idle {
		// The entry may have been replaced since the snapshot.
		if r.sessions[id] == sess {
			delete(r.sessions, id)
			evicted++
		}
	}
	active := len(r.sessions)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.Gauge("session.active", float64(active), nil)
	}
	return evicted
}

// Run sweeps idle sessions every interval until ctx is canceled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.DebugContext(ctx, "evicted idle sessions", "count", n)
			}
		}
	}
}
