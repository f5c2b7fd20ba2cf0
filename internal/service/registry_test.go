package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
	mockauth "github.com/target/profile-portal/internal/mocks/auth"
	"github.com/target/profile-portal/internal/ports"
	"github.com/target/profile-portal/internal/testutil"
)

type gaugeSink struct {
	mu     sync.Mutex
	gauges map[string]float64
}

func (g *gaugeSink) Count(string, int64, map[string]string)            {}
func (g *gaugeSink) Timing(string, time.Duration, map[string]string)   {}
func (g *gaugeSink) Gauge(name string, v float64, _ map[string]string) { g.set(name, v) }

func (g *gaugeSink) set(name string, v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gauges == nil {
		g.gauges = make(map[string]float64)
	}
	g.gauges[name] = v
}

func newTestRegistry(clock *testutil.TestTimeProvider, sink *gaugeSink) (*SessionRegistry, *mockauth.MemoryTokenStore, *[]*mockauth.FakeAuthAPI) {
	tokens := mockauth.NewMemoryTokenStore()
	var apis []*mockauth.FakeAuthAPI
	opts := SessionRegistryOptions{
		NewAPI: func() ports.AuthAPI {
			api := mockauth.NewFakeAuthAPI()
			apis = append(apis, api)
			return api
		},
		Tokens:  tokens,
		IdleTTL: 10 * time.Minute,
		Now:     clock.Now,
	}
	if sink != nil {
		opts.Metrics = sink
	}
	return NewSessionRegistry(opts), tokens, &apis
}

func TestSessionRegistry_GetReusesSession(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	reg, _, apis := newTestRegistry(clock, nil)

	a := reg.Get("a")
	assert.Same(t, a, reg.Get("a"))
	b := reg.Get("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())
	assert.Len(t, *apis, 2, "each session gets its own client")
}

func TestSessionRegistry_SessionsDoNotShareHeaders(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	reg, tokens, apis := newTestRegistry(clock, nil)

	reg.Get("a").Login(context.Background(), domainauth.Credentials{Username: "alice", Password: "password1"})
	reg.Get("b")

	assert.Equal(t, "Bearer token-alice", (*apis)[0].AuthHeader())
	assert.Empty(t, (*apis)[1].AuthHeader())
	assert.Equal(t, "token-alice", tokens.Token("a"))
	assert.Empty(t, tokens.Token("b"))
}

func TestSessionRegistry_Sweep(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sink := &gaugeSink{}
	reg, tokens, _ := newTestRegistry(clock, sink)

	reg.Get("idle").Login(context.Background(), domainauth.Credentials{Username: "alice", Password: "password1"})
	clock.AddTime(6 * time.Minute)
	reg.Get("active")
	clock.AddTime(6 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, float64(1), sink.gauges["session.active"])

	// Eviction only drops memory; the persisted token survives for the next request.
	assert.Equal(t, "token-alice", tokens.Token("idle"))

	restored := reg.Get("idle")
	out := restored.Initialize(context.Background(), domainauth.PathProfile)
	assert.Empty(t, out.Redirect)
	require.NotNil(t, restored.Snapshot().User)
}

func TestSessionRegistry_SweepKeepsTouchedSessions(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	reg, _, _ := newTestRegistry(clock, nil)

	reg.Get("a")
	clock.AddTime(9 * time.Minute)
	reg.Get("a")
	clock.AddTime(9 * time.Minute)

	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func TestSessionRegistry_RunStopsOnCancel(t *testing.T) {
	clock := testutil.NewTestTimeProvider(time.Now())
	reg, _, _ := newTestRegistry(clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessionIDs(t *testing.T) {
	id := NewSessionID()
	assert.True(t, ValidSessionID(id))
	assert.NotEqual(t, id, NewSessionID())
	assert.False(t, ValidSessionID(""))
	assert.False(t, ValidSessionID("not-a-session"))
}

// slowTokenStore blocks Save until release is closed.
type slowTokenStore struct {
	*mockauth.MemoryTokenStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowTokenStore) Save(ctx context.Context, tok domainauth.StoredToken) error {
	close(s.entered)
	<-s.release
	return s.MemoryTokenStore.Save(ctx, tok)
}

func TestSessionRegistry_SlowStoreDoesNotBlockOtherSessions(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	tokens := &slowTokenStore{
		MemoryTokenStore: mockauth.NewMemoryTokenStore(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	reg := NewSessionRegistry(SessionRegistryOptions{
		NewAPI: func() ports.AuthAPI { return mockauth.NewFakeAuthAPI() },
		Tokens: tokens,
		Now:    clock.Now,
	})
	reg.Get("b")

	loggedIn := make(chan Outcome, 1)
	go func() {
		loggedIn <- reg.Get("a").Login(context.Background(), domainauth.Credentials{Username: "alice", Password: "password1"})
	}()
	<-tokens.entered

	swept := make(chan int, 1)
	go func() { swept <- reg.Sweep() }()

	got := make(chan *Session, 2)
	go func() {
		got <- reg.Get("b")
		got <- reg.Get("c")
	}()
	for range 2 {
		select {
		case sess := <-got:
			require.NotNil(t, sess)
		case <-time.After(time.Second):
			t.Fatal("Get blocked behind another session's token write")
		}
	}

	close(tokens.release)
	out := <-loggedIn
	assert.Equal(t, domainauth.PathProfile, out.Redirect)
	assert.Zero(t, <-swept)
	assert.Equal(t, "token-alice", tokens.Token("a"))
}
