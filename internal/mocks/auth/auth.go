package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI    = (*FakeAuthAPI)(nil)
	_ ports.TokenStore = (*MemoryTokenStore)(nil)
)

// FakeAuthAPI simulates the backend client. Unset funcs fall back to deterministic defaults:
// login and register succeed with token "token-<username>", profile returns DefaultUser
// when a header is set and fails with ErrUnauthorized otherwise.
type FakeAuthAPI struct {
	LoginFunc    func(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error)
	RegisterFunc func(ctx context.Context, reg domainauth.Registration) (domainauth.AuthResult, error)
	ProfileFunc  func(ctx context.Context) (domainauth.User, error)

	DefaultUser domainauth.User

	mu            sync.Mutex
	header        string
	loginCalls    []domainauth.Credentials
	registerCalls []domainauth.Registration
	profileCalls  int
	profileTokens []string
}

// NewFakeAuthAPI creates a FakeAuthAPI with a default user.
func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{
		DefaultUser: domainauth.User{
			ID:       "user-1",
			Username: "alice",
			Name:     "Alice",
		},
	}
}

func (f *FakeAuthAPI) SetAuthHeader(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "" {
		f.header = ""
		return
	}
	f.header = "Bearer " + token
}

func (f *FakeAuthAPI) AuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.header
}

func (f *FakeAuthAPI) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error) {
	f.mu.Lock()
	f.loginCalls = append(f.loginCalls, creds)
	f.mu.Unlock()

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	user := f.DefaultUser
	user.Username = creds.Username
	return domainauth.AuthResult{Token: "token-" + creds.Username, User: user}, nil
}

func (f *FakeAuthAPI) Register(ctx context.Context, reg domainauth.Registration) (domainauth.AuthResult, error) {
	f.mu.Lock()
	f.registerCalls = append(f.registerCalls, reg)
	f.mu.Unlock()

	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, reg)
	}
	user := f.DefaultUser
	user.Username = reg.Username
	user.Name = reg.Name
	return domainauth.AuthResult{Token: "token-" + reg.Username, User: user}, nil
}

func (f *FakeAuthAPI) Profile(ctx context.Context) (domainauth.User, error) {
	f.mu.Lock()
	f.profileCalls++
	header := f.header
	f.profileTokens = append(f.profileTokens, header)
	f.mu.Unlock()

	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx)
	}
	if header == "" {
		return domainauth.User{}, ErrUnauthorized
	}
	return f.DefaultUser, nil
}

// LoginCalls returns the credentials of every Login call so far.
func (f *FakeAuthAPI) LoginCalls() []domainauth.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainauth.Credentials(nil), f.loginCalls...)
}

// RegisterCalls returns the bodies of every Register call so far.
func (f *FakeAuthAPI) RegisterCalls() []domainauth.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainauth.Registration(nil), f.registerCalls...)
}

// ProfileCalls returns the number of Profile calls so far.
func (f *FakeAuthAPI) ProfileCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls
}

// ProfileHeaders returns the Authorization header seen by each Profile call.
func (f *FakeAuthAPI) ProfileHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.profileTokens...)
}

// MemoryTokenStore is an in-memory token store for unit tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]domainauth.StoredToken

	// SaveErr and DeleteErr, when set, are returned by Save and Delete.
	SaveErr   error
	DeleteErr error
}

// NewMemoryTokenStore creates a new in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]domainauth.StoredToken),
	}
}

func (m *MemoryTokenStore) Save(_ context.Context, tok domainauth.StoredToken) error {
	if tok.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tok.SessionID] = tok
	return nil
}

func (m *MemoryTokenStore) Get(_ context.Context, sessionID string) (domainauth.StoredToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[sessionID]
	if !ok || sessionID == "" {
		return domainauth.StoredToken{}, ErrNotFound
	}
	return tok, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}

// Token returns the persisted token for sessionID, or "" when none is stored.
func (m *MemoryTokenStore) Token(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[sessionID].Token
}

// ErrNotFound is returned by MemoryTokenStore when no token is stored.
var ErrNotFound = ports.ErrTokenNotFound

// ErrUnauthorized is returned by FakeAuthAPI.Profile when no bearer token is set.
var ErrUnauthorized = errors.New("unauthorized")
