package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/profile-portal/internal/adapters/backend"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

type fakeAPI struct {
	*httptest.Server
	registered []map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "password1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-alice","user":{"_id":"1","username":"alice","name":"Alice"}}`)
	})
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		api.registered = append(api.registered, body)
		if body["username"] == "alice" {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"Username already exists"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-bob","user":{"_id":"2","username":"bob","name":"Bob"}}`)
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"user":{"_id":"1","username":"alice","name":"Alice","createdAt":"2024-03-01T22:20:30Z"}}`)
	})
	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func newTestContext(t *testing.T, apiURL, input string) (*commandContext, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		API:    backend.NewClient(backend.Options{BaseURL: apiURL}),
		Tokens: &tokenFile{path: filepath.Join(t.TempDir(), "portal", "token"), now: time.Now},
		in:     bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}, out
}

func TestLoginProfileLogout(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, out := newTestContext(t, api.URL, "")

	require.NoError(t, runLogin(cmdCtx, []string{"-username", "alice", "-password", "password1"}))
	assert.Equal(t, "Logged in as Alice\n", out.String())

	info, err := os.Stat(cmdCtx.Tokens.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out.Reset()
	cmdCtx.API = backend.NewClient(backend.Options{BaseURL: api.URL})
	require.NoError(t, runProfile(cmdCtx, nil))
	assert.Contains(t, out.String(), "Username:   alice")
	assert.Contains(t, out.String(), "Name:       Alice")
	assert.Contains(t, out.String(), "Joined At:")

	out.Reset()
	require.NoError(t, runLogout(cmdCtx, nil))
	assert.Equal(t, "Logged out\n", out.String())
	_, err = os.Stat(cmdCtx.Tokens.path)
	assert.True(t, os.IsNotExist(err))

	assert.EqualError(t, runProfile(cmdCtx, nil), "not logged in")
	require.NoError(t, runLogout(cmdCtx, nil), "logout always succeeds")
}

func TestLoginPrompts(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, out := newTestContext(t, api.URL, "alice\npassword1\n")

	require.NoError(t, runLogin(cmdCtx, nil))
	assert.Equal(t, "Username: Password: Logged in as Alice\n", out.String())
}

func TestLoginValidation(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, _ := newTestContext(t, api.URL, "")

	err := runLogin(cmdCtx, []string{"-username", "al", "-password", "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password: ")
	assert.Contains(t, err.Error(), "username: ")
	_, statErr := os.Stat(cmdCtx.Tokens.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoginFailureUsesBackendMessage(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, _ := newTestContext(t, api.URL, "")

	err := runLogin(cmdCtx, []string{"-username", "alice", "-password", "wrongpass"})
	assert.EqualError(t, err, "Invalid credentials")
}

func TestLoginFailureFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cmdCtx, _ := newTestContext(t, srv.URL, "")

	err := runLogin(cmdCtx, []string{"-username", "alice", "-password", "password1"})
	assert.EqualError(t, err, "Login failed")
}

func TestRegister(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, out := newTestContext(t, api.URL, "Bob\nbob\npassword1\npassword1\n")

	require.NoError(t, runRegister(cmdCtx, nil))
	assert.True(t, strings.HasSuffix(out.String(), "Registered as Bob\n"))
	require.Len(t, api.registered, 1)
	assert.Equal(t, map[string]string{"name": "Bob", "username": "bob", "password": "password1"}, api.registered[0],
		"the confirmation never leaves the client")

	tok, err := cmdCtx.Tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", tok.Token)
}

func TestRegisterMismatchAndConflict(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, _ := newTestContext(t, api.URL, "")

	err := runRegister(cmdCtx, []string{"-name", "Bob", "-username", "bob", "-password", "password1", "-confirm", "password2"})
	assert.EqualError(t, err, "confirmPassword: Passwords don't match")
	assert.Empty(t, api.registered)

	err = runRegister(cmdCtx, []string{"-name", "Alice", "-username", "alice", "-password", "password1", "-confirm", "password1"})
	assert.EqualError(t, err, "Username already exists")
}

func TestProfileExpiredToken(t *testing.T) {
	api := newFakeAPI(t)
	cmdCtx, _ := newTestContext(t, api.URL, "")
	require.NoError(t, cmdCtx.Tokens.Save(domainauth.StoredToken{SessionID: "cli", Token: "stale"}))

	assert.EqualError(t, runProfile(cmdCtx, nil), "Session expired, please log in")
	_, err := cmdCtx.Tokens.Load()
	assert.ErrorIs(t, err, errNoToken, "a rejected token is forgotten")
}

func TestProfileFailureForgetsToken(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	unreachable := httptest.NewServer(http.NotFoundHandler())
	unreachable.Close()

	tests := []struct {
		name   string
		apiURL string
	}{
		{"server error", failing.URL},
		{"network failure", unreachable.URL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmdCtx, _ := newTestContext(t, tt.apiURL, "")
			require.NoError(t, cmdCtx.Tokens.Save(domainauth.StoredToken{SessionID: "cli", Token: "tok"}))

			assert.EqualError(t, runProfile(cmdCtx, nil), "Session expired, please log in")
			_, err := cmdCtx.Tokens.Load()
			assert.ErrorIs(t, err, errNoToken)
		})
	}
}

func TestTokenFile(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &tokenFile{path: filepath.Join(t.TempDir(), "token"), now: func() time.Time { return now }}

	require.Error(t, f.Save(domainauth.StoredToken{}))

	require.NoError(t, f.Save(domainauth.StoredToken{Token: "t1", ExpiresAt: now.Add(time.Hour)}))
	tok, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "t1", tok.Token)

	require.NoError(t, f.Save(domainauth.StoredToken{Token: "t2", ExpiresAt: now.Add(-time.Second)}))
	_, err = f.Load()
	assert.ErrorIs(t, err, errNoToken)
	_, statErr := os.Stat(f.path)
	assert.True(t, os.IsNotExist(statErr), "expired tokens are removed")

	require.NoError(t, os.WriteFile(f.path, []byte("not json"), 0o600))
	_, err = f.Load()
	assert.ErrorIs(t, err, errNoToken)
}

func TestDefaultTokenFile(t *testing.T) {
	t.Setenv(tokenFileEnv, "/tmp/portal-token")
	f, err := defaultTokenFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/portal-token", f.path)

	t.Setenv(tokenFileEnv, "")
	t.Setenv("HOME", "/home/tester")
	f, err = defaultTokenFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".profile-portal", "token"), f.path)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Usage: portal-cli <command> [flags]"))
	for _, name := range []string{"login", "logout", "profile", "register"} {
		assert.Contains(t, out, "  "+name)
	}
	assert.Less(t, strings.Index(out, "login"), strings.Index(out, "register"))
}
