package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

const (
	tokenDirName  = ".profile-portal"
	tokenFileName = "token"
	// tokenFileEnv overrides the token location, e.g. for scripts using several accounts.
	tokenFileEnv = "PORTAL_TOKEN_FILE"
)

// errNoToken is returned when no usable token is stored.
var errNoToken = errors.New("not logged in")

// tokenFile persists the bearer token between invocations, readable only by the owner.
type tokenFile struct {
	path string
	now  func() time.Time
}

func defaultTokenFile() (*tokenFile, error) {
	if p := strings.TrimSpace(os.Getenv(tokenFileEnv)); p != "" {
		return &tokenFile{path: p, now: time.Now}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locate home directory: %w", err)
	}
	return &tokenFile{path: filepath.Join(home, tokenDirName, tokenFileName), now: time.Now}, nil
}

// Save writes tok, creating the parent directory with owner-only permissions.
func (f *tokenFile) Save(tok domainauth.StoredToken) error {
	if tok.Token == "" {
		return errors.New("token cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

// Load returns the stored token. Missing, unreadable and expired tokens yield errNoToken;
// an expired or corrupt file is removed.
func (f *tokenFile) Load() (domainauth.StoredToken, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domainauth.StoredToken{}, errNoToken
	}
	if err != nil {
		return domainauth.StoredToken{}, fmt.Errorf("read token: %w", err)
	}

	var tok domainauth.StoredToken
	if jsonErr := json.Unmarshal(data, &tok); jsonErr != nil || tok.Token == "" || tok.Expired(f.now()) {
		_ = f.Delete()
		return domainauth.StoredToken{}, errNoToken
	}
	return tok, nil
}

// Delete removes the token. A missing file is not an error.
func (f *tokenFile) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
