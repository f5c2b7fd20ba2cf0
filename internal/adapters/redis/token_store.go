// Package redis provides Redis-based adapters for the profile portal.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/ports"
)

const (
	defaultPrefix = "portal:session:"
	tokenSuffix   = ":token"
	defaultTTL    = 7 * 24 * time.Hour
)

// TokenStore is a Redis-based store for the bearer token of each browser session.
// Tokens with a known expiry live until that expiry; others use the store's default TTL.
type TokenStore struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

// TokenStoreOptions configures a TokenStore. Zero values select the defaults.
type TokenStoreOptions struct {
	Prefix     string
	DefaultTTL time.Duration
}

// NewTokenStore creates a new Redis-based token store.
func NewTokenStore(client redis.UniversalClient, opts TokenStoreOptions) *TokenStore {
	s := &TokenStore{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}
	if s.prefix == "" {
		s.prefix = defaultPrefix
	}
	if s.defaultTTL <= 0 {
		s.defaultTTL = defaultTTL
	}
	return s
}

func (s *TokenStore) key(sessionID string) string {
	return s.prefix + sessionID + tokenSuffix
}

func (s *TokenStore) Save(ctx context.Context, tok domainauth.StoredToken) error {
	if tok.SessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	if tok.Token == "" {
		return errors.New("token cannot be empty")
	}

	ttl := s.defaultTTL
	if !tok.ExpiresAt.IsZero() {
		ttl = time.Until(tok.ExpiresAt)
		if ttl <= 0 {
			return errors.New("token is expired")
		}
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	return s.client.Set(ctx, s.key(tok.SessionID), data, ttl).Err()
}

func (s *TokenStore) Get(ctx context.Context, sessionID string) (domainauth.StoredToken, error) {
	if sessionID == "" {
		return domainauth.StoredToken{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.StoredToken{}, ErrNotFound
		}
		return domainauth.StoredToken{}, fmt.Errorf("redis get: %w", err)
	}

	var tok domainauth.StoredToken
	if unmarshalErr := json.Unmarshal([]byte(data), &tok); unmarshalErr != nil {
		return domainauth.StoredToken{}, fmt.Errorf("unmarshal token: %w", unmarshalErr)
	}

	// Redis TTL normally evicts first; clock skew between hosts can leave a stale entry.
	if tok.Expired(time.Now()) {
		if deleteErr := s.Delete(ctx, sessionID); deleteErr != nil {
			return domainauth.StoredToken{}, fmt.Errorf("cleanup expired token: %w", deleteErr)
		}
		return domainauth.StoredToken{}, ErrNotFound
	}

	return tok, nil
}

func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// ErrNotFound is returned when no token is stored for a session.
var ErrNotFound = ports.ErrTokenNotFound
