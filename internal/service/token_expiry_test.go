package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/profile-portal/internal/testutil"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return tok
}

func TestTokenExpiry(t *testing.T) {
	now := testutil.TestTime()
	exp := now.Add(time.Hour)

	tests := []struct {
		name  string
		token string
		want  time.Time
	}{
		{"opaque token", "tok-alice", time.Time{}},
		{"no exp claim", signedToken(t, jwt.RegisteredClaims{Subject: "alice"}), time.Time{}},
		{"future exp", signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}), exp},
		{"past exp", signedToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}), time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(TokenExpiry(tt.token, now)), "got %v", TokenExpiry(tt.token, now))
		})
	}
}
