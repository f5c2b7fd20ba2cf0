package auth

// Package auth contains domain-level types for the login, registration and profile flow.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// User is the account record returned by the backend API.
// It is immutable once fetched and replaced wholesale on re-fetch.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body.
// The password confirmation is a form concern and never part of this type.
type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is the success payload of both login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// StoredToken is the persisted bearer token for one browser session.
// ExpiresAt is zero when the token carries no expiry of its own.
type StoredToken struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token has a known expiry that has passed.
func (t StoredToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// NoticeKind classifies a user-visible notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient user-visible notification (rendered as a toast).
type Notice struct {
	Message string     `json:"message"`
	Kind    NoticeKind `json:"kind"`
}

// FieldUsername is the username form field, used when the server reports a username conflict.
const FieldUsername = "username"

// Client-visible routes.
const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathProfile  = "/profile"
)

// RequiresAuth reports whether a client route is only reachable with an authenticated user.
func RequiresAuth(path string) bool {
	return strings.TrimSuffix(path, "/") == PathProfile
}
