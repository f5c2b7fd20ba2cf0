package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the expiry embedded in token when it is a JWT with an exp claim
// still in the future, and the zero time otherwise. The signature is not verified:
// the value only bounds how long the token is kept, the backend remains the authority.
func TokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	exp := claims.ExpiresAt.Time
	if !exp.After(now) {
		return time.Time{}
	}
	return exp
}
