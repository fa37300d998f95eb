package pocketbase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a backend auth token without verifying its signature.
// Verification is the backend's job; this only decides whether a refresh is worth trying.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenValid reports whether token is well formed and not expired at now.
func TokenValid(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && now.Before(exp)
}
