package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InspectAccessToken decodes the bearer token without verifying its
// signature. Verification is the backend's job; the client only needs the
// claims to detect a stale session before wasting a round trip.
func InspectAccessToken(tokenString string) (*AccessTokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decoding jwt: %w", err)
	}
	return claims, nil
}

// ExpiredAt reports whether the claims are expired at the given instant.
// Tokens without an expiry claim are treated as live; the backend is the
// authority either way.
func (c *AccessTokenClaims) ExpiredAt(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// BearerHeader formats the Authorization header value for the token.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
