package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims mirrors the JWT the marketplace backend mints on login.
// The client never verifies the signature (it holds no secret); it only
// inspects the payload for expiry and identity hints.
type AccessTokenClaims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
