package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service. Tokens are
// issued by the platform identity provider; this service only verifies them.
// The console is an internal single-tenant tool, so identity is user + role.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}
