package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the JWT claims carried by access and refresh
// tokens. Role is embedded so handlers can authorize without a user
// lookup; RequireRole re-checks against the database for role changes.
type TokenClaims struct {
	Type   string `json:"type"` // "access" or "refresh"
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
