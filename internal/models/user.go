package models

import (
	"time"
)

// User roles
const (
	RoleAdopter = "adopter"
	RoleShelter = "shelter"
	RoleAdmin   = "admin"
)

type User struct {
	ID                     string
	Email                  string
	PasswordHash           string
	Name                   string
	Role                   string // "adopter", "shelter", "admin"
	Location               string
	Active                 bool
	EmailVerified          bool
	EmailVerificationToken *string
	PasswordResetToken     *string // SHA-256 hash of the token sent by email
	PasswordResetExpires   *time.Time
	LoginAttempts          int
	LockUntil              *time.Time // Temporary account lock expiration
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsLocked reports whether the account is under a brute-force lock at t.
func (u *User) IsLocked(t time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(t)
}

// Summary returns the subset of user fields safe to embed in other
// resources (pet listings, adoption requests).
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Location: u.Location,
	}
}

// UserSummary is the denormalized view of a user embedded in pets and
// adoption requests.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location,omitempty"`
}
