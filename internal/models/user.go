package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Role              Role       `json:"role"`
	PasswordHash      string     `json:"-"`
	EmailVerified     bool       `json:"email_verified"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 6

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return invalid("email", "invalid email")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", "must be at least 6 characters")
	}
	return nil
}
