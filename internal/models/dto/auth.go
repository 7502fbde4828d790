package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/loft-be/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SetDefaultCurrencyRequest is the body of PUT /api/currencies.
type SetDefaultCurrencyRequest struct {
	ID *uuid.UUID `json:"id"`
}

type IDResponse struct {
	ID uuid.UUID `json:"id"`
}
