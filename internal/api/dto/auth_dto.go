package dto

import (
	"time"

	"github.com/spec-kit/selfservice/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest payload for profile updates. NewPassword is optional;
// blank leaves the stored hash untouched.
type UpdateUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword,omitempty"`
}

// SessionResponse echoes the issued token plus identity fields.
type SessionResponse struct {
	Token     string        `json:"token"`
	Type      string        `json:"type"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Roles     []domain.Role `json:"roles"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// NewSessionResponse maps the domain session artifact.
func NewSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		Token:     session.Token,
		Type:      session.Type,
		Email:     session.Email,
		Name:      session.Name,
		Roles:     session.Roles,
		ExpiresAt: session.ExpiresAt,
	}
}
