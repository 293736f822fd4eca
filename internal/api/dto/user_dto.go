package dto

import (
	"time"

	"github.com/spec-kit/character-service/internal/api/schema"
	"github.com/spec-kit/character-service/internal/domain"
)

// Minimum rune length of account passwords.
const PasswordMinLength = 6

// CredentialsShape validates register and login payloads.
var CredentialsShape = schema.Object(
	schema.Email("email"),
	schema.String("password", PasswordMinLength),
)

// RevokeShape validates administrative revocation payloads.
var RevokeShape = schema.Object(schema.String("token", 1))

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserResponse hides credential material.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}
