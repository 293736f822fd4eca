package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/character-service/internal/api/dto"
	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/repository"
	"github.com/spec-kit/character-service/internal/service"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

// UsersHandler exposes account and token endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	fields, err := BindFields(c, dto.CredentialsShape)
	if err != nil {
		return err
	}

	user, token, exp, err := h.auth.RegisterUser(c.UserContext(), fields["email"], fields["password"])
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperrors.NewConflict("Email already registered")
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	fields, err := BindFields(c, dto.CredentialsShape)
	if err != nil {
		return err
	}

	user, token, exp, err := h.auth.LoginUser(c.UserContext(), fields["email"], fields["password"])
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized(apperrors.CodeInvalidCredentials, "Invalid email or password", err)
		}
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout POST /auth/logout revokes the presented token.
func (h *UsersHandler) Logout(ctx context.Context, req *Request) (Result, error) {
	if err := h.auth.Logout(ctx, req.Principal); err != nil {
		return Result{}, err
	}
	return NoContent(), nil
}

// Revoke POST /auth/revoke denies an arbitrary token.
func (h *UsersHandler) Revoke(ctx context.Context, req *Request) (Result, error) {
	if err := h.auth.Revoke(ctx, req.Principal.Identity, req.Fields["token"]); err != nil {
		return Result{}, err
	}
	return NoContent(), nil
}
