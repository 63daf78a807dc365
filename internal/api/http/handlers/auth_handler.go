package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/selfservice/internal/api/dto"
	"github.com/spec-kit/selfservice/internal/auth"
	"github.com/spec-kit/selfservice/internal/domain"
	"github.com/spec-kit/selfservice/internal/service"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewSessionResponse(session),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.NewSessionResponse(session),
	})
}

// UpdateUser handles PUT /auth/users/:id. The caller must be the account
// owner or an admin.
func (h *AuthHandler) UpdateUser(c *fiber.Ctx) error {
	userID := c.Params("id")

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.User.ID != userID && !principal.HasRole(domain.RoleAdmin) {
		return apperrors.NewForbidden("cannot update another account")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.UpdateUser(c.UserContext(), userID, req.Name, req.Email, req.NewPassword)
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.NewSessionResponse(session),
	})
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFound("user", nil)
	default:
		return err
	}
}
