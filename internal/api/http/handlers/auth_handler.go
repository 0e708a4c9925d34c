package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/pkg/util/validation"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validation.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: authService, validate: v}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}

// ChangePassword handles PUT /api/me/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateUser handles POST /api/users.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.auth.CreateUser(c.UserContext(), principal.Actor(), service.AccountInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func sessionResponse(s *service.Session) fiber.Map {
	return fiber.Map{
		"user": dto.NewUserResponse(s.User),
		"auth": dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}
