package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"car-portal/internal/domain"
	"car-portal/internal/middleware"
	"car-portal/internal/service/auth"
)

const resetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type userSummary struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
}

func summarize(u *domain.User) userSummary {
	return userSummary{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, token, err := h.authService.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return middleware.Conflict("Email already registered")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  summarize(user),
		"token": token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, token, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return middleware.Unauthorized("Invalid credentials")
		case errors.Is(err, auth.ErrRoleMismatch):
			return middleware.Forbidden("You are not authorized to login as " + loginTypeOrDefault(input.LoginType))
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":  summarize(user),
		"token": token,
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.authService.RequestPasswordReset(c.Context(), input.Email); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": resetRequestedMessage})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input domain.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.authService.ResetPassword(c.Context(), input); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return middleware.BadRequest("Invalid or expired token")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Password reset successfully"})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return middleware.Unauthorized("User not authenticated")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

func loginTypeOrDefault(role domain.UserRole) string {
	if role == "" {
		return string(domain.RoleUser)
	}
	return string(role)
}
