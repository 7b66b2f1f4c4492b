package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// AuthHandler exposes authentication endpoints for both principal pools.
type AuthHandler struct {
	identity *service.IdentityService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identityService *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identityService}
}

// RegisterStaff handles POST /auth/staff/register.
func (h *AuthHandler) RegisterStaff(c *fiber.Ctx) error {
	var req dto.StaffRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Token == "" {
		return apperrors.NewValidationError("email, password, token required", nil)
	}

	user, token, exp, err := h.identity.RegisterStaff(c.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Token)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginStaff handles POST /auth/staff/login.
func (h *AuthHandler) LoginStaff(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.identity.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RegisterVisitor handles POST /auth/visitors/register.
func (h *AuthHandler) RegisterVisitor(c *fiber.Ctx) error {
	var req dto.VisitorRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HardwareID == "" || req.Password == "" {
		return apperrors.NewValidationError("hardware_id and password required", nil)
	}

	visitor, token, exp, err := h.identity.RegisterVisitorAccount(c.Context(), req.HardwareID, req.DisplayName, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"visitor": dto.NewVisitorResponse(visitor),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginVisitor handles POST /auth/visitors/login.
func (h *AuthHandler) LoginVisitor(c *fiber.Ctx) error {
	var req dto.VisitorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HardwareID == "" || req.Password == "" {
		return apperrors.NewValidationError("hardware_id and password required", nil)
	}

	visitor, token, exp, err := h.identity.LoginVisitor(c.Context(), req.HardwareID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"visitor": dto.NewVisitorResponse(visitor),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response never reveals whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	if _, err := h.identity.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "if the email is registered, a reset link has been sent"},
	})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}

	if err := h.identity.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "password updated"},
	})
}

// ChangePassword handles POST /auth/password/change for any authenticated
// principal.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch {
	case principal.User != nil:
		subject.ID = principal.User.ID
	case principal.Visitor != nil:
		subject.ID = principal.Visitor.HardwareID
	default:
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.identity.ChangePassword(c.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "password updated"},
	})
}
