package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// KioskHandler serves the device-authenticated sign-in and sign-out
// endpoints. The kiosk identity comes from the device key, never from the
// request body.
type KioskHandler struct {
	sessions *service.SessionService
}

// NewKioskHandler constructs handler.
func NewKioskHandler(sessionService *service.SessionService) *KioskHandler {
	return &KioskHandler{sessions: sessionService}
}

// SignIn POST /kiosk/signin.
func (h *KioskHandler) SignIn(c *fiber.Ctx) error {
	kiosk, ok := auth.KioskFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("device credentials required")
	}
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HardwareID == "" {
		return apperrors.NewValidationError("hardware_id required", nil)
	}

	result, err := h.sessions.SignIn(c.Context(), req.HardwareID, kiosk.DeviceID, req.MachineName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSignInResponse(result)})
}

// SignOut POST /kiosk/signout. Signing out while signed out acknowledges
// without error.
func (h *KioskHandler) SignOut(c *fiber.Ctx) error {
	if _, ok := auth.KioskFromContext(c); !ok {
		return apperrors.NewUnauthorized("device credentials required")
	}
	var req dto.SignOutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HardwareID == "" {
		return apperrors.NewValidationError("hardware_id required", nil)
	}

	result, err := h.sessions.SignOut(c.Context(), req.HardwareID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSignOutResponse(result)})
}
