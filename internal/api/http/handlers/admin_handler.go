package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// AdminHandler covers admin-only provisioning: staff invite tokens and
// kiosk device enrollment.
type AdminHandler struct {
	users      *service.UserService
	enrollment *service.EnrollmentService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(userService *service.UserService, enrollmentService *service.EnrollmentService) *AdminHandler {
	return &AdminHandler{users: userService, enrollment: enrollmentService}
}

// IssueToken POST /admin/tokens. Mints a one-shot staff verification token.
func (h *AdminHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Role == "" {
		return apperrors.NewValidationError("email and role required", nil)
	}

	token, err := h.users.IssueVerificationToken(c.Context(), req.Email, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.IssueTokenResponse{
			Token:    token.Token,
			Email:    token.TargetEmail,
			Role:     token.Role,
			IssuedAt: token.IssuedAt,
		},
	})
}

// EnrollDevice POST /admin/devices/:id/enroll. The credential bundle in the
// response is the only copy that will ever exist.
func (h *AdminHandler) EnrollDevice(c *fiber.Ctx) error {
	deviceID := c.Params("id")
	if deviceID == "" {
		return apperrors.NewValidationError("device id required", nil)
	}

	creds, err := h.enrollment.Enroll(c.Context(), deviceID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewDeviceCredentialsResponse(creds)})
}

// DeactivateDevice DELETE /admin/devices/:id. The device key stops working
// immediately; re-enrolling restores the device with fresh credentials.
func (h *AdminHandler) DeactivateDevice(c *fiber.Ctx) error {
	if err := h.enrollment.Deactivate(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListDevices GET /admin/devices.
func (h *AdminHandler) ListDevices(c *fiber.Ctx) error {
	kiosks, err := h.enrollment.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewKioskResponses(kiosks)})
}
