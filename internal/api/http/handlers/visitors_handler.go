package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
	"github.com/spec-kit/makerspace-admin/pkg/util/retry"
)

// VisitorsHandler manages visitor records and visit listings.
type VisitorsHandler struct {
	service *service.VisitorService
}

// NewVisitorsHandler constructs handler.
func NewVisitorsHandler(visitorService *service.VisitorService) *VisitorsHandler {
	return &VisitorsHandler{service: visitorService}
}

// Create POST /visitors. Idempotent on hardware id.
func (h *VisitorsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateVisitorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HardwareID == "" {
		return apperrors.NewValidationError("hardware_id required", nil)
	}

	visitor, err := h.service.Create(c.Context(), req.HardwareID, req.DisplayName, req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewVisitorResponse(visitor)})
}

// List GET /visitors.
func (h *VisitorsHandler) List(c *fiber.Ctx) error {
	var visitors []domain.Visitor
	err := retry.Do(c.UserContext(), retry.DefaultConfig(), func(ctx context.Context) error {
		var listErr error
		visitors, listErr = h.service.List(ctx)
		return listErr
	})
	if err != nil {
		return err
	}
	items := make([]dto.VisitorResponse, 0, len(visitors))
	for i := range visitors {
		items = append(items, dto.NewVisitorResponse(&visitors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /visitors/:hardware_id.
func (h *VisitorsHandler) Get(c *fiber.Ctx) error {
	visitor, err := h.service.Get(c.Context(), c.Params("hardware_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitorResponse(visitor)})
}

// ListVisits GET /visitors/:hardware_id/visits.
func (h *VisitorsHandler) ListVisits(c *fiber.Ctx) error {
	window := parseVisitWindow(c)
	visits, err := h.service.ListVisits(c.Context(), c.Params("hardware_id"), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitResponses(visits)})
}

// PurgeVisits DELETE /visitors/:hardware_id/visits.
func (h *VisitorsHandler) PurgeVisits(c *fiber.Ctx) error {
	if err := h.service.PurgeVisits(c.Context(), c.Params("hardware_id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAllVisits GET /visits.
func (h *VisitorsHandler) ListAllVisits(c *fiber.Ctx) error {
	window := parseVisitWindow(c)
	var visits []domain.Visit
	err := retry.Do(c.UserContext(), retry.DefaultConfig(), func(ctx context.Context) error {
		var listErr error
		visits, listErr = h.service.ListAllVisits(ctx, window)
		return listErr
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVisitResponses(visits)})
}

// parseVisitWindow reads since/until query params as epoch seconds.
func parseVisitWindow(c *fiber.Ctx) repository.VisitWindow {
	window := repository.VisitWindow{}
	if since := parseEpoch(c.Query("since")); since != nil {
		window.Since = since
	}
	if until := parseEpoch(c.Query("until")); until != nil {
		window.Until = until
	}
	return window
}

func parseEpoch(val string) *time.Time {
	if val == "" {
		return nil
	}
	seconds, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
