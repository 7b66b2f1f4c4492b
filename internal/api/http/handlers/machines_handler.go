package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
	"github.com/spec-kit/makerspace-admin/pkg/util/retry"
)

// MachinesHandler manages the equipment registry endpoints.
type MachinesHandler struct {
	service *service.MachineService
}

// NewMachinesHandler constructs handler.
func NewMachinesHandler(machineService *service.MachineService) *MachinesHandler {
	return &MachinesHandler{service: machineService}
}

// Create POST /machines.
func (h *MachinesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateMachineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	machine, err := h.service.Create(c.Context(), &domain.Machine{
		Name:        req.Name,
		Type:        req.Type,
		DisplayName: req.DisplayName,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewMachineResponse(&domain.MachineWithStatus{
			Machine: *machine,
			Status:  domain.MachineStatusOK,
		}),
	})
}

// List GET /machines. Status and open-task counts are derived on this path.
func (h *MachinesHandler) List(c *fiber.Ctx) error {
	var machines []domain.MachineWithStatus
	err := retry.Do(c.UserContext(), retry.DefaultConfig(), func(ctx context.Context) error {
		var listErr error
		machines, listErr = h.service.ListWithStatus(ctx)
		return listErr
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMachineResponses(machines)})
}

// Delete DELETE /machines/:name. Refused while non-resolved tasks reference
// the machine.
func (h *MachinesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
