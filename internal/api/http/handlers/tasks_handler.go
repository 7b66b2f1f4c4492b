package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/makerspace-admin/internal/api/dto"
	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	"github.com/spec-kit/makerspace-admin/internal/service"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
	"github.com/spec-kit/makerspace-admin/pkg/util/retry"
)

// TasksHandler manages maintenance task endpoints.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// Create POST /tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("staff credentials required")
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MachineName == "" || req.Title == "" {
		return apperrors.NewValidationError("machine_name and title required", nil)
	}

	task, err := h.service.Create(c.Context(), principal.User.ID, service.TaskCreateInput{
		MachineName: req.MachineName,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// List GET /tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	filter := parseTaskQuery(c)
	var tasks []domain.Task
	err := retry.Do(c.UserContext(), retry.DefaultConfig(), func(ctx context.Context) error {
		var listErr error
		tasks, listErr = h.service.List(ctx, filter)
		return listErr
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// Get GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	task, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// History GET /tasks/:id/history.
func (h *TasksHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskHistoryResponses(entries)})
}

// Patch PATCH /tasks/:id.
func (h *TasksHandler) Patch(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("staff credentials required")
	}
	var req dto.PatchTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	task, err := h.service.Patch(c.Context(), principal.User.ID, c.Params("id"), service.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		AssigneeID:  req.AssigneeID,
		State:       req.State,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// Resolve POST /tasks/:id/resolve. Terminal; resolving twice fails.
func (h *TasksHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("staff credentials required")
	}

	task, err := h.service.Resolve(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

func parseTaskQuery(c *fiber.Ctx) repository.TaskFilter {
	filter := repository.TaskFilter{}
	if machine := c.Query("machine_name"); machine != "" {
		filter.MachineName = &machine
	}
	if stateStr := c.Query("state"); stateStr != "" {
		for _, part := range strings.Split(stateStr, ",") {
			filter.States = append(filter.States, domain.TaskState(strings.TrimSpace(part)))
		}
	}
	if severityStr := c.Query("severity"); severityStr != "" {
		for _, part := range strings.Split(severityStr, ",") {
			filter.Severities = append(filter.Severities, domain.TaskSeverity(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	return filter
}
