package dto

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// CreateTaskRequest payload. Severity defaults to MEDIUM when empty.
type CreateTaskRequest struct {
	MachineName string              `json:"machine_name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Severity    domain.TaskSeverity `json:"severity"`
}

// PatchTaskRequest carries partial updates. Nil fields are left untouched.
type PatchTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Severity    *domain.TaskSeverity `json:"severity"`
	State       *domain.TaskState    `json:"state"`
	AssigneeID  *string              `json:"assignee_id"`
}

// TaskResponse is the rendered work item.
type TaskResponse struct {
	ID          string              `json:"id"`
	MachineName string              `json:"machine_name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Severity    domain.TaskSeverity `json:"severity"`
	State       domain.TaskState    `json:"state"`
	AssigneeID  *string             `json:"assignee_id,omitempty"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
	ResolvedBy  *string             `json:"resolved_by,omitempty"`
}

// NewTaskResponse maps the domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		MachineName: task.MachineName,
		Title:       task.Title,
		Description: task.Description,
		Severity:    task.Severity,
		State:       task.State,
		AssigneeID:  task.AssigneeID,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		ResolvedAt:  task.ResolvedAt,
		ResolvedBy:  task.ResolvedBy,
	}
}

// NewTaskResponses maps a slice of tasks, preserving order.
func NewTaskResponses(tasks []domain.Task) []TaskResponse {
	result := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, NewTaskResponse(&tasks[i]))
	}
	return result
}

// TaskHistoryResponse is one audit trail entry.
type TaskHistoryResponse struct {
	ID         string                `json:"id"`
	TaskID     string                `json:"task_id"`
	ActorID    *string               `json:"actor_id,omitempty"`
	ChangeType domain.TaskChangeType `json:"change_type"`
	OldValue   map[string]any        `json:"old_value,omitempty"`
	NewValue   map[string]any        `json:"new_value,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// NewTaskHistoryResponses maps a slice of history entries, preserving order.
func NewTaskHistoryResponses(entries []domain.TaskHistory) []TaskHistoryResponse {
	result := make([]TaskHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, TaskHistoryResponse{
			ID:         entry.ID,
			TaskID:     entry.TaskID,
			ActorID:    entry.ActorID,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return result
}
