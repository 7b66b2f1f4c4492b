package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// TaskService coordinates the maintenance-task lifecycle. There is no hard
// delete: resolving is the terminal operation, and history persists past it.
type TaskService struct {
	tasks      repository.TaskRepository
	history    repository.TaskHistoryRepository
	machines   repository.MachineRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TaskDependencies bundles repositories for the task service.
type TaskDependencies struct {
	TaskRepo    repository.TaskRepository
	HistoryRepo repository.TaskHistoryRepository
	MachineRepo repository.MachineRepository
	Dispatcher  events.Dispatcher
}

// NewTaskService builds the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		history:    deps.HistoryRepo,
		machines:   deps.MachineRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	MachineName string
	Title       string
	Description string
	Severity    domain.TaskSeverity
	AssigneeID  *string
}

// TaskPatch describes partial task updates. Nil fields are untouched. State
// may only advance OPEN -> IN_PROGRESS here; resolution goes through Resolve.
type TaskPatch struct {
	Title       *string
	Description *string
	Severity    *domain.TaskSeverity
	AssigneeID  *string
	State       *domain.TaskState
}

// Create opens a task against an existing machine.
func (s *TaskService) Create(ctx context.Context, actorID string, input TaskCreateInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.Severity == "" {
		input.Severity = domain.TaskSeverityMedium
	}
	if !domain.ValidTaskSeverity(input.Severity) {
		return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": input.Severity})
	}
	if _, err := s.machines.GetByName(ctx, input.MachineName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("machine", map[string]any{"machine_name": input.MachineName})
		}
		return nil, apperrors.MapError(err)
	}

	task := &domain.Task{
		ID:          uuid.NewString(),
		MachineName: input.MachineName,
		Title:       input.Title,
		Description: input.Description,
		Severity:    input.Severity,
		State:       domain.TaskStateOpen,
		AssigneeID:  input.AssigneeID,
		CreatedBy:   actorID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.record(ctx, task.ID, &actorID, domain.TaskChangeState,
		map[string]any{}, map[string]any{"state": task.State})
	s.publish(ctx, events.Event{
		Type: events.EventTaskCreated,
		Payload: events.TaskPayload{
			TaskID:      task.ID,
			MachineName: task.MachineName,
			Severity:    task.Severity,
			ActorID:     actorID,
		},
	})
	return task, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return task, nil
}

// List returns tasks matching the filter in creation order.
func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}

// History returns the audit trail for a task.
func (s *TaskService) History(ctx context.Context, id string) ([]domain.TaskHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTask(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Patch applies field changes and, at most, the OPEN -> IN_PROGRESS advance.
func (s *TaskService) Patch(ctx context.Context, actorID, id string, patch TaskPatch) (*domain.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.State == domain.TaskStateResolved {
		return nil, apperrors.NewIllegalTransition("task already resolved")
	}

	oldValue := map[string]any{}
	newValue := map[string]any{}

	if patch.State != nil && *patch.State != task.State {
		if *patch.State == domain.TaskStateResolved {
			return nil, apperrors.NewIllegalTransition("use the resolve operation to resolve a task")
		}
		if !domain.ValidTaskTransition(task.State, *patch.State) {
			return nil, apperrors.NewIllegalTransition("task state may only advance")
		}
		oldValue["state"] = task.State
		newValue["state"] = *patch.State
		task.State = *patch.State
	}
	if patch.Title != nil && *patch.Title != task.Title {
		oldValue["title"] = task.Title
		newValue["title"] = *patch.Title
		task.Title = *patch.Title
	}
	if patch.Description != nil && *patch.Description != task.Description {
		oldValue["description"] = task.Description
		newValue["description"] = *patch.Description
		task.Description = *patch.Description
	}
	if patch.Severity != nil && *patch.Severity != task.Severity {
		if !domain.ValidTaskSeverity(*patch.Severity) {
			return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": *patch.Severity})
		}
		oldValue["severity"] = task.Severity
		newValue["severity"] = *patch.Severity
		task.Severity = *patch.Severity
	}
	if patch.AssigneeID != nil {
		oldValue["assignee_id"] = task.AssigneeID
		newValue["assignee_id"] = *patch.AssigneeID
		task.AssigneeID = patch.AssigneeID
	}

	if len(newValue) == 0 {
		return task, nil
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.record(ctx, task.ID, &actorID, domain.TaskChangeFields, oldValue, newValue)
	return task, nil
}

// Resolve terminates a task, stamping who resolved it and when. Resolving an
// already-resolved task is rejected.
func (s *TaskService) Resolve(ctx context.Context, actorID, id string) (*domain.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.State == domain.TaskStateResolved {
		return nil, apperrors.NewIllegalTransition("task already resolved")
	}

	oldState := task.State
	t := s.now()
	task.ResolvedAt = &t
	task.ResolvedBy = &actorID
	if err := s.tasks.Resolve(ctx, task); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race with a concurrent resolver.
			return nil, apperrors.NewIllegalTransition("task already resolved")
		}
		return nil, apperrors.MapError(err)
	}

	s.record(ctx, task.ID, &actorID, domain.TaskChangeState,
		map[string]any{"state": oldState},
		map[string]any{"state": domain.TaskStateResolved})
	s.publish(ctx, events.Event{
		Type: events.EventTaskResolved,
		Payload: events.TaskPayload{
			TaskID:      task.ID,
			MachineName: task.MachineName,
			Severity:    task.Severity,
			ActorID:     actorID,
		},
	})
	return task, nil
}

func (s *TaskService) record(ctx context.Context, taskID string, actorID *string, changeType domain.TaskChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TaskHistory{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		ActorID:    actorID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TaskService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
