package domain

import "time"

// TaskState enumerates lifecycle states. Transitions are monotonic:
// OPEN -> IN_PROGRESS -> RESOLVED, no reopening.
type TaskState string

const (
	TaskStateOpen       TaskState = "OPEN"
	TaskStateInProgress TaskState = "IN_PROGRESS"
	TaskStateResolved   TaskState = "RESOLVED"
)

// TaskSeverity enumerates urgency.
type TaskSeverity string

const (
	TaskSeverityLow    TaskSeverity = "LOW"
	TaskSeverityMedium TaskSeverity = "MEDIUM"
	TaskSeverityHigh   TaskSeverity = "HIGH"
)

// ValidTaskSeverity reports whether the severity belongs to the closed set.
func ValidTaskSeverity(severity TaskSeverity) bool {
	switch severity {
	case TaskSeverityLow, TaskSeverityMedium, TaskSeverityHigh:
		return true
	}
	return false
}

// Task is a maintenance work item attached to a machine.
type Task struct {
	ID          string
	MachineName string
	Title       string
	Description string
	Severity    TaskSeverity
	State       TaskState
	AssigneeID  *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
	ResolvedBy  *string
}

// TaskChangeType captures what changed in a history entry.
type TaskChangeType string

const (
	TaskChangeState    TaskChangeType = "STATE_CHANGE"
	TaskChangeFields   TaskChangeType = "FIELDS_CHANGE"
	TaskChangeAssignee TaskChangeType = "ASSIGNEE_CHANGE"
)

// TaskHistory is an immutable audit trail entry. History is retained after
// a task resolves.
type TaskHistory struct {
	ID         string
	TaskID     string
	ActorID    *string
	ChangeType TaskChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}

var taskTransitions = map[TaskState][]TaskState{
	TaskStateOpen:       {TaskStateInProgress, TaskStateResolved},
	TaskStateInProgress: {TaskStateResolved},
	TaskStateResolved:   {},
}

// ValidTaskTransition reports whether current may move to next.
func ValidTaskTransition(current, next TaskState) bool {
	for _, candidate := range taskTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
