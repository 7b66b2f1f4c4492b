package events

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVisitorSignedIn  EventType = "visitor_signed_in"
	EventVisitorSignedOut EventType = "visitor_signed_out"
	EventTaskCreated      EventType = "task_created"
	EventTaskResolved     EventType = "task_resolved"
	EventUserInvited      EventType = "user_invited"
	EventDeviceEnrolled   EventType = "device_enrolled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VisitorSessionPayload accompanies sign-in and sign-out events.
type VisitorSessionPayload struct {
	HardwareID  string  `json:"hardware_id"`
	KioskID     string  `json:"kiosk_id"`
	MachineName *string `json:"machine_name,omitempty"`
	AutoClosed  bool    `json:"auto_closed,omitempty"`
}

// TaskPayload accompanies task lifecycle events.
type TaskPayload struct {
	TaskID      string              `json:"task_id"`
	MachineName string              `json:"machine_name"`
	Severity    domain.TaskSeverity `json:"severity"`
	ActorID     string              `json:"actor_id"`
}

// UserInvitedPayload carries the invite for out-of-band delivery. The token
// itself travels here so the notification path can render the activation link.
type UserInvitedPayload struct {
	Email string           `json:"email"`
	Role  domain.StaffRole `json:"role"`
	Token string           `json:"token"`
}

// DeviceEnrolledPayload accompanies kiosk enrollment.
type DeviceEnrolledPayload struct {
	DeviceID   string `json:"device_id"`
	PolicyName string `json:"policy_name"`
	Rotated    bool   `json:"rotated"`
}
