package dto

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// CreateVisitorRequest payload. Create is idempotent on hardware id.
type CreateVisitorRequest struct {
	HardwareID  string  `json:"hardware_id"`
	DisplayName string  `json:"display_name"`
	Email       *string `json:"email"`
}

// VisitorResponse is the stored visitor representation.
type VisitorResponse struct {
	HardwareID   string    `json:"hardware_id"`
	DisplayName  string    `json:"display_name"`
	Email        *string   `json:"email,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewVisitorResponse maps the domain visitor. Credential material is never
// exposed.
func NewVisitorResponse(visitor *domain.Visitor) VisitorResponse {
	return VisitorResponse{
		HardwareID:   visitor.HardwareID,
		DisplayName:  visitor.DisplayName,
		Email:        visitor.Email,
		RegisteredAt: visitor.RegisteredAt,
	}
}

// VisitResponse renders a visit with epoch-second timestamps, matching what
// kiosk firmware expects.
type VisitResponse struct {
	VisitorID   string  `json:"visitor_id"`
	SignInTime  int64   `json:"sign_in_time"`
	SignOutTime *int64  `json:"sign_out_time,omitempty"`
	KioskID     string  `json:"kiosk_id"`
	MachineName *string `json:"machine_name,omitempty"`
}

// NewVisitResponse maps the domain visit.
func NewVisitResponse(visit *domain.Visit) VisitResponse {
	resp := VisitResponse{
		VisitorID:   visit.VisitorID,
		SignInTime:  visit.SignInTime.Unix(),
		KioskID:     visit.KioskID,
		MachineName: visit.MachineName,
	}
	if visit.SignOutTime != nil {
		out := visit.SignOutTime.Unix()
		resp.SignOutTime = &out
	}
	return resp
}

// NewVisitResponses maps a slice of visits, preserving order.
func NewVisitResponses(visits []domain.Visit) []VisitResponse {
	result := make([]VisitResponse, 0, len(visits))
	for i := range visits {
		result = append(result, NewVisitResponse(&visits[i]))
	}
	return result
}
