package dto

import "github.com/spec-kit/makerspace-admin/internal/service"

// SignInRequest is submitted by a kiosk after a badge scan.
type SignInRequest struct {
	HardwareID  string  `json:"hardware_id"`
	MachineName *string `json:"machine_name"`
}

// SignOutRequest is submitted by a kiosk when a visitor leaves.
type SignOutRequest struct {
	HardwareID string `json:"hardware_id"`
}

// SignInResponse acknowledges a sign-in with the server-stamped visit.
type SignInResponse struct {
	Visit       VisitResponse `json:"visit"`
	AutoClosed  bool          `json:"auto_closed"`
	Provisioned bool          `json:"provisioned"`
}

// NewSignInResponse maps the service result.
func NewSignInResponse(result *service.SignInResult) SignInResponse {
	return SignInResponse{
		Visit:       NewVisitResponse(result.Visit),
		AutoClosed:  result.AutoClosed,
		Provisioned: result.Provisioned,
	}
}

// SignOutResponse acknowledges a sign-out. SignedIn=false means the visitor
// had no open visit and nothing changed.
type SignOutResponse struct {
	SignedIn bool           `json:"signed_in"`
	Visit    *VisitResponse `json:"visit,omitempty"`
}

// NewSignOutResponse maps the service result.
func NewSignOutResponse(result *service.SignOutResult) SignOutResponse {
	resp := SignOutResponse{SignedIn: result.SignedIn}
	if result.Visit != nil {
		visit := NewVisitResponse(result.Visit)
		resp.Visit = &visit
	}
	return resp
}
