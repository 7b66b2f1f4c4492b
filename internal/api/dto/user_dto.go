package dto

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// UserResponse is the stored staff representation returned by the API.
type UserResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Role      domain.StaffRole  `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewUserResponse maps the domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UserPatchRequest payload. Absent fields are untouched.
type UserPatchRequest struct {
	FirstName *string            `json:"first_name"`
	LastName  *string            `json:"last_name"`
	Role      *domain.StaffRole  `json:"role"`
	Status    *domain.UserStatus `json:"status"`
}

// IssueTokenRequest payload for the staff invite flow.
type IssueTokenRequest struct {
	Email string           `json:"email"`
	Role  domain.StaffRole `json:"role"`
}

// IssueTokenResponse returns the minted verification token for out-of-band
// delivery.
type IssueTokenResponse struct {
	Token    string           `json:"token"`
	Email    string           `json:"email"`
	Role     domain.StaffRole `json:"role"`
	IssuedAt time.Time        `json:"issued_at"`
}
