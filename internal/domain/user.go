package domain

import "time"

// StaffRole enumerates back-office operator roles.
type StaffRole string

const (
	StaffRoleViewer     StaffRole = "VIEWER"
	StaffRoleMaintainer StaffRole = "MAINTAINER"
	StaffRoleAdmin      StaffRole = "ADMIN"
)

// ValidStaffRole reports whether the role belongs to the closed set.
func ValidStaffRole(role StaffRole) bool {
	switch role {
	case StaffRoleViewer, StaffRoleMaintainer, StaffRoleAdmin:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for a staff account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

// User models a staff member of the makerspace back office. Every active
// user corresponds to exactly one credential in the staff pool.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         StaffRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserVerificationToken gates staff self-registration. Consumable at most once.
type UserVerificationToken struct {
	Token       string
	TargetEmail string
	Role        StaffRole
	IssuedAt    time.Time
	Consumed    bool
	ConsumedAt  *time.Time
}
