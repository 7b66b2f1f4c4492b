package domain

import "time"

// Visitor is an end-user whose presence is tracked via a badge hardware id.
// Visitors are created on first enrollment and never auto-deleted.
type Visitor struct {
	HardwareID   string
	DisplayName  string
	Email        *string
	PasswordHash *string
	RegisteredAt time.Time
}

// Visit is a time-bounded record of a visitor's presence, keyed by
// (visitor hardware id, sign-in time). An open visit has no sign-out time.
type Visit struct {
	VisitorID   string
	SignInTime  time.Time
	SignOutTime *time.Time
	KioskID     string
	MachineName *string
}

// Open reports whether the visit has not been signed out yet.
func (v Visit) Open() bool {
	return v.SignOutTime == nil
}
