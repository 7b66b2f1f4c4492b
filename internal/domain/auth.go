package domain

import "time"

// SubjectType differentiates staff vs visitor tokens. The two populations
// carry independent credential pools and sign-up flows.
type SubjectType string

const (
	SubjectTypeStaff   SubjectType = "STAFF"
	SubjectTypeVisitor SubjectType = "VISITOR"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *StaffRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
