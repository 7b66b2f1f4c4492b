package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by repositories so services can map them onto the
// API error taxonomy without leaking storage details.
var (
	ErrDuplicate       = errors.New("duplicate key")
	ErrMachineInUse    = errors.New("machine has open tasks")
	ErrTokenConsumed   = errors.New("token already consumed")
	ErrOpenVisitExists = errors.New("visitor already has an open visit")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
