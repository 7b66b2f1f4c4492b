package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// VisitWindow bounds a visit listing to [Since, Until].
type VisitWindow struct {
	Since *time.Time
	Until *time.Time
}

// VisitRepository encapsulates visit persistence. A partial unique index on
// (visitor_id) WHERE sign_out_time IS NULL enforces the single-open-visit
// invariant at write time; concurrent appends for the same visitor lose with
// ErrOpenVisitExists.
type VisitRepository interface {
	Append(ctx context.Context, visit *domain.Visit) error
	CloseOpenVisit(ctx context.Context, visitorID string, signOutTime time.Time) (*domain.Visit, error)
	GetOpenVisit(ctx context.Context, visitorID string) (*domain.Visit, error)
	ListForVisitor(ctx context.Context, visitorID string, window VisitWindow) ([]domain.Visit, error)
	ListAll(ctx context.Context, window VisitWindow) ([]domain.Visit, error)
	DeleteForVisitor(ctx context.Context, visitorID string) error
}

type visitRepository struct {
	pool *pgxpool.Pool
}

// NewVisitRepository instantiates repository.
func NewVisitRepository(pool *pgxpool.Pool) VisitRepository {
	return &visitRepository{pool: pool}
}

func (r *visitRepository) Append(ctx context.Context, visit *domain.Visit) error {
	const query = `
        INSERT INTO visits (visitor_id, sign_in_time, kiosk_id, machine_name)
        VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		visit.VisitorID,
		visit.SignInTime,
		visit.KioskID,
		visit.MachineName,
	)
	if isUniqueViolation(err) {
		return ErrOpenVisitExists
	}
	return err
}

func (r *visitRepository) CloseOpenVisit(ctx context.Context, visitorID string, signOutTime time.Time) (*domain.Visit, error) {
	const query = `
        UPDATE visits SET sign_out_time=$2
        WHERE visitor_id=$1 AND sign_out_time IS NULL
        RETURNING visitor_id, sign_in_time, sign_out_time, kiosk_id, machine_name`

	var visit domain.Visit
	if err := r.pool.QueryRow(ctx, query, visitorID, signOutTime).Scan(
		&visit.VisitorID,
		&visit.SignInTime,
		&visit.SignOutTime,
		&visit.KioskID,
		&visit.MachineName,
	); err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) GetOpenVisit(ctx context.Context, visitorID string) (*domain.Visit, error) {
	const query = `
        SELECT visitor_id, sign_in_time, sign_out_time, kiosk_id, machine_name
        FROM visits WHERE visitor_id=$1 AND sign_out_time IS NULL`

	var visit domain.Visit
	if err := r.pool.QueryRow(ctx, query, visitorID).Scan(
		&visit.VisitorID,
		&visit.SignInTime,
		&visit.SignOutTime,
		&visit.KioskID,
		&visit.MachineName,
	); err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) ListForVisitor(ctx context.Context, visitorID string, window VisitWindow) ([]domain.Visit, error) {
	clauses := []string{"visitor_id=$1"}
	args := []any{visitorID}
	clauses, args = applyWindow(clauses, args, window)
	return r.list(ctx, clauses, args)
}

func (r *visitRepository) ListAll(ctx context.Context, window VisitWindow) ([]domain.Visit, error) {
	clauses := []string{"1=1"}
	args := []any{}
	clauses, args = applyWindow(clauses, args, window)
	return r.list(ctx, clauses, args)
}

func applyWindow(clauses []string, args []any, window VisitWindow) ([]string, []any) {
	if window.Since != nil {
		args = append(args, *window.Since)
		clauses = append(clauses, fmt.Sprintf("sign_in_time >= $%d", len(args)))
	}
	if window.Until != nil {
		args = append(args, *window.Until)
		clauses = append(clauses, fmt.Sprintf("sign_in_time <= $%d", len(args)))
	}
	return clauses, args
}

func (r *visitRepository) list(ctx context.Context, clauses []string, args []any) ([]domain.Visit, error) {
	query := fmt.Sprintf(`
        SELECT visitor_id, sign_in_time, sign_out_time, kiosk_id, machine_name
        FROM visits WHERE %s ORDER BY sign_in_time`, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVisits(rows)
}

func scanVisits(rows pgx.Rows) ([]domain.Visit, error) {
	var result []domain.Visit
	for rows.Next() {
		var visit domain.Visit
		if err := rows.Scan(
			&visit.VisitorID,
			&visit.SignInTime,
			&visit.SignOutTime,
			&visit.KioskID,
			&visit.MachineName,
		); err != nil {
			return nil, err
		}
		result = append(result, visit)
	}
	return result, rows.Err()
}

func (r *visitRepository) DeleteForVisitor(ctx context.Context, visitorID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE visitor_id=$1`, visitorID)
	return err
}
