package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// VisitorRepository defines persistence access for visitors. There is no
// delete operation: visitors are never removed once enrolled.
type VisitorRepository interface {
	// Create is idempotent on hardware id: a second create returns the
	// stored record untouched.
	Create(ctx context.Context, visitor *domain.Visitor) (*domain.Visitor, error)
	GetByHardwareID(ctx context.Context, hardwareID string) (*domain.Visitor, error)
	List(ctx context.Context) ([]domain.Visitor, error)
	UpdateCredential(ctx context.Context, hardwareID string, passwordHash *string) error
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

// NewVisitorRepository returns a Postgres-backed implementation.
func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

func (r *visitorRepository) Create(ctx context.Context, visitor *domain.Visitor) (*domain.Visitor, error) {
	const query = `
        INSERT INTO visitors (hardware_id, display_name, email, password_hash)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (hardware_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query,
		visitor.HardwareID,
		visitor.DisplayName,
		visitor.Email,
		visitor.PasswordHash,
	); err != nil {
		return nil, err
	}
	return r.GetByHardwareID(ctx, visitor.HardwareID)
}

func (r *visitorRepository) GetByHardwareID(ctx context.Context, hardwareID string) (*domain.Visitor, error) {
	const query = `
        SELECT hardware_id, display_name, email, password_hash, registered_at
        FROM visitors WHERE hardware_id=$1`

	var visitor domain.Visitor
	if err := r.pool.QueryRow(ctx, query, hardwareID).Scan(
		&visitor.HardwareID,
		&visitor.DisplayName,
		&visitor.Email,
		&visitor.PasswordHash,
		&visitor.RegisteredAt,
	); err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *visitorRepository) List(ctx context.Context) ([]domain.Visitor, error) {
	const query = `
        SELECT hardware_id, display_name, email, password_hash, registered_at
        FROM visitors ORDER BY registered_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Visitor
	for rows.Next() {
		var visitor domain.Visitor
		if err := rows.Scan(
			&visitor.HardwareID,
			&visitor.DisplayName,
			&visitor.Email,
			&visitor.PasswordHash,
			&visitor.RegisteredAt,
		); err != nil {
			return nil, err
		}
		result = append(result, visitor)
	}
	return result, rows.Err()
}

func (r *visitorRepository) UpdateCredential(ctx context.Context, hardwareID string, passwordHash *string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE visitors SET password_hash=$1 WHERE hardware_id=$2`, passwordHash, hardwareID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
