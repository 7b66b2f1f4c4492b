package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// MachineRepository encapsulates machine persistence. Delete is guarded in a
// single statement so a task created concurrently cannot slip past the check.
type MachineRepository interface {
	Create(ctx context.Context, machine *domain.Machine) error
	GetByName(ctx context.Context, name string) (*domain.Machine, error)
	ListWithStatus(ctx context.Context) ([]domain.MachineWithStatus, error)
	Delete(ctx context.Context, name string) error
}

type machineRepository struct {
	pool *pgxpool.Pool
}

// NewMachineRepository instantiates repository.
func NewMachineRepository(pool *pgxpool.Pool) MachineRepository {
	return &machineRepository{pool: pool}
}

func (r *machineRepository) Create(ctx context.Context, machine *domain.Machine) error {
	const query = `
        INSERT INTO machines (machine_name, machine_type, display_name, location)
        VALUES ($1, $2, $3, $4)
        RETURNING added_at`

	err := r.pool.QueryRow(ctx, query,
		machine.Name,
		machine.Type,
		machine.DisplayName,
		machine.Location,
	).Scan(&machine.AddedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *machineRepository) GetByName(ctx context.Context, name string) (*domain.Machine, error) {
	const query = `
        SELECT machine_name, machine_type, display_name, location, added_at
        FROM machines WHERE machine_name=$1`

	var machine domain.Machine
	if err := r.pool.QueryRow(ctx, query, name).Scan(
		&machine.Name,
		&machine.Type,
		&machine.DisplayName,
		&machine.Location,
		&machine.AddedAt,
	); err != nil {
		return nil, err
	}
	return &machine, nil
}

func (r *machineRepository) ListWithStatus(ctx context.Context) ([]domain.MachineWithStatus, error) {
	const query = `
        SELECT m.machine_name, m.machine_type, m.display_name, m.location, m.added_at,
               COUNT(t.id) FILTER (WHERE t.state <> 'RESOLVED') AS open_tasks
        FROM machines m
        LEFT JOIN tasks t ON t.machine_name = m.machine_name
        GROUP BY m.machine_name
        ORDER BY m.added_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MachineWithStatus
	for rows.Next() {
		var entry domain.MachineWithStatus
		if err := rows.Scan(
			&entry.Name,
			&entry.Type,
			&entry.DisplayName,
			&entry.Location,
			&entry.AddedAt,
			&entry.OpenTasks,
		); err != nil {
			return nil, err
		}
		entry.Status = domain.MachineStatusOK
		if entry.OpenTasks > 0 {
			entry.Status = domain.MachineStatusAttention
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *machineRepository) Delete(ctx context.Context, name string) error {
	const query = `
        DELETE FROM machines
        WHERE machine_name=$1
          AND NOT EXISTS (
            SELECT 1 FROM tasks WHERE machine_name=$1 AND state <> 'RESOLVED'
          )`

	cmd, err := r.pool.Exec(ctx, query, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByName(ctx, name); err != nil {
		return pgx.ErrNoRows
	}
	return ErrMachineInUse
}
