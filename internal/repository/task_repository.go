package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// TaskFilter captures listing parameters.
type TaskFilter struct {
	MachineName *string
	States      []domain.TaskState
	Severities  []domain.TaskSeverity
	AssigneeID  *string
}

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// Resolve stamps the resolution fields only when the task is not
	// already resolved; the condition keeps the transition monotonic under
	// concurrent resolvers.
	Resolve(ctx context.Context, task *domain.Task) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, machine_name, title, description, severity, state,
               assignee_id, created_by, created_at, updated_at, resolved_at, resolved_by`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (id, machine_name, title, description, severity, state, assignee_id, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		task.ID,
		task.MachineName,
		task.Title,
		task.Description,
		task.Severity,
		task.State,
		task.AssigneeID,
		task.CreatedBy,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, severity=$3, state=$4, assignee_id=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Severity,
		task.State,
		task.AssigneeID,
		task.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) Resolve(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET state='RESOLVED', resolved_at=$1, resolved_by=$2, updated_at=NOW()
        WHERE id=$3 AND state <> 'RESOLVED'`

	cmd, err := r.pool.Exec(ctx, query, task.ResolvedAt, task.ResolvedBy, task.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	task.State = domain.TaskStateResolved
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id=$1`, taskColumns)

	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.MachineName,
		&task.Title,
		&task.Description,
		&task.Severity,
		&task.State,
		&task.AssigneeID,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.ResolvedAt,
		&task.ResolvedBy,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.MachineName != nil {
		args = append(args, *filter.MachineName)
		clauses = append(clauses, fmt.Sprintf("machine_name=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Severities) > 0 {
		placeholders := make([]string, len(filter.Severities))
		for i, severity := range filter.Severities {
			args = append(args, severity)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("severity IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY created_at`,
		taskColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.MachineName,
			&task.Title,
			&task.Description,
			&task.Severity,
			&task.State,
			&task.AssigneeID,
			&task.CreatedBy,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.ResolvedAt,
			&task.ResolvedBy,
		); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}
