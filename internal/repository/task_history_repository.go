package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// TaskHistoryRepository manages the immutable task audit trail.
type TaskHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TaskHistory) error
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error)
}

type taskHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTaskHistoryRepository constructs repository.
func NewTaskHistoryRepository(pool *pgxpool.Pool) TaskHistoryRepository {
	return &taskHistoryRepository{pool: pool}
}

func (r *taskHistoryRepository) Create(ctx context.Context, entry *domain.TaskHistory) error {
	oldValue, err := json.Marshal(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := json.Marshal(entry.NewValue)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO task_history (id, task_id, actor_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.ActorID,
		entry.ChangeType,
		oldValue,
		newValue,
	).Scan(&entry.CreatedAt)
}

func (r *taskHistoryRepository) ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistory, error) {
	const query = `
        SELECT id, task_id, actor_id, change_type, old_value, new_value, created_at
        FROM task_history WHERE task_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TaskHistory
	for rows.Next() {
		var entry domain.TaskHistory
		var oldValue, newValue []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.ActorID,
			&entry.ChangeType,
			&oldValue,
			&newValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(oldValue, &entry.OldValue); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(newValue, &entry.NewValue); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
