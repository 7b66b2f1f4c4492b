package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetToken represents stored password reset tokens for either pool.
type ResetToken struct {
	ID          string
	SubjectType string
	SubjectID   string
	Token       string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// ResetTokenRepository manages password reset token persistence.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *ResetToken) error
	GetByToken(ctx context.Context, token string) (*ResetToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type resetTokenRepository struct {
	pool *pgxpool.Pool
}

// NewResetTokenRepository constructs repository.
func NewResetTokenRepository(pool *pgxpool.Pool) ResetTokenRepository {
	return &resetTokenRepository{pool: pool}
}

func (r *resetTokenRepository) Create(ctx context.Context, token *ResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (subject_type, subject_id, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		token.SubjectType,
		token.SubjectID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *resetTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*ResetToken, error) {
	const query = `
        SELECT id, subject_type, subject_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var token ResetToken
	if err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.SubjectType,
		&token.SubjectID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *resetTokenRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
