package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// VerificationTokenRepository manages one-shot staff invite tokens. Consume
// is a conditional write ("only if consumed is still false") so at most one
// consumer ever wins, regardless of interleaving.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *domain.UserVerificationToken) error
	// Consume returns the token record on the first successful call.
	// Subsequent calls return ErrTokenConsumed; unknown tokens return
	// pgx.ErrNoRows.
	Consume(ctx context.Context, token string) (*domain.UserVerificationToken, error)
}

type verificationTokenRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationTokenRepository constructs repository.
func NewVerificationTokenRepository(pool *pgxpool.Pool) VerificationTokenRepository {
	return &verificationTokenRepository{pool: pool}
}

func (r *verificationTokenRepository) Create(ctx context.Context, token *domain.UserVerificationToken) error {
	const query = `
        INSERT INTO user_verification_tokens (token, target_email, role)
        VALUES ($1, $2, $3)
        RETURNING issued_at`

	return r.pool.QueryRow(ctx, query,
		token.Token,
		token.TargetEmail,
		token.Role,
	).Scan(&token.IssuedAt)
}

func (r *verificationTokenRepository) Consume(ctx context.Context, tokenStr string) (*domain.UserVerificationToken, error) {
	const query = `
        UPDATE user_verification_tokens SET consumed=TRUE, consumed_at=NOW()
        WHERE token=$1 AND consumed=FALSE
        RETURNING token, target_email, role, issued_at, consumed, consumed_at`

	var token domain.UserVerificationToken
	err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.Token,
		&token.TargetEmail,
		&token.Role,
		&token.IssuedAt,
		&token.Consumed,
		&token.ConsumedAt,
	)
	if err == nil {
		return &token, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// The conditional update matched nothing: either the token never
	// existed or somebody already spent it.
	const exists = `SELECT consumed FROM user_verification_tokens WHERE token=$1`
	var consumed bool
	if lookupErr := r.pool.QueryRow(ctx, exists, tokenStr).Scan(&consumed); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrTokenConsumed
}
