package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// KioskRepository records device enrollments. Upsert supersedes a previous
// enrollment for the same device id in one statement, so the old credential
// is invalidated atomically with the new one taking effect.
type KioskRepository interface {
	Upsert(ctx context.Context, kiosk *domain.Kiosk) error
	GetByDeviceID(ctx context.Context, deviceID string) (*domain.Kiosk, error)
	List(ctx context.Context) ([]domain.Kiosk, error)
	Deactivate(ctx context.Context, deviceID string) error
}

type kioskRepository struct {
	pool *pgxpool.Pool
}

// NewKioskRepository constructs repository.
func NewKioskRepository(pool *pgxpool.Pool) KioskRepository {
	return &kioskRepository{pool: pool}
}

func (r *kioskRepository) Upsert(ctx context.Context, kiosk *domain.Kiosk) error {
	const query = `
        INSERT INTO kiosks (device_id, cert_fingerprint, secret_hash, policy_name, active)
        VALUES ($1, $2, $3, $4, TRUE)
        ON CONFLICT (device_id) DO UPDATE SET
            cert_fingerprint = EXCLUDED.cert_fingerprint,
            secret_hash      = EXCLUDED.secret_hash,
            policy_name      = EXCLUDED.policy_name,
            active           = TRUE,
            enrolled_at      = NOW()
        RETURNING enrolled_at`

	return r.pool.QueryRow(ctx, query,
		kiosk.DeviceID,
		kiosk.CertFingerprint,
		kiosk.SecretHash,
		kiosk.PolicyName,
	).Scan(&kiosk.EnrolledAt)
}

func (r *kioskRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Kiosk, error) {
	const query = `
        SELECT device_id, cert_fingerprint, secret_hash, policy_name, enrolled_at, active
        FROM kiosks WHERE device_id=$1`

	var kiosk domain.Kiosk
	if err := r.pool.QueryRow(ctx, query, deviceID).Scan(
		&kiosk.DeviceID,
		&kiosk.CertFingerprint,
		&kiosk.SecretHash,
		&kiosk.PolicyName,
		&kiosk.EnrolledAt,
		&kiosk.Active,
	); err != nil {
		return nil, err
	}
	return &kiosk, nil
}

func (r *kioskRepository) List(ctx context.Context) ([]domain.Kiosk, error) {
	const query = `
        SELECT device_id, cert_fingerprint, secret_hash, policy_name, enrolled_at, active
        FROM kiosks ORDER BY device_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Kiosk
	for rows.Next() {
		var kiosk domain.Kiosk
		if err := rows.Scan(
			&kiosk.DeviceID,
			&kiosk.CertFingerprint,
			&kiosk.SecretHash,
			&kiosk.PolicyName,
			&kiosk.EnrolledAt,
			&kiosk.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, kiosk)
	}
	return result, rows.Err()
}

func (r *kioskRepository) Deactivate(ctx context.Context, deviceID string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE kiosks SET active=FALSE WHERE device_id=$1`, deviceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
