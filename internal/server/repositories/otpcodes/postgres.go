package otpcodes

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Issue(ctx context.Context, code *models.OTPCode) error {
	query := `
		INSERT INTO otp_codes (email, code, ip_address, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
		    ip_address = EXCLUDED.ip_address,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    used = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, code.Email, code.Code, code.IPAddress, code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	query := `
		UPDATE otp_codes SET used = TRUE
		WHERE email = $1 AND code = $2 AND NOT used AND expires_at > $3
	`
	res, err := r.db.ExecContext(ctx, query, email, code, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at <= $1 OR used`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
