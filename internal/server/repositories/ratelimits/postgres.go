package ratelimits

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// TryAcquire is a single conditional upsert: an existing row is only
// overwritten once it has expired, so concurrent callers see exactly one
// affected row between them.
func (r *PostgresRepository) TryAcquire(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	query := `
		INSERT INTO rate_limits (key, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET expires_at = EXCLUDED.expires_at
		WHERE rate_limits.expires_at <= $3
	`
	res, err := r.db.ExecContext(ctx, query, key, now.Add(window), now)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
