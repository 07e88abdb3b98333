// Package otpcodes stores the one-time verification codes, at most one per
// email address.
package otpcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

type Repository interface {
	// Issue stores code as the only code for its email, replacing any
	// previous one in the same statement.
	Issue(ctx context.Context, code *models.OTPCode) error

	// Consume marks the code used if it matches, is unused and has not
	// expired at now. It reports whether this call won the code.
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)

	// DeleteExpired removes expired or used rows and returns how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
