// Package resettokens stores password-reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.ResetToken) error

	// InvalidateForEmail marks every unused token of email as used at now.
	InvalidateForEmail(ctx context.Context, email string, now time.Time) (int64, error)

	// Consume marks token used when it is unused and unexpired and returns
	// its email. Otherwise it returns common.ErrorNotFound.
	Consume(ctx context.Context, token string, now time.Time) (string, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
