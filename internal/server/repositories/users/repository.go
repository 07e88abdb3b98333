// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/models"
)

// Repository persists user accounts. Emails passed in must already be
// normalised. Lookups of absent rows return common.ErrorNotFound.
type Repository interface {
	// Create inserts user and fills in its ID when empty. A taken email
	// yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	SetPassword(ctx context.Context, id string, passwordHash string, now time.Time) error
	// SetVerified marks the user verified and active.
	SetVerified(ctx context.Context, id string, now time.Time) error
	SetActive(ctx context.Context, id string, active bool, now time.Time) error
	TouchLastLogin(ctx context.Context, id string, now time.Time) error
}
