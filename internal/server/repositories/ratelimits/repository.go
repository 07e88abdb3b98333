// Package ratelimits stores cooldown windows keyed by an arbitrary string.
package ratelimits

import (
	"context"
	"time"
)

type Repository interface {
	// TryAcquire claims key until now+window unless an unexpired claim
	// already exists. It reports whether the claim was taken.
	TryAcquire(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
