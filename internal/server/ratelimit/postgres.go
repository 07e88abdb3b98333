package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/ratelimits"
)

// Postgres stores cooldown windows in the rate_limits table so every server
// instance shares them.
type Postgres struct {
	repo   ratelimits.Repository
	window time.Duration
	now    func() time.Time
}

func NewPostgres(repo ratelimits.Repository, window time.Duration) *Postgres {
	return &Postgres{repo: repo, window: window, now: time.Now}
}

func (p *Postgres) TryAcquire(ctx context.Context, key string) (bool, error) {
	return p.repo.TryAcquire(ctx, key, p.now(), p.window)
}
