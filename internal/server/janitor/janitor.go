// Package janitor periodically removes expired rows. PostgreSQL has no TTL
// indexes, so codes, reset tokens and rate-limit windows are swept here.
// Reads never depend on the sweep: every query also checks expiry itself.
package janitor

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

// Task deletes whatever expired before now and reports how many rows went.
type Task struct {
	Name  string
	Sweep func(ctx context.Context, now time.Time) (int64, error)
}

type Janitor struct {
	Tasks    []Task
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func New(interval time.Duration, l logging.Logger, tasks ...Task) *Janitor {
	return &Janitor{
		Tasks:    tasks,
		interval: interval,
		logger:   l.With("module", "janitor"),
		now:      time.Now,
	}
}

// RunOnce executes every task and returns the removed row count per task.
// A failing task is logged and does not stop the others.
func (j *Janitor) RunOnce(ctx context.Context) map[string]int64 {
	now := j.now()
	removed := make(map[string]int64, len(j.Tasks))

	for _, t := range j.Tasks {
		n, err := t.Sweep(ctx, now)
		if err != nil {
			j.logger.Error(ctx, "sweep failed", "task", t.Name, "error", err)
			continue
		}
		removed[t.Name] = n
	}

	var total int64
	for _, n := range removed {
		total += n
	}
	if total > 0 {
		args := make([]any, 0, 2*len(removed))
		for name, n := range removed {
			args = append(args, name, n)
		}
		j.logger.Info(ctx, "expired rows removed", args...)
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}
