package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newCooldown(window time.Duration) (*Memory, *manualClock) {
	clk := &manualClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewCooldown(window)
	m.now = clk.Now
	return m, clk
}

func TestCooldown_OnePerWindow(t *testing.T) {
	m, clk := newCooldown(time.Minute)
	ctx := context.Background()
	key := SendCodeKey("ann@example.com")

	ok, err := m.TryAcquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.TryAcquire(ctx, key)
	assert.False(t, ok, "second call inside window")

	clk.Advance(30 * time.Second)
	ok, _ = m.TryAcquire(ctx, key)
	assert.False(t, ok, "still inside window")

	clk.Advance(31 * time.Second)
	ok, _ = m.TryAcquire(ctx, key)
	assert.True(t, ok, "window elapsed")
}

func TestCooldown_KeysAreIndependent(t *testing.T) {
	m, _ := newCooldown(time.Minute)
	ctx := context.Background()

	a, _ := m.TryAcquire(ctx, SendCodeKey("a@example.com"))
	b, _ := m.TryAcquire(ctx, SendCodeKey("b@example.com"))
	assert.True(t, a)
	assert.True(t, b)
}

func TestCooldown_ConcurrentCallersOneWinner(t *testing.T) {
	m, _ := newCooldown(time.Minute)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.TryAcquire(ctx, "send_code:race@example.com"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemory_Burst(t *testing.T) {
	m := NewMemory(rate.Limit(1), 3, time.Minute)
	clk := &manualClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = clk.Now

	for i := 0; i < 3; i++ {
		ok, _ := m.TryAcquire(context.Background(), "10.0.0.1")
		assert.True(t, ok, "call %d within burst", i)
	}
	ok, _ := m.TryAcquire(context.Background(), "10.0.0.1")
	assert.False(t, ok)
}

func TestMemory_SweepDropsIdleKeys(t *testing.T) {
	m, clk := newCooldown(time.Minute)
	ctx := context.Background()

	_, _ = m.TryAcquire(ctx, "old")
	clk.Advance(45 * time.Second)
	_, _ = m.TryAcquire(ctx, "fresh")
	clk.Advance(30 * time.Second)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	ok, _ := m.TryAcquire(ctx, "old")
	assert.True(t, ok)
}
