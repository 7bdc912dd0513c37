package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_ExhaustAndRefill(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config.BucketConfig{Capacity: 3, RefillTokens: 3, RefillInterval: time.Minute}, clock.Now)

	for i := 0; i < 3; i++ {
		assert.True(t, l.TryConsume("user-1"), "token %d", i)
	}
	assert.False(t, l.TryConsume("user-1"))

	// other keys have their own bucket
	assert.True(t, l.TryConsume("user-2"))

	clock.Advance(21 * time.Second)
	assert.True(t, l.TryConsume("user-1"))
	assert.False(t, l.TryConsume("user-1"))

	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.TryConsume("user-1"))
	}
	assert.False(t, l.TryConsume("user-1"), "refill never exceeds capacity")
}

func TestLimiter_Concurrent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config.BucketConfig{Capacity: 10, RefillTokens: 1, RefillInterval: time.Hour}, clock.Now)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryConsume("seat-1") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestAdmission(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	one := config.BucketConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute}
	a := NewAdmission(config.RateLimitConfig{User: one, Seat: one, Event: one}, clock.Now)

	require.NoError(t, a.CheckUser("user-1"))
	require.NoError(t, a.CheckSeat(1))
	require.NoError(t, a.CheckEvent("event-1"))

	assert.True(t, domain.IsKind(a.CheckUser("user-1"), domain.KindRateLimited))
	assert.True(t, domain.IsKind(a.CheckSeat(1), domain.KindRateLimited))
	assert.True(t, domain.IsKind(a.CheckEvent("event-1"), domain.KindRateLimited))

	// dimensions do not share buckets even when keys collide
	a = NewAdmission(config.RateLimitConfig{User: one, Seat: one, Event: one}, clock.Now)
	require.NoError(t, a.CheckUser("1"))
	require.NoError(t, a.CheckSeat(1))
	require.NoError(t, a.CheckEvent("1"))
}
