package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/domain"
)

// Limiter keeps one token bucket per key. Buckets are created on first
// use and live for the lifetime of the process.
type Limiter struct {
	capacity int
	limit    rate.Limit
	buckets  sync.Map
	now      func() time.Time
}

func NewLimiter(cfg config.BucketConfig, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	capacity := cfg.Capacity
	if capacity < 1 {
		capacity = 1
	}
	limit := rate.Limit(0)
	if cfg.RefillInterval > 0 && cfg.RefillTokens > 0 {
		limit = rate.Limit(float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds())
	}
	return &Limiter{capacity: capacity, limit: limit, now: now}
}

// TryConsume takes one token from key's bucket and reports whether one was available.
func (l *Limiter) TryConsume(key string) bool {
	return l.bucket(key).AllowN(l.now(), 1)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	if b, ok := l.buckets.Load(key); ok {
		return b.(*rate.Limiter)
	}
	b, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(l.limit, l.capacity))
	return b.(*rate.Limiter)
}

// Admission applies the independent actor, seat and event gates.
type Admission struct {
	users  *Limiter
	seats  *Limiter
	events *Limiter
}

func NewAdmission(cfg config.RateLimitConfig, now func() time.Time) *Admission {
	return &Admission{
		users:  NewLimiter(cfg.User, now),
		seats:  NewLimiter(cfg.Seat, now),
		events: NewLimiter(cfg.Event, now),
	}
}

func (a *Admission) CheckUser(actorID string) error {
	if !a.users.TryConsume(actorID) {
		return domain.NewError(domain.KindRateLimited, "too many requests for user: %s", actorID)
	}
	return nil
}

func (a *Admission) CheckSeat(seatID int64) error {
	if !a.seats.TryConsume(strconv.FormatInt(seatID, 10)) {
		return domain.NewError(domain.KindRateLimited, "too many requests for seat: %d", seatID)
	}
	return nil
}

func (a *Admission) CheckEvent(eventID string) error {
	if !a.events.TryConsume(eventID) {
		return domain.NewError(domain.KindRateLimited, "too many requests for event: %s", eventID)
	}
	return nil
}
