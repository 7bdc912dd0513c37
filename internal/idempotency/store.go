// Package idempotency persists the first committed confirmation result for an
// (actor, key) pair so that repeated submissions replay it.
//
// Records live in the same unit of work as the booking they describe, so a
// record exists if and only if its booking was committed.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

// Result is the serialized response of a successful confirmation.
type Result struct {
	BookingID int64     `json:"booking_id"`
	SeatID    int64     `json:"seat_id"`
	ActorID   string    `json:"actor_id"`
	BookedAt  time.Time `json:"booked_at"`
}

func resultFromBooking(b *domain.Booking) Result {
	return Result{BookingID: b.ID, SeatID: b.SeatID, ActorID: b.ActorID, BookedAt: b.BookedAt}
}

func (r Result) Booking() *domain.Booking {
	return &domain.Booking{ID: r.BookingID, SeatID: r.SeatID, ActorID: r.ActorID, BookedAt: r.BookedAt}
}

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Lock serializes units of work using the same (actorID, key) until tx ends.
func (s *Store) Lock(ctx context.Context, tx repository.Tx, actorID, key string, timeout time.Duration) error {
	return tx.LockIdempotencyKey(ctx, actorID, key, timeout)
}

// Lookup returns the booking recorded for (actorID, key). found is false when
// the key has not been used by this actor.
func (s *Store) Lookup(ctx context.Context, tx repository.Tx, actorID, key string) (*domain.Booking, bool, error) {
	rec, err := tx.GetIdempotencyRecord(ctx, actorID, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var res Result
	if err := json.Unmarshal(rec.Payload, &res); err != nil {
		return nil, false, fmt.Errorf("decode idempotency record %s/%s: %w", actorID, key, err)
	}
	return res.Booking(), true, nil
}

// Save records booking as the result of (actorID, key). A record is never
// overwritten; a second save for the same pair fails with repository.ErrDuplicate.
func (s *Store) Save(ctx context.Context, tx repository.Tx, actorID, key string, booking *domain.Booking, now time.Time) error {
	payload, err := json.Marshal(resultFromBooking(booking))
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	return tx.CreateIdempotencyRecord(ctx, &domain.IdempotencyRecord{
		ActorID:   actorID,
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
	})
}
