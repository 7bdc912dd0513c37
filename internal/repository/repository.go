package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrLockTimeout = errors.New("lock wait timeout")
	ErrDuplicate   = errors.New("duplicate key")
)

// Tx is one unit of work. Everything written through a Tx commits or rolls
// back together, and row locks taken through it are held until it ends.
type Tx interface {
	// GetSeatForUpdate loads the seat and holds an exclusive lock on it,
	// waiting at most timeout. It returns ErrLockTimeout when the wait is exceeded.
	GetSeatForUpdate(ctx context.Context, seatID int64, timeout time.Duration) (*domain.Seat, error)
	UpdateSeat(ctx context.Context, seat *domain.Seat) error
	// ExpiredHeldSeatsForUpdate locks up to limit HELD seats whose hold ended before now.
	ExpiredHeldSeatsForUpdate(ctx context.Context, now time.Time, limit int) ([]domain.Seat, error)

	CreateBooking(ctx context.Context, booking *domain.Booking) error

	// LockIdempotencyKey serializes units of work that use the same (actorID, key).
	LockIdempotencyKey(ctx context.Context, actorID, key string, timeout time.Duration) error
	GetIdempotencyRecord(ctx context.Context, actorID, key string) (*domain.IdempotencyRecord, error)
	CreateIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error
}

// Store is the durable store shared by the workflows.
type Store interface {
	// InTx runs fn in a unit of work. The work commits when fn returns nil
	// and rolls back otherwise; fn's error is returned unchanged.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateSeat(ctx context.Context, seat *domain.Seat) error
	GetSeat(ctx context.Context, id int64) (*domain.Seat, error)
	ListSeats(ctx context.Context, eventID string) ([]domain.Seat, error)

	GetBookingBySeat(ctx context.Context, seatID int64) (*domain.Booking, error)
	ListBookingsByActor(ctx context.Context, actorID string) ([]domain.Booking, error)

	CreateActor(ctx context.Context, actor *domain.Actor) error
	ActorExists(ctx context.Context, id string) (bool, error)

	Migrate(ctx context.Context) error
	Close() error
}

// SeatError translates a store failure on seatID into a workflow error.
// Errors that already carry a kind pass through unchanged.
func SeatError(err error, seatID int64) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, ErrNotFound):
		return domain.WrapError(domain.KindNotFound, err, "seat not found with ID: %d", seatID)
	case errors.Is(err, ErrLockTimeout):
		return domain.WrapError(domain.KindLockTimeout, err, "timed out waiting for lock on seat %d", seatID)
	case errors.Is(err, ErrDuplicate):
		return domain.WrapError(domain.KindAlreadyBooked, err, "seat %d is already booked", seatID)
	default:
		return domain.WrapError(domain.KindUnexpected, err, "unexpected store error for seat %d", seatID)
	}
}
