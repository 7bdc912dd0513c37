package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

func (t *pgTx) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (seat_id, actor_id, booked_at)
		VALUES ($1, $2, $3)
		RETURNING id`, booking.SeatID, booking.ActorID, booking.BookedAt).
		Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("create booking for seat %d: %w", booking.SeatID, mapPGError(err))
	}
	return nil
}

func (s *PGStore) GetBookingBySeat(ctx context.Context, seatID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := s.db.QueryRow(ctx, `SELECT id, seat_id, actor_id, booked_at FROM bookings WHERE seat_id=$1`, seatID).
		Scan(&b.ID, &b.SeatID, &b.ActorID, &b.BookedAt)
	if err != nil {
		return nil, fmt.Errorf("get booking for seat %d: %w", seatID, mapPGError(err))
	}
	return &b, nil
}

func (s *PGStore) ListBookingsByActor(ctx context.Context, actorID string) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT id, seat_id, actor_id, booked_at FROM bookings WHERE actor_id=$1 ORDER BY id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.SeatID, &b.ActorID, &b.BookedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// advisoryLockKey encodes (actorID, key) as one text value. The length prefix
// keeps the encoding injective for ids that contain the separator.
func advisoryLockKey(actorID, key string) string {
	return fmt.Sprintf("%d:%s:%s", len(actorID), actorID, key)
}

func (t *pgTx) LockIdempotencyKey(ctx context.Context, actorID, key string, timeout time.Duration) error {
	if err := t.setLockTimeout(ctx, timeout); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, advisoryLockKey(actorID, key)); err != nil {
		return fmt.Errorf("lock idempotency key: %w", mapPGError(err))
	}
	return nil
}

func (t *pgTx) GetIdempotencyRecord(ctx context.Context, actorID, key string) (*domain.IdempotencyRecord, error) {
	rec := domain.IdempotencyRecord{ActorID: actorID, Key: key}
	var payload string
	err := t.tx.QueryRow(ctx, `SELECT response_payload, created_at FROM idempotency_keys WHERE actor_id=$1 AND key=$2`, actorID, key).
		Scan(&payload, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", mapPGError(err))
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (t *pgTx) CreateIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO idempotency_keys (actor_id, key, response_payload, created_at)
		VALUES ($1, $2, $3, $4)`, rec.ActorID, rec.Key, string(rec.Payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create idempotency record: %w", mapPGError(err))
	}
	return nil
}
