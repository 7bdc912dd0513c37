package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

func (t *sqliteTx) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	res, err := t.tx.ExecContext(ctx, `INSERT INTO bookings (seat_id, actor_id, booked_at) VALUES (?, ?, ?)`,
		booking.SeatID, booking.ActorID, booking.BookedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("create booking for seat %d: %w", booking.SeatID, mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create booking for seat %d: %w", booking.SeatID, err)
	}
	booking.ID = id
	return nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b        domain.Booking
		bookedAt int64
	)
	if err := row.Scan(&b.ID, &b.SeatID, &b.ActorID, &bookedAt); err != nil {
		return nil, err
	}
	b.BookedAt = time.Unix(0, bookedAt).UTC()
	return &b, nil
}

func (s *Store) GetBookingBySeat(ctx context.Context, seatID int64) (*domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, `SELECT id, seat_id, actor_id, booked_at FROM bookings WHERE seat_id=?`, seatID))
	if err != nil {
		return nil, fmt.Errorf("get booking for seat %d: %w", seatID, mapError(err))
	}
	return b, nil
}

func (s *Store) ListBookingsByActor(ctx context.Context, actorID string) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, seat_id, actor_id, booked_at FROM bookings WHERE actor_id=? ORDER BY id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", mapError(err))
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// LockIdempotencyKey is a no-op: the unit of work already holds the
// database write lock.
func (t *sqliteTx) LockIdempotencyKey(context.Context, string, string, time.Duration) error {
	return nil
}

func (t *sqliteTx) GetIdempotencyRecord(ctx context.Context, actorID, key string) (*domain.IdempotencyRecord, error) {
	var (
		payload   string
		createdAt int64
	)
	err := t.tx.QueryRowContext(ctx, `SELECT response_payload, created_at FROM idempotency_keys WHERE actor_id=? AND key=?`, actorID, key).
		Scan(&payload, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get idempotency record: %w", mapError(err))
	}
	return &domain.IdempotencyRecord{
		ActorID:   actorID,
		Key:       key,
		Payload:   []byte(payload),
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}, nil
}

func (t *sqliteTx) CreateIdempotencyRecord(ctx context.Context, rec *domain.IdempotencyRecord) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO idempotency_keys (actor_id, key, response_payload, created_at) VALUES (?, ?, ?, ?)`,
		rec.ActorID, rec.Key, string(rec.Payload), rec.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("create idempotency record: %w", mapError(err))
	}
	return nil
}

func (s *Store) CreateActor(ctx context.Context, actor *domain.Actor) error {
	if actor.CreatedAt.IsZero() {
		actor.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO actors (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		actor.ID, actor.Name, actor.Email, actor.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create actor %s: %w", actor.ID, mapError(err))
	}
	return nil
}

func (s *Store) ActorExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM actors WHERE id=?`, id).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check actor %s: %w", id, mapError(err))
	}
	return true, nil
}
