package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

const seatColumns = `id, event_id, seat_number, status, held_by, hold_expires_at`

func scanSeat(row pgx.Row) (*domain.Seat, error) {
	var (
		s      domain.Seat
		heldBy *string
	)
	if err := row.Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.Status, &heldBy, &s.HoldExpiresAt); err != nil {
		return nil, err
	}
	if heldBy != nil {
		s.HeldBy = *heldBy
	}
	return &s, nil
}

func collectSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()
	seats := make([]domain.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PGStore) CreateSeat(ctx context.Context, seat *domain.Seat) error {
	err := s.db.QueryRow(ctx, `INSERT INTO seats (event_id, seat_number, status, held_by, hold_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, seat.EventID, seat.SeatNumber, seat.Status, nullString(seat.HeldBy), seat.HoldExpiresAt).
		Scan(&seat.ID)
	if err != nil {
		return fmt.Errorf("create seat: %w", mapPGError(err))
	}
	return nil
}

func (s *PGStore) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	seat, err := scanSeat(s.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1`, id))
	if err != nil {
		return nil, fmt.Errorf("get seat %d: %w", id, mapPGError(err))
	}
	return seat, nil
}

func (s *PGStore) ListSeats(ctx context.Context, eventID string) ([]domain.Seat, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if eventID == "" {
		rows, err = s.db.Query(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY id`)
	} else {
		rows, err = s.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE event_id=$1 ORDER BY id`, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return collectSeats(rows)
}

func (t *pgTx) GetSeatForUpdate(ctx context.Context, seatID int64, timeout time.Duration) (*domain.Seat, error) {
	if err := t.setLockTimeout(ctx, timeout); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}
	seat, err := scanSeat(t.tx.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1 FOR UPDATE`, seatID))
	if err != nil {
		return nil, fmt.Errorf("lock seat %d: %w", seatID, mapPGError(err))
	}
	return seat, nil
}

func (t *pgTx) UpdateSeat(ctx context.Context, seat *domain.Seat) error {
	tag, err := t.tx.Exec(ctx, `UPDATE seats SET status=$1, held_by=$2, hold_expires_at=$3 WHERE id=$4`,
		seat.Status, nullString(seat.HeldBy), seat.HoldExpiresAt, seat.ID)
	if err != nil {
		return fmt.Errorf("update seat %d: %w", seat.ID, mapPGError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update seat %d: %w", seat.ID, ErrNotFound)
	}
	return nil
}

func (t *pgTx) ExpiredHeldSeatsForUpdate(ctx context.Context, now time.Time, limit int) ([]domain.Seat, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+seatColumns+` FROM seats
		WHERE status=$1 AND hold_expires_at < $2
		ORDER BY id
		LIMIT $3
		FOR UPDATE SKIP LOCKED`, domain.SeatStatusHeld, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select expired holds: %w", mapPGError(err))
	}
	return collectSeats(rows)
}
