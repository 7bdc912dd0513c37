package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

const seatColumns = `id, event_id, seat_number, status, held_by, hold_expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(row rowScanner) (*domain.Seat, error) {
	var (
		s       domain.Seat
		status  string
		heldBy  sql.NullString
		expires sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.EventID, &s.SeatNumber, &status, &heldBy, &expires); err != nil {
		return nil, err
	}
	s.Status = domain.SeatStatus(status)
	s.HeldBy = heldBy.String
	s.HoldExpiresAt = fromNanos(expires)
	return &s, nil
}

func collectSeats(rows *sql.Rows) ([]domain.Seat, error) {
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

func (s *Store) CreateSeat(ctx context.Context, seat *domain.Seat) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO seats (event_id, seat_number, status, held_by, hold_expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		seat.EventID, seat.SeatNumber, string(seat.Status), nullString(seat.HeldBy), toNanos(seat.HoldExpiresAt))
	if err != nil {
		return fmt.Errorf("create seat: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create seat: %w", err)
	}
	seat.ID = id
	return nil
}

func (s *Store) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	seat, err := scanSeat(s.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=?`, id))
	if err != nil {
		return nil, fmt.Errorf("get seat %d: %w", id, mapError(err))
	}
	return seat, nil
}

func (s *Store) ListSeats(ctx context.Context, eventID string) ([]domain.Seat, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if eventID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE event_id=? ORDER BY id`, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", mapError(err))
	}
	return collectSeats(rows)
}

// GetSeatForUpdate reads the seat. The write lock taken at BEGIN already
// excludes every other unit of work, so timeout is not consulted here.
func (t *sqliteTx) GetSeatForUpdate(ctx context.Context, seatID int64, _ time.Duration) (*domain.Seat, error) {
	seat, err := scanSeat(t.tx.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=?`, seatID))
	if err != nil {
		return nil, fmt.Errorf("lock seat %d: %w", seatID, mapError(err))
	}
	return seat, nil
}

func (t *sqliteTx) UpdateSeat(ctx context.Context, seat *domain.Seat) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE seats SET status=?, held_by=?, hold_expires_at=? WHERE id=?`,
		string(seat.Status), nullString(seat.HeldBy), toNanos(seat.HoldExpiresAt), seat.ID)
	if err != nil {
		return fmt.Errorf("update seat %d: %w", seat.ID, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update seat %d: %w", seat.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update seat %d: %w", seat.ID, repository.ErrNotFound)
	}
	return nil
}

func (t *sqliteTx) ExpiredHeldSeatsForUpdate(ctx context.Context, now time.Time, limit int) ([]domain.Seat, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats
		WHERE status=? AND hold_expires_at < ?
		ORDER BY id
		LIMIT ?`, string(domain.SeatStatusHeld), now.UTC().UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("select expired holds: %w", mapError(err))
	}
	return collectSeats(rows)
}
