// Package events describes the seat lifecycle notifications published after
// a unit of work commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

type Type string

const (
	SeatHeld     Type = "seat_held"
	SeatReleased Type = "seat_released"
	SeatBooked   Type = "seat_booked"
)

type SeatEvent struct {
	Type          Type       `json:"type"`
	SeatID        int64      `json:"seat_id"`
	EventID       string     `json:"event_id"`
	SeatNumber    string     `json:"seat_number"`
	ActorID       string     `json:"actor_id"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	BookingID     int64      `json:"booking_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Key partitions events by seat so that one seat's events stay ordered.
func (e SeatEvent) Key() string {
	return strconv.FormatInt(e.SeatID, 10)
}

func Held(seat *domain.Seat, now time.Time) SeatEvent {
	return SeatEvent{
		Type:          SeatHeld,
		SeatID:        seat.ID,
		EventID:       seat.EventID,
		SeatNumber:    seat.SeatNumber,
		ActorID:       seat.HeldBy,
		HoldExpiresAt: seat.HoldExpiresAt,
		OccurredAt:    now,
	}
}

// Released reports that actorID's hold on seat ended. actorID is the former holder.
func Released(seat *domain.Seat, actorID string, now time.Time) SeatEvent {
	return SeatEvent{
		Type:       SeatReleased,
		SeatID:     seat.ID,
		EventID:    seat.EventID,
		SeatNumber: seat.SeatNumber,
		ActorID:    actorID,
		OccurredAt: now,
	}
}

func Booked(seat *domain.Seat, booking *domain.Booking) SeatEvent {
	return SeatEvent{
		Type:       SeatBooked,
		SeatID:     seat.ID,
		EventID:    seat.EventID,
		SeatNumber: seat.SeatNumber,
		ActorID:    booking.ActorID,
		BookingID:  booking.ID,
		OccurredAt: booking.BookedAt,
	}
}

func Decode(data []byte) (SeatEvent, error) {
	var e SeatEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SeatEvent{}, fmt.Errorf("decode seat event: %w", err)
	}
	return e, nil
}

// Publisher delivers events to a broker. Callers publish only after commit and
// treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event SeatEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, SeatEvent) error { return nil }
