package domain

import "time"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

// Seat is the unit of exclusive access. HeldBy and HoldExpiresAt are set
// together and only while Status is HELD.
type Seat struct {
	ID            int64      `json:"id"`
	EventID       string     `json:"event_id"`
	SeatNumber    string     `json:"seat_number"`
	Status        SeatStatus `json:"status"`
	HeldBy        string     `json:"held_by,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// NewSeat returns an AVAILABLE seat.
func NewSeat(eventID, seatNumber string) *Seat {
	return &Seat{EventID: eventID, SeatNumber: seatNumber, Status: SeatStatusAvailable}
}

// Hold moves an AVAILABLE seat to HELD by actorID until expiresAt.
func (s *Seat) Hold(actorID string, expiresAt time.Time) error {
	switch s.Status {
	case SeatStatusHeld:
		return NewError(KindAlreadyHeld, "seat %d is already held by another user", s.ID)
	case SeatStatusBooked:
		return NewError(KindAlreadyBooked, "seat %d is already booked", s.ID)
	case SeatStatusAvailable:
	default:
		return NewError(KindInvalidTransition, "seat %d must be AVAILABLE to be held, got %s", s.ID, s.Status)
	}

	exp := expiresAt
	s.Status = SeatStatusHeld
	s.HeldBy = actorID
	s.HoldExpiresAt = &exp
	return nil
}

// Book moves a HELD seat to BOOKED. Only the holder may book, and only
// while the hold has not expired. Booking cannot skip the hold step.
func (s *Seat) Book(actorID string, now time.Time) error {
	if err := s.ValidateBooking(actorID, now); err != nil {
		return err
	}
	s.Status = SeatStatusBooked
	s.HeldBy = ""
	s.HoldExpiresAt = nil
	return nil
}

// ValidateBooking returns the error Book would return, without mutating the seat.
func (s *Seat) ValidateBooking(actorID string, now time.Time) error {
	switch s.Status {
	case SeatStatusAvailable:
		return NewError(KindInvalidTransition, "seat %d must be HELD to be booked, got %s", s.ID, s.Status)
	case SeatStatusBooked:
		return NewError(KindAlreadyBooked, "seat %d is already booked", s.ID)
	case SeatStatusHeld:
	default:
		return NewError(KindInvalidTransition, "seat %d cannot be booked from %s", s.ID, s.Status)
	}

	if s.HeldBy != actorID {
		return NewError(KindUnauthorized, "seat %d is held by another user", s.ID)
	}
	// a hold is honored up to and including its expiry instant
	if s.HoldExpiresAt != nil && now.After(*s.HoldExpiresAt) {
		return NewError(KindHoldExpired, "hold on seat %d has expired", s.ID)
	}
	return nil
}

// Release returns the seat to AVAILABLE. It is a no-op on an AVAILABLE seat.
func (s *Seat) Release() {
	if s.Status == SeatStatusAvailable {
		return
	}
	s.Status = SeatStatusAvailable
	s.HeldBy = ""
	s.HoldExpiresAt = nil
}

// IsAvailableForBooking reports whether actorID holds the seat and the hold
// ends strictly after now.
func (s *Seat) IsAvailableForBooking(actorID string, now time.Time) bool {
	if s.Status != SeatStatusHeld || s.HeldBy != actorID {
		return false
	}
	return s.HoldExpiresAt == nil || now.Before(*s.HoldExpiresAt)
}

// IsHoldExpired reports whether the seat is HELD past its expiry.
func (s *Seat) IsHoldExpired(now time.Time) bool {
	return s.Status == SeatStatusHeld && s.HoldExpiresAt != nil && now.After(*s.HoldExpiresAt)
}
