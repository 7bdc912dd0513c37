package domain

import "time"

// Booking is the durable, immutable outcome of a confirmed seat. At most one
// booking exists per seat.
type Booking struct {
	ID       int64     `json:"id"`
	SeatID   int64     `json:"seat_id"`
	ActorID  string    `json:"actor_id"`
	BookedAt time.Time `json:"booked_at"`
}

// IdempotencyRecord stores the serialized result of the first committed
// confirmation for (ActorID, Key).
type IdempotencyRecord struct {
	ActorID   string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Actor is a registered user allowed to hold and book seats.
type Actor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
