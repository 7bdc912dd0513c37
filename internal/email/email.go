package email

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/events"
)

// Sender writes booking confirmation notices. Events other than seat_booked
// are ignored.
type Sender struct {
	out io.Writer
	log hclog.Logger
}

func NewSender(logger hclog.Logger) *Sender {
	return NewSenderWithOutput(os.Stdout, logger)
}

func NewSenderWithOutput(w io.Writer, logger hclog.Logger) *Sender {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sender{out: w, log: logger.Named("email")}
}

func (s *Sender) Send(ctx context.Context, event events.SeatEvent) error {
	if event.Type != events.SeatBooked {
		return nil
	}
	if _, err := fmt.Fprintf(s.out, "send email to %s: booking %d confirmed for event %s seat %s\n",
		event.ActorID, event.BookingID, event.EventID, event.SeatNumber); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	s.log.Info("notification sent", "user_id", event.ActorID, "booking_id", event.BookingID)
	return nil
}
