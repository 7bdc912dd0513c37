package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/events"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/payment"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

const DefaultAmountCents = 100

type BookingUseCase interface {
	ConfirmSeat(ctx context.Context, seatID int64, actorID, idempotencyKey string) (*domain.Booking, error)
	ListBookings(ctx context.Context, actorID string) ([]domain.Booking, error)
	GetSeatBooking(ctx context.Context, seatID int64) (*domain.Booking, error)
}

type Admission interface {
	CheckUser(actorID string) error
	CheckSeat(seatID int64) error
	CheckEvent(eventID string) error
}

type IdempotencyStore interface {
	Lock(ctx context.Context, tx repository.Tx, actorID, key string, timeout time.Duration) error
	Lookup(ctx context.Context, tx repository.Tx, actorID, key string) (*domain.Booking, bool, error)
	Save(ctx context.Context, tx repository.Tx, actorID, key string, booking *domain.Booking, now time.Time) error
}

type BookingService struct {
	store       repository.Store
	admission   Admission
	keys        IdempotencyStore
	payments    payment.Gateway
	publisher   events.Publisher
	amountCents int64
	lockTimeout time.Duration
	now         func() time.Time
	log         hclog.Logger
}

type BookingServiceOption func(*BookingService)

func WithPublisher(p events.Publisher) BookingServiceOption {
	return func(s *BookingService) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(logger hclog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.log = logger.Named("booking")
		}
	}
}

func WithAmount(cents int64) BookingServiceOption {
	return func(s *BookingService) {
		if cents > 0 {
			s.amountCents = cents
		}
	}
}

func NewBookingService(
	store repository.Store,
	admission Admission,
	keys IdempotencyStore,
	payments payment.Gateway,
	lockTimeout time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:       store,
		admission:   admission,
		keys:        keys,
		payments:    payments,
		publisher:   events.Nop{},
		amountCents: DefaultAmountCents,
		lockTimeout: lockTimeout,
		now:         time.Now,
		log:         hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ConfirmSeat charges actorID and books the seat it holds. Repeating the call
// with the same (actorID, idempotencyKey) returns the first booking without
// charging again.
func (s *BookingService) ConfirmSeat(ctx context.Context, seatID int64, actorID, idempotencyKey string) (*domain.Booking, error) {
	log := logging.FromContext(ctx, s.log).With("seat_id", seatID, "user_id", actorID, "idempotency_key", idempotencyKey)
	log.Info("attempting to confirm booking")

	if strings.TrimSpace(idempotencyKey) == "" {
		return nil, domain.NewError(domain.KindInvalidArgument, "idempotency key is required")
	}
	if err := s.admission.CheckUser(actorID); err != nil {
		return nil, err
	}
	if err := s.admission.CheckSeat(seatID); err != nil {
		return nil, err
	}

	var (
		result *domain.Booking
		booked *domain.Seat
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := s.keys.Lock(ctx, tx, actorID, idempotencyKey, s.lockTimeout); err != nil {
			return err
		}
		stored, found, err := s.keys.Lookup(ctx, tx, actorID, idempotencyKey)
		if err != nil {
			return err
		}
		if found {
			log.Info("idempotency hit detected")
			if stored.SeatID != seatID {
				log.Error("idempotency key used for a different seat", "existing_seat_id", stored.SeatID)
				return domain.NewError(domain.KindIdempotencyKeyReused, "idempotency key already used for a different seat booking")
			}
			result = stored
			return nil
		}

		seat, err := tx.GetSeatForUpdate(ctx, seatID, s.lockTimeout)
		if err != nil {
			return err
		}
		log.Info("seat locked for booking", "status", seat.Status, "held_by", seat.HeldBy)

		if err := s.admission.CheckEvent(seat.EventID); err != nil {
			return err
		}

		now := s.now()
		if !seat.IsAvailableForBooking(actorID, now) {
			if err := seat.ValidateBooking(actorID, now); err != nil {
				log.Warn("validation failed for seat booking", "status", seat.Status, "error", err)
				return err
			}
		}

		log.Info("processing payment", "amount", s.amountCents)
		if err := s.payments.Charge(ctx, actorID, s.amountCents, idempotencyKey); err != nil {
			log.Warn("payment failed", "error", err)
			return domain.WrapError(domain.KindPaymentFailed, err, "payment failed for seat %d", seatID)
		}
		log.Info("payment successful")

		if err := seat.Book(actorID, now); err != nil {
			return err
		}
		if err := tx.UpdateSeat(ctx, seat); err != nil {
			return err
		}

		b := &domain.Booking{SeatID: seatID, ActorID: actorID, BookedAt: now}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if err := s.keys.Save(ctx, tx, actorID, idempotencyKey, b, now); err != nil {
			return err
		}
		result, booked = b, seat
		return nil
	})
	if err != nil {
		err = repository.SeatError(err, seatID)
		log.Warn("booking confirmation failed", "error", err)
		return nil, err
	}

	if booked != nil {
		log.Info("booking confirmed successfully", "booking_id", result.ID)
		if err := s.publisher.Publish(ctx, events.Booked(booked, result)); err != nil {
			log.Warn("failed to publish event", "type", events.SeatBooked, "error", err)
		}
	}
	return result, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actorID string) ([]domain.Booking, error) {
	bookings, err := s.store.ListBookingsByActor(ctx, actorID)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnexpected, err, "list bookings for user %s", actorID)
	}
	return bookings, nil
}

// GetSeatBooking returns the booking that holds seatID.
func (s *BookingService) GetSeatBooking(ctx context.Context, seatID int64) (*domain.Booking, error) {
	b, err := s.store.GetBookingBySeat(ctx, seatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.WrapError(domain.KindNotFound, err, "no booking for seat %d", seatID)
		}
		return nil, repository.SeatError(err, seatID)
	}
	return b, nil
}

var _ BookingUseCase = (*BookingService)(nil)
