package hold

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/events"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

const DefaultHoldTTL = 15 * time.Minute

type HoldUseCase interface {
	CreateSoftHold(ctx context.Context, seatID int64, actorID string) bool
	HoldSeat(ctx context.Context, seatID int64, actorID string) (*domain.Seat, error)
	ReleaseHold(ctx context.Context, seatID int64, actorID string) (*domain.Seat, error)
	ReleaseExpiredHolds(ctx context.Context, limit int) ([]domain.Seat, error)
}

type Admission interface {
	CheckUser(actorID string) error
	CheckSeat(seatID int64) error
	CheckEvent(eventID string) error
}

type SoftHolds interface {
	TryClaim(ctx context.Context, seatID int64, actorID string) bool
	IsClaimedBy(ctx context.Context, seatID int64, actorID string) bool
	Release(ctx context.Context, seatID int64)
}

type HoldService struct {
	store       repository.Store
	admission   Admission
	softHolds   SoftHolds
	publisher   events.Publisher
	holdTTL     time.Duration
	lockTimeout time.Duration
	now         func() time.Time
	log         hclog.Logger
}

type HoldServiceOption func(*HoldService)

func WithPublisher(p events.Publisher) HoldServiceOption {
	return func(s *HoldService) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) HoldServiceOption {
	return func(s *HoldService) {
		s.now = now
	}
}

func WithLogger(logger hclog.Logger) HoldServiceOption {
	return func(s *HoldService) {
		if logger != nil {
			s.log = logger.Named("hold")
		}
	}
}

func NewHoldService(
	store repository.Store,
	admission Admission,
	softHolds SoftHolds,
	holdTTL, lockTimeout time.Duration,
	opts ...HoldServiceOption,
) *HoldService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	service := &HoldService{
		store:       store,
		admission:   admission,
		softHolds:   softHolds,
		publisher:   events.Nop{},
		holdTTL:     holdTTL,
		lockTimeout: lockTimeout,
		now:         time.Now,
		log:         hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateSoftHold places a short-lived claim on the seat for actorID and
// reports whether it was newly created.
func (s *HoldService) CreateSoftHold(ctx context.Context, seatID int64, actorID string) bool {
	return s.softHolds.TryClaim(ctx, seatID, actorID)
}

func (s *HoldService) HoldSeat(ctx context.Context, seatID int64, actorID string) (*domain.Seat, error) {
	log := logging.FromContext(ctx, s.log).With("seat_id", seatID, "user_id", actorID)
	log.Info("attempting to hold seat")

	if err := s.admission.CheckUser(actorID); err != nil {
		return nil, err
	}
	if err := s.admission.CheckSeat(seatID); err != nil {
		return nil, err
	}

	if !s.softHolds.IsClaimedBy(ctx, seatID, actorID) && !s.softHolds.TryClaim(ctx, seatID, actorID) {
		log.Warn("soft hold exists for another user")
		return nil, domain.NewError(domain.KindAlreadyHeld, "seat %d is currently being considered by another user", seatID)
	}

	var (
		held        *domain.Seat
		reclaimed   string
		publishedAt time.Time
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		seat, err := tx.GetSeatForUpdate(ctx, seatID, s.lockTimeout)
		if err != nil {
			return err
		}
		log.Info("seat locked for hold", "status", seat.Status)

		if err := s.admission.CheckEvent(seat.EventID); err != nil {
			return err
		}

		now := s.now()
		if seat.IsHoldExpired(now) {
			log.Info("seat hold expired, releasing for reuse", "held_by", seat.HeldBy)
			reclaimed = seat.HeldBy
			seat.Release()
		}

		if err := seat.Hold(actorID, now.Add(s.holdTTL)); err != nil {
			return err
		}
		if err := tx.UpdateSeat(ctx, seat); err != nil {
			return err
		}
		held, publishedAt = seat, now
		return nil
	})
	if err != nil {
		err = repository.SeatError(err, seatID)
		log.Warn("seat hold failed", "error", err)
		return nil, err
	}

	s.softHolds.Release(ctx, seatID)
	log.Info("seat hold successful", "expires_at", held.HoldExpiresAt)

	if reclaimed != "" {
		s.publish(ctx, events.Released(held, reclaimed, publishedAt))
	}
	s.publish(ctx, events.Held(held, publishedAt))
	return held, nil
}

// ReleaseHold lets the holder give a seat back before its hold expires.
// Releasing an AVAILABLE seat is a no-op.
func (s *HoldService) ReleaseHold(ctx context.Context, seatID int64, actorID string) (*domain.Seat, error) {
	log := logging.FromContext(ctx, s.log).With("seat_id", seatID, "user_id", actorID)

	if err := s.admission.CheckUser(actorID); err != nil {
		return nil, err
	}

	var (
		seat    *domain.Seat
		changed bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		seat, err = tx.GetSeatForUpdate(ctx, seatID, s.lockTimeout)
		if err != nil {
			return err
		}

		switch seat.Status {
		case domain.SeatStatusAvailable:
			return nil
		case domain.SeatStatusBooked:
			return domain.NewError(domain.KindAlreadyBooked, "seat %d is already booked", seatID)
		}
		if seat.HeldBy != actorID {
			return domain.NewError(domain.KindUnauthorized, "seat %d is held by another user", seatID)
		}

		seat.Release()
		changed = true
		return tx.UpdateSeat(ctx, seat)
	})
	if err != nil {
		err = repository.SeatError(err, seatID)
		log.Warn("seat release failed", "error", err)
		return nil, err
	}

	if changed {
		if s.softHolds.IsClaimedBy(ctx, seatID, actorID) {
			s.softHolds.Release(ctx, seatID)
		}
		log.Info("seat hold released")
		s.publish(ctx, events.Released(seat, actorID, s.now()))
	}
	return seat, nil
}

// ReleaseExpiredHolds returns up to limit seats whose hold ended to AVAILABLE.
func (s *HoldService) ReleaseExpiredHolds(ctx context.Context, limit int) ([]domain.Seat, error) {
	if limit <= 0 {
		limit = 100
	}
	now := s.now()

	var (
		released []domain.Seat
		holders  []string
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		expired, err := tx.ExpiredHeldSeatsForUpdate(ctx, now, limit)
		if err != nil {
			return err
		}
		for i := range expired {
			seat := &expired[i]
			holder := seat.HeldBy
			seat.Release()
			if err := tx.UpdateSeat(ctx, seat); err != nil {
				return err
			}
			holders = append(holders, holder)
		}
		released = expired
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.KindUnexpected, err, "release expired holds")
	}

	for i := range released {
		s.publish(ctx, events.Released(&released[i], holders[i], now))
	}
	if len(released) > 0 {
		logging.FromContext(ctx, s.log).Info("released expired holds", "count", len(released))
	}
	return released, nil
}

func (s *HoldService) publish(ctx context.Context, event events.SeatEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logging.FromContext(ctx, s.log).Warn("failed to publish event", "type", event.Type, "seat_id", event.SeatID, "error", err)
	}
}

var _ HoldUseCase = (*HoldService)(nil)
