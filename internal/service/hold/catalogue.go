package hold

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

// CreateSeat adds an AVAILABLE seat to eventID.
func (s *HoldService) CreateSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error) {
	eventID, seatNumber = strings.TrimSpace(eventID), strings.TrimSpace(seatNumber)
	if eventID == "" {
		return nil, domain.NewError(domain.KindInvalidArgument, "event id is required")
	}
	if seatNumber == "" {
		return nil, domain.NewError(domain.KindInvalidArgument, "seat number is required")
	}

	seat := domain.NewSeat(eventID, seatNumber)
	if err := s.store.CreateSeat(ctx, seat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.WrapError(domain.KindDuplicate, err, "seat %s already exists", seatNumber)
		}
		return nil, domain.WrapError(domain.KindUnexpected, err, "create seat %s", seatNumber)
	}
	return seat, nil
}

func (s *HoldService) GetSeat(ctx context.Context, seatID int64) (*domain.Seat, error) {
	seat, err := s.store.GetSeat(ctx, seatID)
	if err != nil {
		return nil, repository.SeatError(err, seatID)
	}
	return seat, nil
}

// ListSeats returns every seat, or only eventID's seats when it is not empty.
func (s *HoldService) ListSeats(ctx context.Context, eventID string) ([]domain.Seat, error) {
	seats, err := s.store.ListSeats(ctx, eventID)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnexpected, err, "list seats")
	}
	return seats, nil
}

// RegisterActor stores a new actor. Ids are unique.
func (s *HoldService) RegisterActor(ctx context.Context, actor *domain.Actor) error {
	actor.ID = strings.TrimSpace(actor.ID)
	if actor.ID == "" {
		return domain.NewError(domain.KindInvalidArgument, "user id is required")
	}
	if err := s.store.CreateActor(ctx, actor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.WrapError(domain.KindDuplicate, err, "user %s already exists", actor.ID)
		}
		return domain.WrapError(domain.KindUnexpected, err, "create user %s", actor.ID)
	}
	return nil
}

func (s *HoldService) ActorExists(ctx context.Context, actorID string) (bool, error) {
	return s.store.ActorExists(ctx, actorID)
}
