package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

func (s *PGStore) CreateActor(ctx context.Context, actor *domain.Actor) error {
	err := s.db.QueryRow(ctx, `INSERT INTO actors (id, name, email) VALUES ($1, $2, $3) RETURNING created_at`,
		actor.ID, actor.Name, actor.Email).Scan(&actor.CreatedAt)
	if err != nil {
		return fmt.Errorf("create actor %s: %w", actor.ID, mapPGError(err))
	}
	return nil
}

func (s *PGStore) ActorExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check actor %s: %w", id, err)
	}
	return exists, nil
}
