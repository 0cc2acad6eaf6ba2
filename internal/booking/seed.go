package booking

import (
	"context"
	"errors"
	"fmt"

	"reserva/internal/models"
	"reserva/internal/slots"
)

// ApplySeed upserts rooms and directory users by id. Every room is
// validated before anything is written.
func (s *Service) ApplySeed(ctx context.Context, rooms []models.Room, clients []models.Client) error {
	for i := range rooms {
		if err := validateID(rooms[i].ID); err != nil {
			return fmt.Errorf("room %d: %w", i, err)
		}
		if _, err := slots.ForRoom(&rooms[i]); err != nil {
			return fmt.Errorf("room %s: %w", rooms[i].ID, err)
		}
	}

	now := s.now().UTC()
	for i := range rooms {
		room := rooms[i]
		existing, err := s.store.GetRoom(ctx, room.ID)
		switch {
		case errors.Is(err, models.ErrRoomNotFound):
			room.CreatedAt, room.UpdatedAt = now, now
			if err := s.store.CreateRoom(ctx, &room); err != nil {
				return fmt.Errorf("seed room %s: %w", room.ID, err)
			}
		case err != nil:
			return fmt.Errorf("seed room %s: %w", room.ID, err)
		default:
			room.CreatedAt, room.UpdatedAt = existing.CreatedAt, now
			if err := s.store.UpdateRoom(ctx, &room); err != nil {
				return fmt.Errorf("seed room %s: %w", room.ID, err)
			}
			s.cache.Invalidate(ctx, room.ID, "")
		}
	}

	for i := range clients {
		c := clients[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		if err := s.store.UpsertClient(ctx, &c); err != nil {
			return fmt.Errorf("seed client %s: %w", c.ID, err)
		}
	}

	s.logger.Info().Int("rooms", len(rooms)).Int("clients", len(clients)).Msg("seed applied")
	return nil
}
