package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reserva/internal/events"
	"reserva/internal/models"
	"reserva/internal/slots"
)

// ValidateRoomConfig checks an opening window without touching storage.
func (s *Service) ValidateRoomConfig(open, close string, blockMinutes int) error {
	_, err := slots.ValidateConfig(open, close, blockMinutes)
	return err
}

// CreateRoom validates and stores a new room. Rooms are active unless
// stated otherwise.
func (s *Service) CreateRoom(ctx context.Context, in models.RoomInput) (*models.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.ErrInvalidName
	}
	if _, err := slots.ValidateConfig(in.OpenTime, in.CloseTime, in.BlockMinutes); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	room := &models.Room{
		ID:           uuid.NewString(),
		Name:         name,
		OpenTime:     in.OpenTime,
		CloseTime:    in.CloseTime,
		BlockMinutes: in.BlockMinutes,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Active != nil {
		room.Active = *in.Active
	}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.events.PublishJSON(events.RoomChanged, room)
	s.logger.Info().Str("room_id", room.ID).Str("name", room.Name).Msg("room created")
	return room, nil
}

// UpdateRoom applies patch to a room. The window is re-validated on the
// merged configuration when any of its fields change. Existing reservations
// are left as they are.
func (s *Service) UpdateRoom(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return room, nil
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, models.ErrInvalidName
		}
		room.Name = name
	}
	if patch.TouchesWindow() {
		merged := *room
		if patch.OpenTime != nil {
			merged.OpenTime = *patch.OpenTime
		}
		if patch.CloseTime != nil {
			merged.CloseTime = *patch.CloseTime
		}
		if patch.BlockMinutes != nil {
			merged.BlockMinutes = *patch.BlockMinutes
		}
		if _, err := slots.ForRoom(&merged); err != nil {
			return nil, err
		}
		room.OpenTime, room.CloseTime, room.BlockMinutes = merged.OpenTime, merged.CloseTime, merged.BlockMinutes
	}
	if patch.Active != nil {
		room.Active = *patch.Active
	}
	room.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}

	s.cache.Invalidate(ctx, room.ID, "")
	s.events.PublishJSON(events.RoomChanged, room)
	s.logger.Info().Str("room_id", room.ID).Bool("active", room.Active).Msg("room updated")
	return room, nil
}

// GetRoom returns a room by id.
func (s *Service) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.store.GetRoom(ctx, id)
}

// ListRooms returns rooms, optionally only active or inactive ones.
func (s *Service) ListRooms(ctx context.Context, activeOnly *bool) ([]models.Room, error) {
	return s.store.ListRooms(ctx, activeOnly)
}
