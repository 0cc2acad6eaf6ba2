package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reserva/internal/activity"
	"reserva/internal/events"
	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/slots"
)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
}

// ParseDateTime parses a requested start. Wall-clock fields are taken as
// written, any offset is ignored, and seconds are dropped.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return models.TruncateMinute(t), nil
		}
	}
	return time.Time{}, models.ErrInvalidDateTime
}

// Admit creates a pending reservation for clientID on roomID at requested.
// The first failing check wins.
func (s *Service) Admit(ctx context.Context, clientID, roomID, requested string) (res *models.Reservation, err error) {
	defer func() {
		if err != nil {
			metrics.IncReservationRejected(string(models.KindOf(err)))
		}
	}()

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Role != models.RoleClient {
		return nil, models.ErrClientNotFound
	}
	if !client.Active {
		return nil, models.ErrClientInactive
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, models.ErrRoomInactive
	}

	startAt, err := ParseDateTime(requested)
	if err != nil {
		return nil, err
	}

	w, err := slots.ForRoom(room)
	if err != nil {
		return nil, err
	}
	if !w.Aligned(slots.MinuteOfDay(startAt)) {
		return nil, models.ErrSlotMisaligned
	}

	taken, err := s.store.SlotTaken(ctx, room.ID, startAt)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, models.ErrSlotConflict
	}

	now := s.now().UTC()
	res = &models.Reservation{
		ID:        uuid.NewString(),
		RoomID:    room.ID,
		ClientID:  client.ID,
		StartAt:   startAt,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReservation(ctx, res); err != nil {
		if errors.Is(err, models.ErrSlotConflict) {
			return nil, models.ErrSlotConflict
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	metrics.IncReservationAdmitted()
	s.invalidateDay(ctx, res)

	origin := activity.OriginFrom(ctx)
	s.activity.Record(ctx, models.Activity{
		ClientID:     client.ID,
		ActivityType: models.ActivityReservationCreated,
		Module:       models.ModuleReservation,
		Description:  fmt.Sprintf("reservation %s for room %s at %s", res.ID, room.Name, startAt.Format(models.DateTimeLayout)),
		Origin:       origin.IP,
		UserAgent:    origin.UserAgent,
	})

	ev := newReservationEvent(res, client.ID)
	ev.RoomName = room.Name
	s.events.PublishJSON(events.ReservationCreated, ev)

	s.logger.Info().
		Str("reservation_id", res.ID).
		Str("room_id", room.ID).
		Str("client_id", client.ID).
		Str("start_at", startAt.Format(models.DateTimeLayout)).
		Msg("reservation admitted")

	return res, nil
}
