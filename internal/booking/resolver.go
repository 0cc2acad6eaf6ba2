package booking

import (
	"context"
	"fmt"
	"time"

	"reserva/internal/metrics"
	"reserva/internal/models"
	"reserva/internal/slots"
)

// AvailableSlots returns the free "HH:MM" slot starts of room on day, given
// the reservations already held on that day. Cancelled reservations do not
// occupy a slot.
func AvailableSlots(room *models.Room, day time.Time, existing []models.Reservation) ([]string, error) {
	w, err := slots.ForRoom(room)
	if err != nil {
		return nil, err
	}

	taken := takenClocks(day, existing)
	free := make([]string, 0, w.Count())
	for _, label := range w.Labels() {
		if !taken[label] {
			free = append(free, label)
		}
	}
	return free, nil
}

func takenClocks(day time.Time, existing []models.Reservation) map[string]bool {
	dayStart, dayEnd := models.DayBounds(day)
	taken := make(map[string]bool, len(existing))
	for i := range existing {
		r := &existing[i]
		if r.Status == models.StatusCancelled {
			continue
		}
		if r.StartAt.Before(dayStart) || r.StartAt.After(dayEnd) {
			continue
		}
		taken[r.Clock()] = true
	}
	return taken
}

// ParseDate parses a "YYYY-MM-DD" day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, models.ErrInvalidDate
	}
	return d, nil
}

// AvailableSlots resolves the free slots of a room on a date.
func (s *Service) AvailableSlots(ctx context.Context, roomID, date string) ([]string, error) {
	room, day, err := s.roomDay(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	key := day.Format(models.DateLayout)
	if cached, ok := s.cache.Get(ctx, room.ID, key); ok {
		metrics.IncAvailabilityLookup("hit")
		return cached, nil
	}
	metrics.IncAvailabilityLookup("miss")

	existing, err := s.dayReservations(ctx, room.ID, day)
	if err != nil {
		return nil, err
	}

	free, err := AvailableSlots(room, day, existing)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, room.ID, key, free)
	return free, nil
}

// Schedule lists every slot of the day with its availability.
func (s *Service) Schedule(ctx context.Context, roomID, date string) ([]slots.SlotInfo, error) {
	room, day, err := s.roomDay(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	w, err := slots.ForRoom(room)
	if err != nil {
		return nil, err
	}

	existing, err := s.dayReservations(ctx, room.ID, day)
	if err != nil {
		return nil, err
	}
	return w.Describe(takenClocks(day, existing)), nil
}

func (s *Service) roomDay(ctx context.Context, roomID, date string) (*models.Room, time.Time, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !room.Active {
		return nil, time.Time{}, models.ErrRoomInactive
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, time.Time{}, err
	}
	return room, day, nil
}

func (s *Service) dayReservations(ctx context.Context, roomID string, day time.Time) ([]models.Reservation, error) {
	from, to := models.DayBounds(day)
	existing, err := s.store.ActiveReservationsForRoom(ctx, roomID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	return existing, nil
}

func (s *Service) invalidateDay(ctx context.Context, r *models.Reservation) {
	s.cache.Invalidate(ctx, r.RoomID, r.StartAt.Format(models.DateLayout))
}
