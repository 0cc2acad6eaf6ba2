package booking

import (
	"context"
	"time"

	"reserva/internal/models"
)

// ParseDateRange turns optional "YYYY-MM-DD" bounds into inclusive minute
// bounds: from at 00:00, to at 23:59.
func ParseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var fromT, toT *time.Time
	if from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return nil, nil, err
		}
		start, _ := models.DayBounds(d)
		fromT = &start
	}
	if to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return nil, nil, err
		}
		_, end := models.DayBounds(d)
		toT = &end
	}
	return fromT, toT, nil
}

// ParseStatus validates an optional status filter.
func ParseStatus(s string) (models.ReservationStatus, error) {
	if s == "" {
		return "", nil
	}
	status := models.ReservationStatus(s)
	if !status.Valid() {
		return "", models.ErrInvalidStatus
	}
	return status, nil
}

// completeRange fills the missing bound when only one is given.
func (s *Service) completeRange(from, to *time.Time) (*time.Time, *time.Time) {
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil {
		epoch := time.Unix(0, 0).UTC()
		from = &epoch
	}
	if to == nil {
		now := s.clock()
		to = &now
	}
	return from, to
}

// ListReservations returns reservations matching an already-authorized
// filter, latest start first.
func (s *Service) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.ErrInvalidStatus
	}
	filter.From, filter.To = s.completeRange(filter.From, filter.To)
	return s.store.ListReservations(ctx, filter)
}

// GetReservation returns one reservation. Clients can only read their own,
// and only while active.
func (s *Service) GetReservation(ctx context.Context, id string, caller models.Caller) (*models.Reservation, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && r.ClientID != caller.ID {
		return nil, models.ErrForbidden
	}
	if err := s.EnsureActiveCaller(ctx, caller); err != nil {
		return nil, err
	}
	return r, nil
}

// ListActivity returns audit records matching an already-authorized filter,
// newest first. Records carry real instants, so the wall-clock bounds are read
// in the service clock's zone. The upper bound is inclusive to the minute.
func (s *Service) ListActivity(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	filter.From, filter.To = s.completeRange(filter.From, filter.To)
	if filter.To != nil {
		end := filter.To.Add(time.Minute - time.Nanosecond)
		filter.To = &end
	}
	loc := s.now().Location()
	filter.From, filter.To = instant(filter.From, loc), instant(filter.To, loc)
	return s.store.ListActivity(ctx, filter)
}

// instant reads the wall-clock fields of t in loc.
func instant(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC()
	return &v
}
