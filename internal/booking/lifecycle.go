package booking

import (
	"context"
	"errors"
	"fmt"

	"reserva/internal/activity"
	"reserva/internal/events"
	"reserva/internal/metrics"
	"reserva/internal/models"
)

// maxTransitionAttempts bounds the re-read loop after a lost compare-and-set.
const maxTransitionAttempts = 3

type transitionKind struct {
	target    models.ReservationStatus
	adminOnly bool
	label     string
	event     string
}

var (
	approveKind  = transitionKind{target: models.StatusConfirmed, adminOnly: true, label: "approved", event: events.ReservationConfirmed}
	rejectKind   = transitionKind{target: models.StatusCancelled, label: "rejected", event: events.ReservationCancelled}
	cancelKind   = transitionKind{target: models.StatusCancelled, label: "cancelled", event: events.ReservationCancelled}
	completeKind = transitionKind{target: models.StatusCompleted, adminOnly: true, label: "completed", event: events.ReservationCompleted}
)

// Approve confirms a pending reservation. Admin only.
func (s *Service) Approve(ctx context.Context, id string, caller models.Caller) (*models.Reservation, error) {
	return s.transition(ctx, id, caller, approveKind)
}

// Reject cancels a pending or confirmed reservation on the operator's side.
// Rejecting an already cancelled reservation succeeds without change.
func (s *Service) Reject(ctx context.Context, id string, caller models.Caller) (*models.Reservation, error) {
	return s.transition(ctx, id, caller, rejectKind)
}

// Cancel cancels a pending or confirmed reservation. Clients may only cancel
// their own. Cancelling twice succeeds without change.
func (s *Service) Cancel(ctx context.Context, id string, caller models.Caller) (*models.Reservation, error) {
	return s.transition(ctx, id, caller, cancelKind)
}

// Complete marks a reservation as completed. Admin only.
func (s *Service) Complete(ctx context.Context, id string, caller models.Caller) (*models.Reservation, error) {
	return s.transition(ctx, id, caller, completeKind)
}

func (s *Service) transition(ctx context.Context, id string, caller models.Caller, kind transitionKind) (*models.Reservation, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if kind.adminOnly && !caller.IsAdmin() {
		return nil, models.ErrForbidden
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		r, err := s.store.GetReservation(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorizeOwner(ctx, r, caller); err != nil {
			return nil, err
		}

		noop, err := s.fsm.Check(r.Status, kind.target)
		if err != nil {
			return nil, err
		}
		if noop {
			return r, nil
		}

		at := s.now().UTC()
		err = s.store.UpdateReservationStatus(ctx, id, r.Status, kind.target, at)
		if errors.Is(err, models.ErrConcurrentModification) {
			s.logger.Debug().Str("reservation_id", id).Int("attempt", attempt+1).Msg("status changed concurrently, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}

		r.Status = kind.target
		r.UpdatedAt = at
		s.afterTransition(ctx, r, caller, kind)
		return r, nil
	}

	return nil, models.ErrConcurrentModification
}

// authorizeOwner lets admins through; clients must own the reservation and
// still be active.
func (s *Service) authorizeOwner(ctx context.Context, r *models.Reservation, caller models.Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	if !caller.IsClient() || r.ClientID != caller.ID {
		return models.ErrForbidden
	}
	return s.EnsureActiveCaller(ctx, caller)
}

// EnsureActiveCaller rejects client callers that were deactivated after their
// token was issued. Admins pass through.
func (s *Service) EnsureActiveCaller(ctx context.Context, caller models.Caller) error {
	if !caller.IsClient() {
		return nil
	}
	client, err := s.store.GetClient(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !client.Active {
		return models.ErrClientInactive
	}
	return nil
}

func (s *Service) afterTransition(ctx context.Context, r *models.Reservation, caller models.Caller, kind transitionKind) {
	metrics.IncTransition(kind.label)
	s.invalidateDay(ctx, r)

	if kind.target == models.StatusCancelled {
		origin := activity.OriginFrom(ctx)
		s.activity.Record(ctx, models.Activity{
			ClientID:     r.ClientID,
			ActivityType: models.ActivityReservationCancelled,
			Module:       models.ModuleReservation,
			Description:  fmt.Sprintf("reservation %s %s by %s", r.ID, kind.label, caller.Role),
			Origin:       origin.IP,
			UserAgent:    origin.UserAgent,
		})
	}

	s.events.PublishJSON(kind.event, newReservationEvent(r, caller.ID))

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("status", string(r.Status)).
		Str("actor_id", caller.ID).
		Msg("reservation " + kind.label)
}
