// Package access resolves what a caller may see and do before a request
// reaches the booking engine.
package access

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"

	"reserva/internal/models"
)

// Service builds authorization-scoped filters.
type Service struct {
	logger zerolog.Logger
}

// NewService creates a new access control service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger.With().Str("component", "access").Logger(),
	}
}

// ScopeReservationFilter pins client callers to their own reservations.
// Admins keep whatever client they asked for.
func (s *Service) ScopeReservationFilter(caller models.Caller, requested models.ReservationFilter) models.ReservationFilter {
	if !caller.IsAdmin() {
		requested.ClientID = caller.ID
	}
	return requested
}

// ScopeActivityFilter pins client callers to their own activity.
func (s *Service) ScopeActivityFilter(caller models.Caller, requested models.ActivityFilter) models.ActivityFilter {
	if !caller.IsAdmin() {
		requested.ClientID = caller.ID
	}
	return requested
}

// RequireRole fails unless the caller has one of roles.
func (s *Service) RequireRole(ctx context.Context, caller models.Caller, roles ...models.Role) error {
	if slices.Contains(roles, caller.Role) {
		return nil
	}

	s.logger.Warn().
		Str("caller_id", caller.ID).
		Str("role", string(caller.Role)).
		Msg("access denied")
	return &AccessDeniedError{Reason: "this operation requires role " + joinRoles(roles)}
}

// ResolveBookingClient decides on whose behalf a reservation is made.
// Clients always book for themselves; admins must name the client.
func (s *Service) ResolveBookingClient(caller models.Caller, requestedClientID string) (string, error) {
	switch caller.Role {
	case models.RoleClient:
		return caller.ID, nil
	case models.RoleAdmin:
		if requestedClientID == "" {
			return "", models.ErrMissingClient
		}
		return requestedClientID, nil
	default:
		return "", &AccessDeniedError{Reason: "unknown role"}
	}
}

// AccessDeniedError is returned when user access is denied.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}

func (e *AccessDeniedError) Unwrap() error {
	return models.ErrForbidden
}

// IsAccessDenied checks if error is access denied.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}

func joinRoles(roles []models.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
