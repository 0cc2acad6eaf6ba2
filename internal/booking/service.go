// Package booking is the reservation engine: availability, admission,
// lifecycle and queries over rooms and reservations.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reserva/internal/models"
	"reserva/internal/repository"
)

// AvailabilityCache caches resolved free slots per room and day.
// An empty date invalidates every cached day of the room.
type AvailabilityCache interface {
	Get(ctx context.Context, roomID, date string) ([]string, bool)
	Set(ctx context.Context, roomID, date string, slots []string)
	Invalidate(ctx context.Context, roomID, date string)
}

// ActivitySink receives audit records. It must not fail the caller.
type ActivitySink interface {
	Record(ctx context.Context, a models.Activity)
}

// EventPublisher fans out domain events.
type EventPublisher interface {
	PublishJSON(eventType string, payload any)
}

// Service implements the booking operations on top of a repository.Store.
type Service struct {
	store    repository.Store
	fsm      *FSM
	cache    AvailabilityCache
	activity ActivitySink
	events   EventPublisher
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the availability read-through cache.
func WithCache(c AvailabilityCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithActivity sets the audit sink.
func WithActivity(a ActivitySink) Option {
	return func(s *Service) { s.activity = a }
}

// WithEvents sets the event publisher.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the booking service.
func NewService(store repository.Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		fsm:      NewFSM(),
		cache:    noopCache{},
		activity: noopSink{},
		events:   noopPublisher{},
		logger:   logger.With().Str("component", "booking").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current wall-clock time with minute precision.
func (s *Service) clock() time.Time {
	return models.TruncateMinute(s.now())
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) ([]string, bool) { return nil, false }
func (noopCache) Set(context.Context, string, string, []string)        {}
func (noopCache) Invalidate(context.Context, string, string)           {}

type noopSink struct{}

func (noopSink) Record(context.Context, models.Activity) {}

type noopPublisher struct{}

func (noopPublisher) PublishJSON(string, any) {}

// ReservationEvent is the payload of reservation.* events.
type ReservationEvent struct {
	ReservationID string                   `json:"reservation_id"`
	RoomID        string                   `json:"room_id"`
	RoomName      string                   `json:"room_name,omitempty"`
	ClientID      string                   `json:"client_id"`
	StartAt       string                   `json:"start_at"`
	Status        models.ReservationStatus `json:"status"`
	ActorID       string                   `json:"actor_id,omitempty"`
}

func newReservationEvent(r *models.Reservation, actorID string) ReservationEvent {
	return ReservationEvent{
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		ClientID:      r.ClientID,
		StartAt:       r.StartAt.Format(models.DateTimeLayout),
		Status:        r.Status,
		ActorID:       actorID,
	}
}
