// Package activity records audit events about client actions.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reserva/internal/metrics"
	"reserva/internal/models"
)

// Store persists activity records.
type Store interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
}

// Recorder writes activity records without ever failing the caller.
type Recorder struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder over store.
func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "activity").Logger(),
		now:    time.Now,
	}
}

// Record persists a. Errors are logged and counted.
func (r *Recorder) Record(ctx context.Context, a models.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = r.now().UTC()
	}

	// The triggering request may already be done; keep the write alive.
	if err := r.store.CreateActivity(context.WithoutCancel(ctx), &a); err != nil {
		metrics.IncActivityDropped()
		r.logger.Error().Err(err).
			Str("client_id", a.ClientID).
			Str("activity_type", a.ActivityType).
			Msg("failed to record activity")
	}
}

type originKey struct{}

// Origin is the request metadata attached to activity records.
type Origin struct {
	IP        string
	UserAgent string
}

// WithOrigin stores request metadata in ctx.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns request metadata stored by WithOrigin.
func OriginFrom(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}
