package repository

import (
	"context"
	"time"

	"reserva/internal/models"
)

// RoomRepository persists rooms. Rooms are never deleted.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context, activeOnly *bool) ([]models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
}

// ReservationRepository persists reservations.
//
// CreateReservation must reject a second non-cancelled reservation for the
// same room and start minute with models.ErrSlotConflict. UpdateReservationStatus
// is a compare-and-set: it fails with models.ErrConcurrentModification when
// the stored status is no longer from.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	ActiveReservationsForRoom(ctx context.Context, roomID string, from, to time.Time) ([]models.Reservation, error)
	SlotTaken(ctx context.Context, roomID string, startAt time.Time) (bool, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, from, to models.ReservationStatus, at time.Time) error
}

// ClientDirectory is the read side of user management plus the seed upsert.
type ClientDirectory interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	UpsertClient(ctx context.Context, c *models.Client) error
}

// ActivityRepository is the audit sink store.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
}

// Store bundles every repository behind one backend.
type Store interface {
	RoomRepository
	ReservationRepository
	ClientDirectory
	ActivityRepository

	Ping(ctx context.Context) error
	Close() error
}
