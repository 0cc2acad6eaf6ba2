package models

import (
	"encoding/json"
	"time"
)

// Layouts for naive wall-clock values. No timezone conversion is applied.
const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
	// WireLayout is how start times travel in JSON: no offset, so clients
	// never shift the slot into their own zone.
	WireLayout = "2006-01-02T15:04"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Reservation is a claim on one slot of one room.
type Reservation struct {
	ID        string            `json:"id"`
	RoomID    string            `json:"room_id"`
	ClientID  string            `json:"client_id"`
	StartAt   time.Time         `json:"start_at"` // minute precision
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clock returns the HH:MM part of the start time.
func (r *Reservation) Clock() string {
	return r.StartAt.Format(ClockLayout)
}

// MarshalJSON writes start_at as a naive wall-clock value.
func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		StartAt string `json:"start_at"`
	}{alias: alias(r), StartAt: r.StartAt.Format(WireLayout)})
}

func (r *Reservation) UnmarshalJSON(data []byte) error {
	type alias Reservation
	aux := struct {
		*alias
		StartAt string `json:"start_at"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.StartAt == "" {
		r.StartAt = time.Time{}
		return nil
	}
	t, err := time.Parse(WireLayout, aux.StartAt)
	if err != nil {
		return ErrInvalidDateTime
	}
	r.StartAt = t
	return nil
}

// ReservationFilter is an already-authorized, conjunctive query.
// Zero values mean "no constraint".
type ReservationFilter struct {
	ClientID string
	RoomID   string
	Status   ReservationStatus
	From     *time.Time
	To       *time.Time
}

// TruncateMinute drops seconds and below, keeping the wall clock untouched.
func TruncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// DayBounds returns the inclusive 00:00 and 23:59 minutes of the given day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, time.UTC)
	return start, end
}
