package models

import "time"

// Activity types recorded by the audit sink.
const (
	ActivityReservationCreated   = "reservation_created"
	ActivityReservationCancelled = "reservation_cancelled"
	ActivityLogin                = "login"
)

// Activity modules.
const (
	ModuleReservation = "reservation"
	ModuleAuth        = "auth"
)

// Activity is one write-only audit record.
type Activity struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	ActivityType string    `json:"activity_type"`
	Module       string    `json:"module"`
	Description  string    `json:"description,omitempty"`
	Origin       string    `json:"origin,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ActivityFilter is an already-authorized, conjunctive query.
type ActivityFilter struct {
	ClientID     string
	ActivityType string
	Module       string
	From         *time.Time
	To           *time.Time
}
