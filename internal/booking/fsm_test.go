package booking

import (
	"testing"

	"reserva/internal/models"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        models.ReservationStatus
		to          models.ReservationStatus
		shouldAllow bool
	}{
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, true},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, true},
		{"pending to completed", models.StatusPending, models.StatusCompleted, true},
		{"confirmed to cancelled", models.StatusConfirmed, models.StatusCancelled, true},
		{"confirmed to completed", models.StatusConfirmed, models.StatusCompleted, true},
		// Monotonic: nothing leaves a terminal status
		{"cancelled to pending", models.StatusCancelled, models.StatusPending, false},
		{"cancelled to confirmed", models.StatusCancelled, models.StatusConfirmed, false},
		{"completed to cancelled", models.StatusCompleted, models.StatusCancelled, false},
		{"completed to pending", models.StatusCompleted, models.StatusPending, false},
		{"confirmed to pending", models.StatusConfirmed, models.StatusPending, false},
		{"confirmed to confirmed", models.StatusConfirmed, models.StatusConfirmed, false},
		{"unknown source", models.ReservationStatus("archived"), models.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := fsm.CanTransition(tt.from, tt.to)
			if allowed != tt.shouldAllow {
				t.Errorf("transition %s -> %s: expected allowed=%v, got %v",
					tt.from, tt.to, tt.shouldAllow, allowed)
			}
		})
	}
}

func TestFSMCheck(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name     string
		from, to models.ReservationStatus
		noop     bool
		wantErr  bool
	}{
		{"cancel twice is a no-op", models.StatusCancelled, models.StatusCancelled, true, false},
		{"complete twice is a no-op", models.StatusCompleted, models.StatusCompleted, true, false},
		{"approve twice fails", models.StatusConfirmed, models.StatusConfirmed, false, true},
		{"cancel completed fails", models.StatusCompleted, models.StatusCancelled, false, true},
		{"complete cancelled fails", models.StatusCancelled, models.StatusCompleted, false, true},
		{"approve pending", models.StatusPending, models.StatusConfirmed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noop, err := fsm.Check(tt.from, tt.to)
			if noop != tt.noop {
				t.Errorf("noop = %v, want %v", noop, tt.noop)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && models.KindOf(err) != models.KindInvalidTransition {
				t.Errorf("unexpected kind %s", models.KindOf(err))
			}
		})
	}
}
