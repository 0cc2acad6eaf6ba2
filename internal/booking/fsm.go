package booking

import "reserva/internal/models"

// FSM holds the allowed reservation status transitions.
type FSM struct {
	transitions map[models.ReservationStatus][]models.ReservationStatus
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[models.ReservationStatus][]models.ReservationStatus{
			models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted},
			models.StatusConfirmed: {models.StatusCancelled, models.StatusCompleted},
			models.StatusCancelled: {},
			models.StatusCompleted: {},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to models.ReservationStatus) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Check decides a move from -> to. Repeating a terminal status is a no-op.
func (f *FSM) Check(from, to models.ReservationStatus) (noop bool, err error) {
	if from == to && to.Terminal() {
		return true, nil
	}
	if !f.CanTransition(from, to) {
		return false, models.ErrInvalidTransition
	}
	return false, nil
}
