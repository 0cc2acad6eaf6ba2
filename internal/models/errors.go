package models

import "errors"

// Kind classifies a failure for the caller. Transport layers map kinds to
// their own status codes.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindInactive          Kind = "inactive"
	KindForbidden         Kind = "forbidden"
	KindSlotMisaligned    Kind = "slot_misaligned"
	KindSlotConflict      Kind = "slot_conflict"
	KindInvalidTransition Kind = "invalid_transition"
)

// Error is a typed business failure. Sentinels below are compared with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

var (
	ErrInvalidTimeFormat = newError(KindInvalidInput, "invalid time format, expected HH:MM")
	ErrInvalidDuration   = newError(KindInvalidInput, "block duration must be positive")
	ErrInvalidWindow     = newError(KindInvalidInput, "opening time must be before closing time")
	ErrInvalidDateTime   = newError(KindInvalidInput, "invalid date and time")
	ErrInvalidDate       = newError(KindInvalidInput, "invalid date, expected YYYY-MM-DD")
	ErrInvalidID         = newError(KindInvalidInput, "invalid identifier")
	ErrInvalidName       = newError(KindInvalidInput, "name is required")
	ErrInvalidStatus     = newError(KindInvalidInput, "unknown reservation status")
	ErrMissingClient     = newError(KindInvalidInput, "client id is required")
)

var (
	ErrClientNotFound      = newError(KindNotFound, "client not found")
	ErrRoomNotFound        = newError(KindNotFound, "room not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation not found")
)

var (
	ErrClientInactive = newError(KindInactive, "client is inactive")
	ErrRoomInactive   = newError(KindInactive, "room is inactive")
	ErrForbidden      = newError(KindForbidden, "access denied")
)

var (
	ErrSlotMisaligned    = newError(KindSlotMisaligned, "time is not available for this room")
	ErrSlotConflict      = newError(KindSlotConflict, "slot is already reserved")
	ErrInvalidTransition = newError(KindInvalidTransition, "status transition not allowed")
)

// ErrConcurrentModification is returned by stores when a compare-and-set on
// the reservation status loses against another writer.
var ErrConcurrentModification = errors.New("concurrent modification")

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}
