package slots

import (
	"fmt"

	"reserva/internal/models"
)

// Window is a validated daily opening window measured in minutes since midnight.
type Window struct {
	Open  int
	Close int
	Block int
}

// ValidateConfig checks a room configuration. The time format is checked
// first, then the block duration, then the window ordering.
func ValidateConfig(open, close string, blockMinutes int) (Window, error) {
	openMin, err := ParseClock(open)
	if err != nil {
		return Window{}, err
	}
	closeMin, err := ParseClock(close)
	if err != nil {
		return Window{}, err
	}
	if blockMinutes <= 0 {
		return Window{}, models.ErrInvalidDuration
	}
	if openMin >= closeMin {
		return Window{}, models.ErrInvalidWindow
	}
	return Window{Open: openMin, Close: closeMin, Block: blockMinutes}, nil
}

// ForRoom validates the configuration stored on a room.
func ForRoom(room *models.Room) (Window, error) {
	return ValidateConfig(room.OpenTime, room.CloseTime, room.BlockMinutes)
}

// ParseClock parses a strict "HH:MM" value into minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, models.ErrInvalidTimeFormat
	}
	hour, ok := twoDigits(s[0], s[1])
	if !ok || hour > 23 {
		return 0, models.ErrInvalidTimeFormat
	}
	minute, ok := twoDigits(s[3], s[4])
	if !ok || minute > 59 {
		return 0, models.ErrInvalidTimeFormat
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
