package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reserva/internal/metrics"
	"reserva/internal/models"
)

// Agenda is the read side the daily digest needs.
type Agenda interface {
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	ListRooms(ctx context.Context, activeOnly *bool) ([]models.Room, error)
}

// StartDigest sends managers tomorrow's agenda every day at hour until ctx is done.
func (n *Notifier) StartDigest(ctx context.Context, agenda Agenda, hour int) {
	now := time.Now
	go func() {
		timer := time.NewTimer(timeUntilNextHour(now(), hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				n.sendDigest(ctx, agenda, now().AddDate(0, 0, 1))
				timer.Reset(timeUntilNextHour(now(), hour))
			}
		}
	}()
}

func (n *Notifier) sendDigest(ctx context.Context, agenda Agenda, day time.Time) {
	text, err := BuildDigest(ctx, agenda, day)
	if err != nil {
		n.logger.Error().Err(err).Msg("digest: load agenda")
		return
	}
	if text == "" {
		return
	}
	select {
	case n.queue <- text:
	default:
		metrics.IncNotification("dropped")
		n.logger.Warn().Msg("digest: notification queue full")
	}
}

// BuildDigest renders the live reservations of day, grouped by room. It
// returns "" when there is nothing to report.
func BuildDigest(ctx context.Context, agenda Agenda, day time.Time) (string, error) {
	from, to := models.DayBounds(day)
	list, err := agenda.ListReservations(ctx, models.ReservationFilter{From: &from, To: &to})
	if err != nil {
		return "", err
	}

	rooms, err := agenda.ListRooms(ctx, nil)
	if err != nil {
		return "", err
	}
	names := make(map[string]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}

	byRoom := make(map[string][]models.Reservation)
	var order []string
	for i := len(list) - 1; i >= 0; i-- { // list is latest first
		r := list[i]
		if !shouldRemindStatus(r.Status) {
			continue
		}
		if _, ok := byRoom[r.RoomID]; !ok {
			order = append(order, r.RoomID)
		}
		byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
	}
	if len(order) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reservations for %s\n", day.Format("02.01.2006"))
	for _, roomID := range order {
		name := names[roomID]
		if name == "" {
			name = roomID
		}
		fmt.Fprintf(&b, "\n%s\n", name)
		for _, r := range byRoom[roomID] {
			fmt.Fprintf(&b, "  %s  %s  (%s)\n", r.Clock(), r.ClientID, r.Status)
		}
	}
	return b.String(), nil
}

func shouldRemindStatus(status models.ReservationStatus) bool {
	switch status {
	case models.StatusPending, models.StatusConfirmed:
		return true
	default:
		return false
	}
}

func timeUntilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
