package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reserva/internal/models"
)

type stubAgenda struct {
	reservations []models.Reservation
	rooms        []models.Room
	err          error
	got          models.ReservationFilter
}

func (a *stubAgenda) ListReservations(_ context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	a.got = f
	return a.reservations, a.err
}

func (a *stubAgenda) ListRooms(context.Context, *bool) ([]models.Room, error) {
	return a.rooms, nil
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 21, hour, minute, 0, 0, time.UTC)
}

func TestBuildDigest(t *testing.T) {
	agenda := &stubAgenda{
		rooms: []models.Room{{ID: "r1", Name: "Room A"}},
		// latest first, as the store returns them
		reservations: []models.Reservation{
			{RoomID: "r2", ClientID: "c3", StartAt: at(15, 0), Status: models.StatusPending},
			{RoomID: "r1", ClientID: "c2", StartAt: at(10, 0), Status: models.StatusCancelled},
			{RoomID: "r1", ClientID: "c1", StartAt: at(9, 30), Status: models.StatusConfirmed},
		},
	}

	text, err := BuildDigest(context.Background(), agenda, at(0, 0))
	require.NoError(t, err)

	assert.Contains(t, text, "Reservations for 21.05.2024")
	assert.Contains(t, text, "Room A\n  09:30  c1  (confirmed)")
	assert.Contains(t, text, "r2\n  15:00  c3  (pending)")
	assert.NotContains(t, text, "c2")

	require.NotNil(t, agenda.got.From)
	require.NotNil(t, agenda.got.To)
	assert.Equal(t, "2024-05-21 00:00", agenda.got.From.Format(models.DateTimeLayout))
	assert.Equal(t, "2024-05-21 23:59", agenda.got.To.Format(models.DateTimeLayout))
}

func TestBuildDigest_Empty(t *testing.T) {
	agenda := &stubAgenda{reservations: []models.Reservation{
		{RoomID: "r1", StartAt: at(9, 0), Status: models.StatusCancelled},
	}}
	text, err := BuildDigest(context.Background(), agenda, at(0, 0))
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = BuildDigest(context.Background(), &stubAgenda{err: errors.New("db closed")}, at(0, 0))
	assert.Error(t, err)
}

func TestSendDigest_Enqueues(t *testing.T) {
	n := NewNotifier(new(mockSender), Config{ChatIDs: []int64{1}}, zerolog.New(io.Discard))
	agenda := &stubAgenda{reservations: []models.Reservation{
		{RoomID: "r1", ClientID: "c1", StartAt: at(9, 0), Status: models.StatusPending},
	}}

	n.sendDigest(context.Background(), agenda, at(0, 0))
	require.Len(t, n.queue, 1)
	assert.Contains(t, <-n.queue, "09:00  c1")
}

func TestTimeUntilNextHour(t *testing.T) {
	now := time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Minute, timeUntilNextHour(now, 9))
	assert.Equal(t, 23*time.Hour+30*time.Minute, timeUntilNextHour(now, 8))
}
