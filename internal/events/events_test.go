package events

import (
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus(zerolog.New(io.Discard))

	var got []Event
	bus.Subscribe(ReservationCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(ReservationCreated, func(e Event) error {
		return errors.New("handler down")
	})

	bus.PublishJSON(ReservationCreated, map[string]string{"room_id": "r1"})
	bus.PublishJSON(ReservationCancelled, map[string]string{"room_id": "r2"})

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, "r1", payload["room_id"])
}

func TestEventBus_PublishUnmarshalable(t *testing.T) {
	bus := NewEventBus(zerolog.New(io.Discard))
	called := false
	bus.Subscribe(RoomChanged, func(Event) error {
		called = true
		return nil
	})

	bus.PublishJSON(RoomChanged, make(chan int))
	assert.False(t, called)
}
