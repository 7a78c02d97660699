package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"techbook/internal/models"
)

func TestEventBus_PublishToSubscribers(t *testing.T) {
	bus := NewEventBus(nil)

	var got []string
	bus.Subscribe(BookingCreated, func(e Event) error {
		got = append(got, "first:"+e.Booking.ID)
		return errors.New("ignored")
	})
	bus.Subscribe(BookingCreated, func(e Event) error {
		got = append(got, "second:"+e.Booking.ID)
		assert.False(t, e.CreatedAt.IsZero())
		return nil
	})
	bus.Subscribe(BookingCancelled, func(Event) error {
		t.Fatal("cancel handler must not run")
		return nil
	})

	bus.Publish(Event{Type: BookingCreated, Booking: models.Booking{ID: "b1"}})

	assert.Equal(t, []string{"first:b1", "second:b1"}, got)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewEventBus(nil).Publish(Event{Type: BookingConflict})
	})
}
