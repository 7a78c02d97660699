package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techbook/internal/models"
)

func TestSubscribeAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("component", "audit").Logger()
	bus := NewEventBus(nil)
	SubscribeAudit(bus, &logger)

	b := models.Booking{
		ID:             "b-1",
		CustomerName:   "Jane",
		TechnicianName: "Alice Smith",
		Profession:     models.Electrician,
		StartTime:      time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 2, 3, 15, 0, 0, 0, time.UTC),
	}
	bus.Publish(Event{Type: BookingCreated, Booking: b})
	bus.Publish(Event{Type: BookingConflict, Booking: b})
	bus.Publish(Event{Type: BookingCancelled, Booking: b})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var entries []map[string]any
	for _, l := range lines {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		entries = append(entries, m)
	}

	assert.Equal(t, "booking.created", entries[0]["event"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "audit", entries[0]["component"])
	assert.Equal(t, "b-1", entries[0]["booking_id"])
	assert.Equal(t, "Alice Smith", entries[0]["technician"])
	assert.Equal(t, "2025-02-03T14:00:00Z", entries[0]["start"])

	assert.Equal(t, "booking.conflict", entries[1]["event"])
	assert.Equal(t, "warn", entries[1]["level"])

	assert.Equal(t, "booking.cancelled", entries[2]["event"])
}
