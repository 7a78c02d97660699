package events

import (
	"time"

	"github.com/rs/zerolog"
)

// SubscribeAudit writes one structured audit line per booking lifecycle
// event. Entries go to logger at info level, conflicts at warn.
func SubscribeAudit(bus *EventBus, logger *zerolog.Logger) {
	write := func(e Event) error {
		entry := logger.Info()
		if e.Type == BookingConflict {
			entry = logger.Warn()
		}
		entry.
			Str("event", e.Type).
			Str("booking_id", e.Booking.ID).
			Str("technician", e.Booking.TechnicianName).
			Str("customer", e.Booking.CustomerName).
			Str("profession", string(e.Booking.Profession)).
			Str("start", e.Booking.StartTime.Format(time.RFC3339)).
			Str("end", e.Booking.EndTime.Format(time.RFC3339)).
			Time("at", e.CreatedAt).
			Msg("audit")
		return nil
	}
	for _, t := range []string{BookingCreated, BookingCancelled, BookingConflict} {
		bus.Subscribe(t, write)
	}
}
