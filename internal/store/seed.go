package store

import (
	"context"
	"fmt"
	"time"

	"techbook/internal/models"
)

// SeedBookings returns the initial demo data with start times in loc.
func SeedBookings(loc *time.Location) []models.Booking {
	if loc == nil {
		loc = time.UTC
	}
	at := func(month time.Month, day, hour int) time.Time {
		return time.Date(2022, month, day, hour, 0, 0, 0, loc)
	}
	return []models.Booking{
		{CustomerName: "Nicolas Woollett", TechnicianName: "Nicolas Woollett", Profession: models.Plumber, StartTime: at(time.October, 15, 10)},
		{CustomerName: "Franky Flay", TechnicianName: "Franky Flay", Profession: models.Electrician, StartTime: at(time.October, 16, 18)},
		{CustomerName: "Griselda Dickson", TechnicianName: "Griselda Dickson", Profession: models.Welder, StartTime: at(time.October, 18, 11)},
	}
}

// Seed writes the demo bookings straight into s. It skips the conflict
// engine, so it must run before the store is shared.
func Seed(ctx context.Context, s Store, loc *time.Location) error {
	for _, b := range SeedBookings(loc) {
		b := b
		if _, err := s.Create(ctx, &b); err != nil {
			return fmt.Errorf("seed booking for %s: %w", b.TechnicianName, err)
		}
	}
	return nil
}
