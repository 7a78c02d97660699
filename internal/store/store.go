// Package store persists bookings. Implementations list active bookings in
// insertion order.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"techbook/internal/models"
)

// Store is the booking persistence contract.
type Store interface {
	// Create persists b, assigning an id when it has none, and returns the id.
	Create(ctx context.Context, b *models.Booking) (string, error)
	// Get returns apperr NotFound for unknown ids. Cancelled bookings are returned.
	Get(ctx context.Context, id string) (*models.Booking, error)
	// ListActive returns active bookings in insertion order.
	ListActive(ctx context.Context) ([]models.Booking, error)
	// FindOverlap returns the earliest-inserted active booking of technician
	// whose interval overlaps iv, or nil when the slot is free. Technician
	// names compare case-insensitively.
	FindOverlap(ctx context.Context, technician string, iv models.Interval) (*models.Booking, error)
	// Cancel marks an active booking cancelled. Unknown or already
	// cancelled ids yield apperr NotFound.
	Cancel(ctx context.Context, id string) error
}

// prepare fills server-assigned fields before a booking is written.
func prepare(b *models.Booking, now time.Time) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.EndTime.IsZero() {
		b.EndTime = b.StartTime.Add(models.SlotDuration)
	}
	b.Status = models.StatusActive
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
}
