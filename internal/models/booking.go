package models

import (
	"strings"
	"time"
)

// SlotDuration is the fixed length of every booking.
const SlotDuration = time.Hour

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusActive    BookingStatus = "active"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking represents a technician booking record.
type Booking struct {
	ID             string        `json:"id"`
	CustomerName   string        `json:"customer_name"`
	TechnicianName string        `json:"technician_name"`
	Profession     Profession    `json:"profession"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Status         BookingStatus `json:"-"`
	CreatedAt      time.Time     `json:"-"`
}

// IsActive reports whether the booking still takes part in conflict checks.
func (b *Booking) IsActive() bool {
	return b.Status == "" || b.Status == StatusActive
}

// Interval returns the [start, end) span held by the booking.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// SameTechnician compares technician names case-insensitively.
func (b *Booking) SameTechnician(name string) bool {
	return NormalizeName(b.TechnicianName) == NormalizeName(name)
}

// NormalizeName folds a person name for comparisons.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Interval is a half-open [Start, End) time span.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSlot returns the fixed-duration interval beginning at start.
func NewSlot(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(SlotDuration)}
}

// OverlapsWith uses half-open [start, end) semantics, so back-to-back
// intervals do not overlap.
func (i Interval) OverlapsWith(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
