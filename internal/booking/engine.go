// Package booking owns the rule that no two active bookings of the same
// technician overlap. All mutations of the booking collection go through
// Engine.
package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"techbook/internal/apperr"
	"techbook/internal/events"
	"techbook/internal/models"
	"techbook/internal/store"
)

const conflictTimeLayout = "2006-01-02 03:04 PM"

// Engine serializes check-and-reserve and cancellation behind one mutex.
type Engine struct {
	mu     sync.Mutex
	store  store.Store
	bus    events.Publisher
	now    func() time.Time
	logger *zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for futurity checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher sends lifecycle events to p.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.bus = p }
}

func NewEngine(s store.Store, logger *zerolog.Logger, opts ...Option) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	e := &Engine{store: s, bus: events.Nop{}, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckAndReserve stores b unless it overlaps an active booking of the same
// technician. The end time is derived from the start when unset. The
// returned booking carries the assigned id.
func (e *Engine) CheckAndReserve(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if err := checkShape(b); err != nil {
		return nil, err
	}
	candidate := *b
	candidate.TechnicianName = strings.TrimSpace(candidate.TechnicianName)
	candidate.CustomerName = strings.TrimSpace(candidate.CustomerName)
	if candidate.EndTime.IsZero() {
		candidate.EndTime = candidate.StartTime.Add(models.SlotDuration)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.FindOverlap(ctx, candidate.TechnicianName, candidate.Interval())
	if err != nil {
		return nil, fmt.Errorf("find overlapping booking: %w", err)
	}
	if existing != nil {
		e.logger.Info().
			Str("technician", candidate.TechnicianName).
			Str("existing_booking_id", existing.ID).
			Time("start", candidate.StartTime).
			Msg("booking conflict")
		e.bus.Publish(events.Event{Type: events.BookingConflict, Booking: candidate})
		return nil, apperr.Conflict(existing.ID, fmt.Sprintf(
			"Time conflict: %s is already booked from %s to %s.",
			candidate.TechnicianName,
			existing.StartTime.Format(conflictTimeLayout),
			existing.EndTime.Format(conflictTimeLayout),
		))
	}

	if _, err := e.store.Create(ctx, &candidate); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	e.logger.Info().
		Str("booking_id", candidate.ID).
		Str("technician", candidate.TechnicianName).
		Time("start", candidate.StartTime).
		Msg("booking created")
	e.bus.Publish(events.Event{Type: events.BookingCreated, Booking: candidate})
	return &candidate, nil
}

// Create is the structured entry point. Unlike CheckAndReserve it validates
// the profession and requires the start to be strictly in the future.
func (e *Engine) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if b == nil {
		return nil, apperr.Validation("booking is required")
	}
	p, ok := models.ParseProfession(string(b.Profession))
	if !ok {
		return nil, apperr.Validation("unsupported profession %q", b.Profession).
			With("valid_professions", models.Professions)
	}
	if !b.StartTime.After(e.now()) {
		return nil, apperr.Validation("cannot book a technician in the past").
			With("start_time", b.StartTime.Format(time.RFC3339))
	}
	cp := *b
	cp.Profession = p
	return e.CheckAndReserve(ctx, &cp)
}

// Cancel moves an active booking to cancelled.
func (e *Engine) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	id = normalizeID(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Cancel(ctx, id); err != nil {
		return nil, err
	}
	b, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e.logger.Info().Str("booking_id", id).Msg("booking cancelled")
	e.bus.Publish(events.Event{Type: events.BookingCancelled, Booking: *b})
	return b, nil
}

// Get treats cancelled bookings as gone.
func (e *Engine) Get(ctx context.Context, id string) (*models.Booking, error) {
	id = normalizeID(id)
	b, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive() {
		return nil, apperr.NotFound(id)
	}
	return b, nil
}

func (e *Engine) List(ctx context.Context) ([]models.Booking, error) {
	return e.store.ListActive(ctx)
}

// normalizeID folds ids to the lowercase form the store assigns.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func checkShape(b *models.Booking) error {
	if b == nil {
		return apperr.Validation("booking is required")
	}
	if strings.TrimSpace(b.TechnicianName) == "" {
		return apperr.Validation("technician name is required")
	}
	if b.StartTime.IsZero() {
		return apperr.Validation("start time is required")
	}
	if !b.EndTime.IsZero() && !b.EndTime.Equal(b.StartTime.Add(models.SlotDuration)) {
		return apperr.Validation("all bookings must be exactly one hour long")
	}
	return nil
}
