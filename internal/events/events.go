// Package events carries booking lifecycle notifications to in-process
// subscribers such as metrics and the audit log.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"techbook/internal/models"
)

const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	BookingConflict  = "booking.conflict"
)

// Event is a booking lifecycle notification.
type Event struct {
	Type      string
	Booking   models.Booking
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// Publisher is the sending side of the bus.
type Publisher interface {
	Publish(event Event)
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. logger may be nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously
// and their errors are logged, never returned to the publisher.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Str("booking_id", event.Booking.ID).Msg("event handler failed")
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}
