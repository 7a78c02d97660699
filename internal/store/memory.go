package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"techbook/internal/apperr"
	"techbook/internal/models"
)

// Memory is a mutex-guarded in-process store.
type Memory struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string
}

func NewMemory() *Memory {
	return &Memory{bookings: make(map[string]*models.Booking)}
}

func (m *Memory) Create(_ context.Context, b *models.Booking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(b, time.Now())
	if _, exists := m.bookings[b.ID]; exists {
		return "", fmt.Errorf("booking %s already exists", b.ID)
	}
	cp := *b
	m.bookings[b.ID] = &cp
	m.order = append(m.order, b.ID)
	return b.ID, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, apperr.NotFound(id)
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) ListActive(_ context.Context) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Booking, 0, len(m.order))
	for _, id := range m.order {
		if b := m.bookings[id]; b.IsActive() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *Memory) FindOverlap(_ context.Context, technician string, iv models.Interval) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		b := m.bookings[id]
		if b.IsActive() && b.SameTechnician(technician) && b.Interval().OverlapsWith(iv) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || !b.IsActive() {
		return apperr.NotFound(id)
	}
	b.Status = models.StatusCancelled
	return nil
}
