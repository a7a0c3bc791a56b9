package pii

import (
	"context"
	"sync"
	"time"
)

// InMemoryAuditDB keeps the most recent audit events in memory
type InMemoryAuditDB struct {
	mu         sync.Mutex
	events     []AuditEvent
	nextID     int64
	maxEntries int
}

// NewInMemoryAuditDB creates an in-memory audit store retaining at most limit events
func NewInMemoryAuditDB(limit int) *InMemoryAuditDB {
	return &InMemoryAuditDB{maxEntries: maxEntries(limit)}
}

// InsertEvent records an event, dropping the oldest beyond the retention limit
func (m *InMemoryAuditDB) InsertEvent(ctx context.Context, event AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.EntityTypes = append([]string{}, event.EntityTypes...)
	event.Contributors = append([]string{}, event.Contributors...)

	m.events = append(m.events, event)
	if over := len(m.events) - m.maxEntries; over > 0 {
		m.events = append([]AuditEvent(nil), m.events[over:]...)
	}
	return nil
}

// ListEvents returns events newest first
func (m *InMemoryAuditDB) ListEvents(ctx context.Context, limit, offset int) ([]AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := []AuditEvent{}
	if offset < 0 {
		offset = 0
	}
	for i := len(m.events) - 1 - offset; i >= 0 && len(events) < limit; i-- {
		events = append(events, m.events[i])
	}
	return events, nil
}

// CountEvents returns the number of retained events
func (m *InMemoryAuditDB) CountEvents(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events), nil
}

// ClearEvents removes all events
func (m *InMemoryAuditDB) ClearEvents(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}

// Close is a no-op for in-memory storage
func (m *InMemoryAuditDB) Close() error {
	return nil
}
