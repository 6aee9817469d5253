package memory

import (
	"context"
	"sync"

	id "faircircle/pkg/domain"
	audit "faircircle/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.CircleID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.CircleID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.CircleID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CircleID] = append(s.events[event.CircleID], event)
	return nil
}

func (s *InMemoryStore) ListByCircle(_ context.Context, circleID id.CircleID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[circleID]...), nil
}

// ListAll returns all audit events across all circles (admin-only operation)
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allEvents []audit.Event
	for _, circleEvents := range s.events {
		allEvents = append(allEvents, circleEvents...)
	}
	return allEvents, nil
}
