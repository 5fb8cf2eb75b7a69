package memory

import (
	"context"
	"sync"

	audit "bookerregistry/pkg/platform/audit"
)

// InMemoryStore keeps audit trails per booker in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.BookerReference] = append(s.events[event.BookerReference], event)
	return nil
}

func (s *InMemoryStore) ListByBooker(_ context.Context, bookerReference string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[bookerReference]...), nil
}

func (s *InMemoryStore) DeleteByBooker(_ context.Context, bookerReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, bookerReference)
	return nil
}
