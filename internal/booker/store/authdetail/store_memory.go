package authdetail

import (
	"context"
	"sync"

	"bookerregistry/internal/booker/models"
)

// InMemoryStore counts logins per auth reference.
type InMemoryStore struct {
	mu      sync.Mutex
	details map[string]models.AuthDetail
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{details: make(map[string]models.AuthDetail)}
}

// IncrementAndGet records one login for the detail's auth reference, refreshes
// the contact fields and returns the new count.
func (s *InMemoryStore) IncrementAndGet(_ context.Context, detail models.AuthDetail) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.details[detail.AuthReference]
	detail.Count = existing.Count + 1
	s.details[detail.AuthReference] = detail
	return detail.Count, nil
}
