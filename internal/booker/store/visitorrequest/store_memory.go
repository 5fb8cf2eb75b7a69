package visitorrequest

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/ids"
	"bookerregistry/pkg/platform/sentinel"
)

// InMemoryStore holds visitor requests behind one mutex; transitions are a
// compare-and-swap on the status under that lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*models.VisitorRequest
}

// NewInMemory creates an empty visitor request store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{requests: make(map[string]*models.VisitorRequest)}
}

// Create inserts a REQUESTED request and assigns its reference.
func (s *InMemoryStore) Create(_ context.Context, req *models.VisitorRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := ids.NewReferenceAt(req.CreatedAt)
	stored := req.Clone()
	stored.Reference = ref
	stored.Status = models.StatusRequested
	s.requests[ref] = stored
	req.Reference = ref
	req.Status = models.StatusRequested
	return nil
}

func (s *InMemoryStore) FindByReference(_ context.Context, ref string) (*models.VisitorRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

// ListActiveForBooker returns the booker's REQUESTED requests in submission order.
func (s *InMemoryStore) ListActiveForBooker(_ context.Context, bookerRef string) ([]*models.VisitorRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VisitorRequest
	for _, req := range s.requests {
		if req.BookerReference == bookerRef && req.Status == models.StatusRequested {
			out = append(out, req.Clone())
		}
	}
	sortBySubmission(out)
	return out, nil
}

// ListActiveForPrisoners returns REQUESTED requests for any of the pairs.
func (s *InMemoryStore) ListActiveForPrisoners(_ context.Context, keys []models.PrisonerKey) ([]*models.VisitorRequest, error) {
	wanted := make(map[models.PrisonerKey]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VisitorRequest
	for _, req := range s.requests {
		if req.Status != models.StatusRequested {
			continue
		}
		if _, ok := wanted[req.PrisonerKey()]; ok {
			out = append(out, req.Clone())
		}
	}
	sortBySubmission(out)
	return out, nil
}

// TransitionToApproved moves a REQUESTED request to APPROVED. Returns
// sentinel.ErrInvalidState when the request was already actioned.
func (s *InMemoryStore) TransitionToApproved(_ context.Context, ref string, visitorID int64, at time.Time) (*models.VisitorRequest, error) {
	return s.transition(ref, func(req *models.VisitorRequest) {
		req.ApplyApproval(visitorID, at)
	})
}

// TransitionToRejected moves a REQUESTED request to REJECTED. Returns
// sentinel.ErrInvalidState when the request was already actioned.
func (s *InMemoryStore) TransitionToRejected(_ context.Context, ref string, reason models.RejectionReason, at time.Time) (*models.VisitorRequest, error) {
	return s.transition(ref, func(req *models.VisitorRequest) {
		req.ApplyRejection(reason, at)
	})
}

func (s *InMemoryStore) transition(ref string, apply func(*models.VisitorRequest)) (*models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != models.StatusRequested {
		return nil, sentinel.ErrInvalidState
	}
	apply(req)
	return req.Clone(), nil
}

// DeleteRequested removes the pair's REQUESTED requests; actioned requests stay.
func (s *InMemoryStore) DeleteRequested(_ context.Context, bookerRef, prisonerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ref, req := range s.requests {
		if req.BookerReference == bookerRef && req.PrisonerID == prisonerID && req.Status == models.StatusRequested {
			delete(s.requests, ref)
			n++
		}
	}
	return n, nil
}

func sortBySubmission(reqs []*models.VisitorRequest) {
	slices.SortFunc(reqs, func(a, b *models.VisitorRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Reference, b.Reference)
	})
}
