package permission

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/ids"
	"bookerregistry/pkg/platform/sentinel"
	"bookerregistry/pkg/platform/strings"
	"bookerregistry/pkg/requestcontext"
)

type visitorKey struct {
	models.PrisonerKey
	VisitorID int64
}

// InMemoryStore keeps the permission graph as keyed arenas. Records are copied
// on the way in and out so callers never share state with the store.
type InMemoryStore struct {
	mu        sync.RWMutex
	bookers   map[string]*models.Booker
	byEmail   map[string]string
	prisoners map[models.PrisonerKey]*models.PermittedPrisoner
	visitors  map[visitorKey]*models.PermittedVisitor
}

// NewInMemory creates an empty permission graph.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		bookers:   make(map[string]*models.Booker),
		byEmail:   make(map[string]string),
		prisoners: make(map[models.PrisonerKey]*models.PermittedPrisoner),
		visitors:  make(map[visitorKey]*models.PermittedVisitor),
	}
}

func (s *InMemoryStore) CreateBooker(ctx context.Context, email string) (*models.Booker, error) {
	key := strings.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return nil, sentinel.ErrAlreadyUsed
	}
	now := requestcontext.Now(ctx)
	b := &models.Booker{
		Reference: ids.NewReferenceAt(now),
		Email:     email,
		CreatedAt: now,
	}
	s.bookers[b.Reference] = b
	s.byEmail[key] = b.Reference
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) FindBookerByReference(_ context.Context, ref string) (*models.Booker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookers[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) FindBookersByEmail(_ context.Context, email string) ([]*models.Booker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.byEmail[strings.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	cp := *s.bookers[ref]
	return []*models.Booker{&cp}, nil
}

func (s *InMemoryStore) CreatePrisoner(ctx context.Context, p *models.PermittedPrisoner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookers[p.BookerReference]; !ok {
		return sentinel.ErrNotFound
	}
	key := p.Key()
	if _, exists := s.prisoners[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = requestcontext.Now(ctx)
	}
	cp := *p
	s.prisoners[key] = &cp
	return nil
}

func (s *InMemoryStore) FindPrisoner(_ context.Context, bookerRef, prisonerID string) (*models.PermittedPrisoner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prisoners[models.PrisonerKey{BookerReference: bookerRef, PrisonerID: prisonerID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListPrisoners(_ context.Context, bookerRef string) ([]*models.PermittedPrisoner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PermittedPrisoner
	for key, p := range s.prisoners {
		if key.BookerReference == bookerRef {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPrisoners(out)
	return out, nil
}

func (s *InMemoryStore) ListPrisonersByPrison(_ context.Context, prisonCode string) ([]*models.PermittedPrisoner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PermittedPrisoner
	for _, p := range s.prisoners {
		if p.PrisonCode == prisonCode {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPrisoners(out)
	return out, nil
}

func (s *InMemoryStore) UpdatePrisonCode(_ context.Context, bookerRef, prisonerID, prisonCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prisoners[models.PrisonerKey{BookerReference: bookerRef, PrisonerID: prisonerID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.PrisonCode = prisonCode
	return nil
}

func (s *InMemoryStore) SetPrisonerActive(_ context.Context, bookerRef, prisonerID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prisoners[models.PrisonerKey{BookerReference: bookerRef, PrisonerID: prisonerID}]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Active = active
	return nil
}

func (s *InMemoryStore) ListVisitors(_ context.Context, bookerRef, prisonerID string) ([]*models.PermittedVisitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pk := models.PrisonerKey{BookerReference: bookerRef, PrisonerID: prisonerID}
	var out []*models.PermittedVisitor
	for key, v := range s.visitors {
		if key.PrisonerKey == pk {
			cp := *v
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.PermittedVisitor) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.VisitorID, b.VisitorID)
	})
	return out, nil
}

// LinkVisitor adds the visitor under the prisoner. An existing link is left
// untouched and reported with created=false.
func (s *InMemoryStore) LinkVisitor(ctx context.Context, v *models.PermittedVisitor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := models.PrisonerKey{BookerReference: v.BookerReference, PrisonerID: v.PrisonerID}
	if _, ok := s.prisoners[pk]; !ok {
		return false, sentinel.ErrNotFound
	}
	key := visitorKey{PrisonerKey: pk, VisitorID: v.VisitorID}
	if _, exists := s.visitors[key]; exists {
		return false, nil
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = requestcontext.Now(ctx)
	}
	cp := *v
	s.visitors[key] = &cp
	return true, nil
}

func (s *InMemoryStore) SetVisitorActive(_ context.Context, bookerRef, prisonerID string, visitorID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := visitorKey{
		PrisonerKey: models.PrisonerKey{BookerReference: bookerRef, PrisonerID: prisonerID},
		VisitorID:   visitorID,
	}
	v, ok := s.visitors[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	v.Active = active
	return nil
}

// DeletePrisoners removes every prisoner of the booker and the visitors under them.
func (s *InMemoryStore) DeletePrisoners(_ context.Context, bookerRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.visitors {
		if key.BookerReference == bookerRef {
			delete(s.visitors, key)
		}
	}
	for key := range s.prisoners {
		if key.BookerReference == bookerRef {
			delete(s.prisoners, key)
		}
	}
	return nil
}

func sortPrisoners(ps []*models.PermittedPrisoner) {
	slices.SortFunc(ps, func(a, b *models.PermittedPrisoner) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.BookerReference, b.BookerReference); c != 0 {
			return c
		}
		return cmp.Compare(a.PrisonerID, b.PrisonerID)
	})
}
