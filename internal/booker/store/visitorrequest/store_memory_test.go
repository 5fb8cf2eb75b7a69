package visitorrequest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) create(bookerRef, prisonerID string, offset time.Duration) *models.VisitorRequest {
	req := models.NewVisitorRequest(bookerRef, prisonerID, models.Candidate{
		FirstName:   "Ann",
		LastName:    "Lee",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}, s.now.Add(offset))
	s.Require().NoError(s.store.Create(s.ctx, req))
	return req
}

func (s *InMemoryStoreSuite) TestCreateAssignsReference() {
	req := s.create("b1", "A1", 0)
	s.NotEmpty(req.Reference)

	found, err := s.store.FindByReference(s.ctx, req.Reference)
	s.Require().NoError(err)
	s.Equal(models.StatusRequested, found.Status)
	s.Equal("Ann", found.FirstName)

	_, err = s.store.FindByReference(s.ctx, "unknown")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListActiveForBookerInSubmissionOrder() {
	second := s.create("b1", "A1", time.Minute)
	first := s.create("b1", "A2", 0)
	other := s.create("b2", "A1", 0)
	actioned := s.create("b1", "A3", 2*time.Minute)
	_, err := s.store.TransitionToRejected(s.ctx, actioned.Reference, models.RejectionReject, s.now)
	s.Require().NoError(err)

	active, err := s.store.ListActiveForBooker(s.ctx, "b1")
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(first.Reference, active[0].Reference)
	s.Equal(second.Reference, active[1].Reference)

	byPair, err := s.store.ListActiveForPrisoners(s.ctx, []models.PrisonerKey{{BookerReference: "b2", PrisonerID: "A1"}})
	s.Require().NoError(err)
	s.Require().Len(byPair, 1)
	s.Equal(other.Reference, byPair[0].Reference)
}

func (s *InMemoryStoreSuite) TestTransitions() {
	s.Run("approve sets visitor and actioned time", func() {
		req := s.create("b1", "A1", 0)
		updated, err := s.store.TransitionToApproved(s.ctx, req.Reference, 42, s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)
		s.Equal(int64(42), *updated.VisitorID)
		s.Equal(s.now, *updated.ActionedAt)
	})

	s.Run("second transition is not applicable", func() {
		req := s.create("b1", "A1", 0)
		_, err := s.store.TransitionToRejected(s.ctx, req.Reference, models.RejectionAlreadyLinked, s.now)
		s.Require().NoError(err)

		_, err = s.store.TransitionToApproved(s.ctx, req.Reference, 1, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
		_, err = s.store.TransitionToRejected(s.ctx, req.Reference, models.RejectionReject, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByReference(s.ctx, req.Reference)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, found.Status)
		s.Equal(models.RejectionAlreadyLinked, *found.RejectionReason)
	})

	s.Run("unknown reference", func() {
		_, err := s.store.TransitionToApproved(s.ctx, "missing", 1, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentTransitionsHaveOneWinner races approvers and rejecters on the
// same request.
func (s *InMemoryStoreSuite) TestConcurrentTransitionsHaveOneWinner() {
	req := s.create("b1", "A1", 0)
	const goroutines = 64

	var (
		wg        sync.WaitGroup
		winners   atomic.Int32
		conflicts atomic.Int32
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = s.store.TransitionToApproved(s.ctx, req.Reference, int64(i), s.now)
			} else {
				_, err = s.store.TransitionToRejected(s.ctx, req.Reference, models.RejectionReject, s.now)
			}
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), winners.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *InMemoryStoreSuite) TestDeleteRequestedKeepsActioned() {
	pending := s.create("b1", "A1", 0)
	approved := s.create("b1", "A1", time.Second)
	otherPrisoner := s.create("b1", "A2", 0)
	_, err := s.store.TransitionToApproved(s.ctx, approved.Reference, 5, s.now)
	s.Require().NoError(err)

	n, err := s.store.DeleteRequested(s.ctx, "b1", "A1")
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.store.FindByReference(s.ctx, pending.Reference)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByReference(s.ctx, approved.Reference)
	s.NoError(err)
	_, err = s.store.FindByReference(s.ctx, otherPrisoner.Reference)
	s.NoError(err)
}
