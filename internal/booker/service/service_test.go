package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"bookerregistry/internal/booker/metrics"
	"bookerregistry/internal/booker/models"
	"bookerregistry/internal/booker/store/authdetail"
	"bookerregistry/internal/booker/store/permission"
	"bookerregistry/internal/booker/store/visitorrequest"
	"bookerregistry/internal/events"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/audit/publisher"
	auditmemory "bookerregistry/pkg/platform/audit/store/memory"
	"bookerregistry/pkg/platform/sentinel"
	"bookerregistry/pkg/requestcontext"
)

type stubContacts struct {
	contacts []models.Contact
	err      error
}

func (s *stubContacts) GetContacts(context.Context, string) ([]models.Contact, error) {
	return s.contacts, s.err
}

type stubPrisoners struct {
	prisoners map[string]*models.Prisoner
	err       error
}

func (s *stubPrisoners) GetPrisoner(_ context.Context, id string) (*models.Prisoner, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.prisoners[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []events.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]events.Kind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

// failingLinks breaks LinkVisitor to simulate a graph write failure after the
// status flip.
type failingLinks struct {
	*permission.InMemoryStore
}

func (f failingLinks) LinkVisitor(context.Context, *models.PermittedVisitor) (bool, error) {
	return false, errors.New("disk full")
}

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	permissions *permission.InMemoryStore
	requests    *visitorrequest.InMemoryStore
	auditStore  *auditmemory.InMemoryStore
	contacts    *stubContacts
	prisoners   *stubPrisoners
	notifier    *recordingNotifier
	metrics     *metrics.Metrics
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.permissions = permission.NewInMemory()
	s.requests = visitorrequest.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.contacts = &stubContacts{}
	s.prisoners = &stubPrisoners{prisoners: map[string]*models.Prisoner{
		"A1234BC": {PrisonerNumber: "A1234BC", PrisonID: "HEI", FirstName: "JOHN", LastName: "SMITH"},
		"B5678DE": {PrisonerNumber: "B5678DE", PrisonID: "HEI", FirstName: "ADAM", LastName: "JONES"},
		"C9999ZZ": {PrisonerNumber: "C9999ZZ", PrisonID: "MDI", FirstName: "OLIVER", LastName: "TWIST"},
	}}
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.service = s.newService(s.permissions)
}

func (s *ServiceSuite) newService(permissions PermissionStore) *Service {
	return New(permissions, s.requests, NewShardedTx(),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithNotifier(s.notifier),
		WithAuthDetailStore(authdetail.NewInMemory()),
		WithContactLookup(s.contacts),
		WithPrisonerLookup(s.prisoners),
		WithMetrics(s.metrics),
	)
}

func (s *ServiceSuite) registerBookerWithPrisoner(email, prisonerID string) *models.Booker {
	b, err := s.service.RegisterBooker(s.ctx, email)
	s.Require().NoError(err)
	_, err = s.service.RegisterPrisoner(s.ctx, b.Reference, prisonerID, "HEI")
	s.Require().NoError(err)
	return b
}

func (s *ServiceSuite) candidate(first, last string) models.Candidate {
	return models.Candidate{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *ServiceSuite) auditActions(bookerRef string) []audit.Action {
	entries, err := s.service.GetBookerAudit(s.ctx, bookerRef)
	s.Require().NoError(err)
	out := make([]audit.Action, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) TestSubmitVisitorRequest() {
	s.Run("creates a requested entry with a reference", func() {
		b := s.registerBookerWithPrisoner("jane@example.com", "A1234BC")

		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)
		s.NotEmpty(req.Reference)
		s.Equal(models.StatusRequested, req.Status)
		s.Equal(s.now, req.CreatedAt)

		active, err := s.service.ListActiveVisitorRequests(s.ctx, b.Reference)
		s.Require().NoError(err)
		s.Len(active, 1)
		s.Contains(s.notifier.kinds(), events.KindVisitorRequestSubmitted)
		s.Contains(s.auditActions(b.Reference), audit.ActionVisitorRequestSubmitted)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestsSubmitted))
	})

	s.Run("unknown booker is not found", func() {
		_, err := s.service.SubmitVisitorRequest(s.ctx, "NOPE-NOPE-NOPE", "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank candidate name is a validation error", func() {
		b, err := s.service.RegisterBooker(s.ctx, "blank@example.com")
		s.Require().NoError(err)

		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate(" ", "Smith"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSubmitVisitorRequest_Violations() {
	s.Run("prisoner not registered for booker", func() {
		b, err := s.service.RegisterBooker(s.ctx, "noprisoner@example.com")
		s.Require().NoError(err)

		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		var ve *models.ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Equal([]models.ViolationCode{models.ViolationPrisonerNotFound}, ve.Codes)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate request matches names case-insensitively", func() {
		b := s.registerBookerWithPrisoner("dupe@example.com", "A1234BC")
		_, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)

		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate(" MARY ", "smith"))
		var ve *models.ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Equal([]models.ViolationCode{models.ViolationRequestAlreadyExists}, ve.Codes)
	})

	s.Run("in-progress limit counts across prisoners", func() {
		b := s.registerBookerWithPrisoner("limit@example.com", "A1234BC")
		_, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "B5678DE", "HEI")
		s.Require().NoError(err)

		for _, name := range []string{"One", "Two"} {
			_, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate(name, "Smith"))
			s.Require().NoError(err)
		}
		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "B5678DE", s.candidate("Three", "Smith"))
		s.Require().NoError(err)

		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "B5678DE", s.candidate("Four", "Smith"))
		var ve *models.ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Equal([]models.ViolationCode{models.ViolationMaxInProgressRequests}, ve.Codes)
		s.Equal(float64(1), testutil.ToFloat64(
			s.metrics.ValidationFailures.WithLabelValues(string(models.ViolationMaxInProgressRequests))))
	})

	s.Run("candidate already linked as a visitor", func() {
		b := s.registerBookerWithPrisoner("linked@example.com", "A1234BC")
		dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
		s.contacts.contacts = []models.Contact{{PersonID: 4321, FirstName: "MARY", LastName: "SMITH", DateOfBirth: &dob}}
		defer func() { s.contacts.contacts = nil }()
		_, _, err := s.service.LinkVisitor(s.ctx, b.Reference, "A1234BC", 4321)
		s.Require().NoError(err)

		_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("mary", "smith"))
		var ve *models.ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Equal([]models.ViolationCode{models.ViolationVisitorAlreadyExists}, ve.Codes)
	})

	s.Run("contact lookup failure is treated as no contacts", func() {
		b := s.registerBookerWithPrisoner("down@example.com", "A1234BC")
		_, _, err := s.service.LinkVisitor(s.ctx, b.Reference, "A1234BC", 4321)
		s.Require().NoError(err)
		s.contacts.err = sentinel.ErrUnavailable
		defer func() { s.contacts.err = nil }()

		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)
		s.NotEmpty(req.Reference)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.ContactLookupFailures))
	})
}

func (s *ServiceSuite) TestApproveVisitorRequest() {
	s.Run("approves and links the visitor", func() {
		b := s.registerBookerWithPrisoner("approve@example.com", "A1234BC")
		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)

		approved, err := s.service.ApproveVisitorRequest(s.ctx, req.Reference, 777)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, approved.Status)
		s.Require().NotNil(approved.VisitorID)
		s.Equal(int64(777), *approved.VisitorID)

		visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "A1234BC")
		s.Require().NoError(err)
		s.Require().Len(visitors, 1)
		s.Equal(int64(777), visitors[0].VisitorID)

		active, err := s.service.ListActiveVisitorRequests(s.ctx, b.Reference)
		s.Require().NoError(err)
		s.Empty(active)
	})

	s.Run("second approval is a conflict", func() {
		b := s.registerBookerWithPrisoner("twice@example.com", "A1234BC")
		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)
		_, err = s.service.ApproveVisitorRequest(s.ctx, req.Reference, 1)
		s.Require().NoError(err)

		_, err = s.service.ApproveVisitorRequest(s.ctx, req.Reference, 2)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.RejectVisitorRequest(s.ctx, req.Reference, "REJECT")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.service.GetVisitorRequest(s.ctx, req.Reference)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, stored.Status)
		s.Require().NotNil(stored.VisitorID)
		s.Equal(int64(1), *stored.VisitorID)
		s.Nil(stored.RejectionReason)

		visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "A1234BC")
		s.Require().NoError(err)
		s.Require().Len(visitors, 1)
		s.Equal(int64(1), visitors[0].VisitorID)
		s.Equal([]audit.Action{
			audit.ActionBookerCreated,
			audit.ActionPrisonerRegistered,
			audit.ActionVisitorRequestSubmitted,
			audit.ActionVisitorRequestApproved,
		}, s.auditActions(b.Reference))
	})

	s.Run("unknown reference is not found", func() {
		_, err := s.service.ApproveVisitorRequest(s.ctx, "ABCD-EFGH-JKLM", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-positive visitor id is rejected", func() {
		_, err := s.service.ApproveVisitorRequest(s.ctx, "ABCD-EFGH-JKLM", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestApproveVisitorRequest_ConcurrentSingleWinner() {
	b := s.registerBookerWithPrisoner("race@example.com", "A1234BC")
	req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
	s.Require().NoError(err)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func(visitorID int64) {
			defer wg.Done()
			_, err := s.service.ApproveVisitorRequest(s.ctx, req.Reference, visitorID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(workers-1, conflicts)

	visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "A1234BC")
	s.Require().NoError(err)
	s.Len(visitors, 1)

	approvals := 0
	for _, a := range s.auditActions(b.Reference) {
		if a == audit.ActionVisitorRequestApproved {
			approvals++
		}
	}
	s.Equal(1, approvals)

	approvedEvents := 0
	for _, k := range s.notifier.kinds() {
		if k == events.KindVisitorRequestApproved {
			approvedEvents++
		}
	}
	s.Equal(1, approvedEvents)
}

func (s *ServiceSuite) TestApproveVisitorRequest_LinkFailure() {
	b := s.registerBookerWithPrisoner("broken@example.com", "A1234BC")
	req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
	s.Require().NoError(err)

	broken := s.newService(failingLinks{s.permissions})
	_, err = broken.ApproveVisitorRequest(s.ctx, req.Reference, 99)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ApprovalInconsistencies))
	s.NotContains(s.notifier.kinds(), events.KindVisitorRequestApproved)
}

func (s *ServiceSuite) TestRejectVisitorRequest() {
	s.Run("rejects without touching the graph", func() {
		b := s.registerBookerWithPrisoner("reject@example.com", "A1234BC")
		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)

		rejected, err := s.service.RejectVisitorRequest(s.ctx, req.Reference, "already_linked")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)
		s.Require().NotNil(rejected.RejectionReason)
		s.Equal(models.RejectionAlreadyLinked, *rejected.RejectionReason)

		visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "A1234BC")
		s.Require().NoError(err)
		s.Empty(visitors)
	})

	s.Run("unknown reason is a validation error", func() {
		b := s.registerBookerWithPrisoner("reason@example.com", "A1234BC")
		req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
		s.Require().NoError(err)

		_, err = s.service.RejectVisitorRequest(s.ctx, req.Reference, "BECAUSE")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		got, err := s.service.GetVisitorRequest(s.ctx, req.Reference)
		s.Require().NoError(err)
		s.Equal(models.StatusRequested, got.Status)
	})
}

func (s *ServiceSuite) TestListVisitorRequestsForPrison() {
	b := s.registerBookerWithPrisoner("prison@example.com", "A1234BC")
	_, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "C9999ZZ", "MDI")
	s.Require().NoError(err)
	_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
	s.Require().NoError(err)
	_, err = s.service.SubmitVisitorRequest(s.ctx, b.Reference, "C9999ZZ", s.candidate("Tom", "Twist"))
	s.Require().NoError(err)

	hei, err := s.service.ListVisitorRequestsForPrison(s.ctx, "HEI")
	s.Require().NoError(err)
	s.Require().Len(hei, 1)
	s.Equal("A1234BC", hei[0].PrisonerID)

	none, err := s.service.ListVisitorRequestsForPrison(s.ctx, "XYZ")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ServiceSuite) TestRegisterBooker() {
	s.Run("email is unique case-insensitively", func() {
		_, err := s.service.RegisterBooker(s.ctx, "Same@Example.com")
		s.Require().NoError(err)

		_, err = s.service.RegisterBooker(s.ctx, "same@example.COM")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		found, err := s.service.SearchBookers(s.ctx, "SAME@example.com")
		s.Require().NoError(err)
		s.Len(found, 1)
	})

	s.Run("invalid email", func() {
		_, err := s.service.RegisterBooker(s.ctx, "not-an-email")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("creation is audited", func() {
		b, err := s.service.RegisterBooker(s.ctx, "audited@example.com")
		s.Require().NoError(err)
		s.Equal([]audit.Action{audit.ActionBookerCreated}, s.auditActions(b.Reference))
	})
}

func (s *ServiceSuite) TestAuthenticateBooker() {
	detail := models.AuthDetail{AuthReference: "sub-123", Email: "login@example.com"}

	first, err := s.service.AuthenticateBooker(s.ctx, detail)
	s.Require().NoError(err)
	second, err := s.service.AuthenticateBooker(s.ctx, detail)
	s.Require().NoError(err)

	s.Equal(first.Reference, second.Reference)
	s.Equal([]audit.Action{audit.ActionBookerCreated, audit.ActionBookerFirstLogin}, s.auditActions(first.Reference))

	count, err := s.service.RecordAuthDetail(s.ctx, detail)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *ServiceSuite) TestRegisterPrisoner() {
	b, err := s.service.RegisterBooker(s.ctx, "prisoners@example.com")
	s.Require().NoError(err)

	s.Run("unknown prisoner is a validation error", func() {
		_, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "Z0000ZZ", "HEI")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("prison mismatch is a validation error", func() {
		_, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "A1234BC", "MDI")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("prisoner search outage is unavailable", func() {
		s.prisoners.err = sentinel.ErrUnavailable
		defer func() { s.prisoners.err = nil }()
		_, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "A1234BC", "HEI")
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("registers and rejects duplicates", func() {
		p, err := s.service.RegisterPrisoner(s.ctx, b.Reference, "a1234bc", "hei")
		s.Require().NoError(err)
		s.Equal("A1234BC", p.PrisonerID)
		s.Equal("HEI", p.PrisonCode)
		s.True(p.Active)
		s.Contains(s.notifier.kinds(), events.KindPrisonerRegistered)

		_, err = s.service.RegisterPrisoner(s.ctx, b.Reference, "A1234BC", "HEI")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown booker is not found", func() {
		_, err := s.service.RegisterPrisoner(s.ctx, "NOPE-NOPE-NOPE", "A1234BC", "HEI")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestPrisonerIDMatchesRegardlessOfCase() {
	b, err := s.service.RegisterBooker(s.ctx, "lowercase@example.com")
	s.Require().NoError(err)
	_, err = s.service.RegisterPrisoner(s.ctx, b.Reference, "a1234bc", "hei")
	s.Require().NoError(err)

	req, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "a1234bc", s.candidate("Mary", "Smith"))
	s.Require().NoError(err)
	s.Equal("A1234BC", req.PrisonerID)

	_, created, err := s.service.LinkVisitor(s.ctx, b.Reference, " a1234bc ", 55)
	s.Require().NoError(err)
	s.True(created)

	visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "a1234bc")
	s.Require().NoError(err)
	s.Require().Len(visitors, 1)
	s.Equal(int64(55), visitors[0].VisitorID)

	s.Require().NoError(s.service.SetVisitorActive(s.ctx, b.Reference, "a1234Bc", 55, false))
	s.Require().NoError(s.service.SetPrisonerActive(s.ctx, b.Reference, "a1234bc", false))

	prisoners, err := s.service.ListPrisoners(s.ctx, b.Reference)
	s.Require().NoError(err)
	s.Require().Len(prisoners, 1)
	s.False(prisoners[0].Active)
}

func (s *ServiceSuite) TestUpdatePrisonerPrisonCode() {
	b := s.registerBookerWithPrisoner("move@example.com", "A1234BC")
	s.prisoners.prisoners["A1234BC"] = &models.Prisoner{PrisonerNumber: "A1234BC", PrisonID: "MDI"}

	p, err := s.service.UpdatePrisonerPrisonCode(s.ctx, b.Reference, "A1234BC", "MDI")
	s.Require().NoError(err)
	s.Equal("MDI", p.PrisonCode)

	_, err = s.service.UpdatePrisonerPrisonCode(s.ctx, b.Reference, "B5678DE", "MDI")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestLinkVisitorAndActivation() {
	b := s.registerBookerWithPrisoner("links@example.com", "A1234BC")

	_, created, err := s.service.LinkVisitor(s.ctx, b.Reference, "A1234BC", 55)
	s.Require().NoError(err)
	s.True(created)
	_, created, err = s.service.LinkVisitor(s.ctx, b.Reference, "A1234BC", 55)
	s.Require().NoError(err)
	s.False(created)

	s.Require().NoError(s.service.SetVisitorActive(s.ctx, b.Reference, "A1234BC", 55, false))
	visitors, err := s.service.ListVisitors(s.ctx, b.Reference, "A1234BC")
	s.Require().NoError(err)
	s.Require().Len(visitors, 1)
	s.False(visitors[0].Active)

	s.Require().NoError(s.service.SetPrisonerActive(s.ctx, b.Reference, "A1234BC", false))
	prisoners, err := s.service.ListPrisoners(s.ctx, b.Reference)
	s.Require().NoError(err)
	s.Require().Len(prisoners, 1)
	s.False(prisoners[0].Active)

	err = s.service.SetVisitorActive(s.ctx, b.Reference, "A1234BC", 999, true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, _, err = s.service.LinkVisitor(s.ctx, b.Reference, "B5678DE", 55)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Equal([]audit.Action{
		audit.ActionBookerCreated,
		audit.ActionPrisonerRegistered,
		audit.ActionVisitorLinked,
		audit.ActionVisitorDeactivated,
		audit.ActionPrisonerDeactivated,
	}, s.auditActions(b.Reference))
}

func (s *ServiceSuite) TestClearBookerDetails() {
	b := s.registerBookerWithPrisoner("clear@example.com", "A1234BC")
	pending, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Mary", "Smith"))
	s.Require().NoError(err)
	actioned, err := s.service.SubmitVisitorRequest(s.ctx, b.Reference, "A1234BC", s.candidate("Tom", "Smith"))
	s.Require().NoError(err)
	_, err = s.service.ApproveVisitorRequest(s.ctx, actioned.Reference, 5)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ClearBookerDetails(s.ctx, b.Reference))

	prisoners, err := s.service.ListPrisoners(s.ctx, b.Reference)
	s.Require().NoError(err)
	s.Empty(prisoners)

	_, err = s.service.GetVisitorRequest(s.ctx, pending.Reference)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	kept, err := s.service.GetVisitorRequest(s.ctx, actioned.Reference)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, kept.Status)

	booker, err := s.service.GetBooker(s.ctx, b.Reference)
	s.Require().NoError(err)
	s.Equal(b.Reference, booker.Reference)

	s.Equal([]audit.Action{audit.ActionBookerDetailsCleared}, s.auditActions(b.Reference))

	err = s.service.ClearBookerDetails(s.ctx, "NOPE-NOPE-NOPE")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestShardedTx_CancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := NewShardedTx().RunInTx(ctx, "BOOK-ER", func(context.Context) error {
		called = true
		return nil
	})
	s.False(called)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestShardedTx_SerialisesPerBooker() {
	tx := NewShardedTx()
	var (
		wg      sync.WaitGroup
		running int
		peak    int
		mu      sync.Mutex
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tx.RunInTx(s.ctx, "SAME-BOOKER", func(context.Context) error {
				mu.Lock()
				running++
				peak = max(peak, running)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	s.Equal(1, peak)
}
