// Package service orchestrates the booker permission graph and the visitor
// request workflow.
//
// State changes run inside StoreTx.RunInTx together with their audit entry.
// Domain events are published only after the transaction has committed and
// never fail the operation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookerregistry/internal/booker/metrics"
	"bookerregistry/internal/booker/models"
	"bookerregistry/internal/events"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/sentinel"
)

const tracerName = "bookerregistry/internal/booker/service"

// DefaultMaxInProgressRequests bounds a booker's REQUESTED visitor requests.
const DefaultMaxInProgressRequests = 3

type PermissionStore interface {
	CreateBooker(ctx context.Context, email string) (*models.Booker, error)
	FindBookerByReference(ctx context.Context, ref string) (*models.Booker, error)
	FindBookersByEmail(ctx context.Context, email string) ([]*models.Booker, error)
	CreatePrisoner(ctx context.Context, p *models.PermittedPrisoner) error
	FindPrisoner(ctx context.Context, bookerRef, prisonerID string) (*models.PermittedPrisoner, error)
	ListPrisoners(ctx context.Context, bookerRef string) ([]*models.PermittedPrisoner, error)
	ListPrisonersByPrison(ctx context.Context, prisonCode string) ([]*models.PermittedPrisoner, error)
	UpdatePrisonCode(ctx context.Context, bookerRef, prisonerID, prisonCode string) error
	SetPrisonerActive(ctx context.Context, bookerRef, prisonerID string, active bool) error
	ListVisitors(ctx context.Context, bookerRef, prisonerID string) ([]*models.PermittedVisitor, error)
	LinkVisitor(ctx context.Context, v *models.PermittedVisitor) (bool, error)
	SetVisitorActive(ctx context.Context, bookerRef, prisonerID string, visitorID int64, active bool) error
	DeletePrisoners(ctx context.Context, bookerRef string) error
}

type RequestStore interface {
	Create(ctx context.Context, req *models.VisitorRequest) error
	FindByReference(ctx context.Context, ref string) (*models.VisitorRequest, error)
	ListActiveForBooker(ctx context.Context, bookerRef string) ([]*models.VisitorRequest, error)
	ListActiveForPrisoners(ctx context.Context, keys []models.PrisonerKey) ([]*models.VisitorRequest, error)
	TransitionToApproved(ctx context.Context, ref string, visitorID int64, at time.Time) (*models.VisitorRequest, error)
	TransitionToRejected(ctx context.Context, ref string, reason models.RejectionReason, at time.Time) (*models.VisitorRequest, error)
	DeleteRequested(ctx context.Context, bookerRef, prisonerID string) (int, error)
}

type AuthDetailStore interface {
	IncrementAndGet(ctx context.Context, detail models.AuthDetail) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, bookerReference string) ([]audit.Event, error)
	Purge(ctx context.Context, bookerReference string) error
}

// Notifier delivers domain events after commit. It must not block the caller
// beyond its own timeout and never reports failure.
type Notifier interface {
	Notify(ctx context.Context, event events.Event)
}

type ContactLookup interface {
	GetContacts(ctx context.Context, prisonerID string) ([]models.Contact, error)
}

type PrisonerLookup interface {
	GetPrisoner(ctx context.Context, prisonerID string) (*models.Prisoner, error)
}

// StoreTx runs fn as one unit of work. Calls for the same booker are
// serialised; stores reached through ctx join the unit of work.
type StoreTx interface {
	RunInTx(ctx context.Context, bookerRef string, fn func(ctx context.Context) error) error
}

// Service is the booker registry façade used by the HTTP handlers.
type Service struct {
	permissions   PermissionStore
	requests      RequestStore
	tx            StoreTx
	authDetails   AuthDetailStore
	audit         AuditPublisher
	notifier      Notifier
	contacts      ContactLookup
	prisoners     PrisonerLookup
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	maxInProgress int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithAuthDetailStore(store AuthDetailStore) Option {
	return func(s *Service) {
		s.authDetails = store
	}
}

func WithContactLookup(lookup ContactLookup) Option {
	return func(s *Service) {
		s.contacts = lookup
	}
}

func WithPrisonerLookup(lookup PrisonerLookup) Option {
	return func(s *Service) {
		s.prisoners = lookup
	}
}

// WithMaxInProgressRequests overrides DefaultMaxInProgressRequests.
func WithMaxInProgressRequests(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInProgress = n
		}
	}
}

// New constructs a Service.
func New(permissions PermissionStore, requests RequestStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		permissions:   permissions,
		requests:      requests,
		tx:            tx,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
		maxInProgress: DefaultMaxInProgressRequests,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit entry")
	}
	return nil
}

func (s *Service) notify(ctx context.Context, event events.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, event)
}

// translate maps store and client sentinels onto domain errors. Errors that
// already carry a domain code pass through.
func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "visitor request already actioned")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "already exists")
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "dependency unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) requireBooker(ctx context.Context, bookerRef string) (*models.Booker, error) {
	b, err := s.permissions.FindBookerByReference(ctx, bookerRef)
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	return b, nil
}
