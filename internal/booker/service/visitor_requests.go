package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bookerregistry/internal/booker/models"
	"bookerregistry/internal/booker/validator"
	"bookerregistry/internal/events"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/sentinel"
	"bookerregistry/pkg/requestcontext"
)

// SubmitVisitorRequest records a booker's request to add a visitor under a
// permitted prisoner. Every broken rule is reported in a *models.ValidationError.
func (s *Service) SubmitVisitorRequest(ctx context.Context, bookerRef, prisonerID string, candidate models.Candidate) (_ *models.VisitorRequest, err error) {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "booker.SubmitVisitorRequest", trace.WithAttributes(
		attribute.String("booker.reference", bookerRef),
		attribute.String("prisoner.id", prisonerID),
	))
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveSubmit(start)
	}

	now := requestcontext.Now(ctx)
	if err := candidate.Validate(now); err != nil {
		return nil, err
	}

	var contacts []models.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.requireBooker(gctx, bookerRef)
		return err
	})
	g.Go(func() error {
		contacts = s.lookupContacts(gctx, prisonerID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var created *models.VisitorRequest
	err = s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		in, err := s.loadValidationInput(ctx, bookerRef, prisonerID)
		if err != nil {
			return err
		}
		in.Candidate = candidate
		in.Contacts = contacts

		if codes := validator.Validate(in); len(codes) > 0 {
			return models.NewValidationError(codes)
		}

		req := models.NewVisitorRequest(bookerRef, prisonerID, candidate, now)
		if err := s.requests.Create(ctx, req); err != nil {
			return translate(err, "visitor request not found")
		}
		if err := s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          audit.ActionVisitorRequestSubmitted,
			Text:            fmt.Sprintf("Submitted visitor request %s for prisoner %s", req.Reference, prisonerID),
		}); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		s.logRejectedSubmission(ctx, bookerRef, prisonerID, err)
		return nil, translate(err, "visitor request not found")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	s.logger.InfoContext(ctx, "visitor request submitted",
		"visitor_request_reference", created.Reference,
		"booker_reference", bookerRef,
		"prisoner_id", prisonerID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, events.New(events.KindVisitorRequestSubmitted, bookerRef, prisonerID, now, map[string]any{
		"reference": created.Reference,
	}))
	return created, nil
}

// loadValidationInput reads the part of the graph the rules need. A missing
// prisoner is a rule violation, not an error.
func (s *Service) loadValidationInput(ctx context.Context, bookerRef, prisonerID string) (validator.Input, error) {
	in := validator.Input{PrisonerID: prisonerID, MaxInProgress: s.maxInProgress}

	prisoner, err := s.permissions.FindPrisoner(ctx, bookerRef, prisonerID)
	switch {
	case err == nil:
		in.Prisoner = prisoner
		visitors, err := s.permissions.ListVisitors(ctx, bookerRef, prisonerID)
		if err != nil {
			return in, translate(err, "permitted prisoner not found")
		}
		in.Visitors = visitors
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return in, translate(err, "permitted prisoner not found")
	}

	active, err := s.requests.ListActiveForBooker(ctx, bookerRef)
	if err != nil {
		return in, translate(err, "booker not found")
	}
	in.ActiveRequests = active
	return in, nil
}

// lookupContacts never fails: a missing or unreachable contact list is
// treated as empty.
func (s *Service) lookupContacts(ctx context.Context, prisonerID string) []models.Contact {
	if s.contacts == nil {
		return nil
	}
	contacts, err := s.contacts.GetContacts(ctx, prisonerID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementContactLookupFailure()
		}
		s.logger.WarnContext(ctx, "contact lookup failed, treating as empty",
			"prisoner_id", prisonerID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	return contacts
}

func (s *Service) logRejectedSubmission(ctx context.Context, bookerRef, prisonerID string, err error) {
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	if s.metrics != nil {
		for _, code := range ve.Codes {
			s.metrics.IncrementViolation(string(code))
		}
	}
	s.logger.InfoContext(ctx, "visitor request failed validation",
		"booker_reference", bookerRef,
		"prisoner_id", prisonerID,
		"violations", ve.Violations(),
		"request_id", requestcontext.RequestID(ctx),
	)
}

// ApproveVisitorRequest moves a REQUESTED request to APPROVED and links the
// visitor under the permitted prisoner in the same unit of work.
func (s *Service) ApproveVisitorRequest(ctx context.Context, ref string, visitorID int64) (_ *models.VisitorRequest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "booker.ApproveVisitorRequest", trace.WithAttributes(
		attribute.String("visitor_request.reference", ref),
		attribute.Int64("visitor.id", visitorID),
	))
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveAction("approve", start)
	}

	if visitorID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "visitorId must be a positive number")
	}
	existing, err := s.requests.FindByReference(ctx, ref)
	if err != nil {
		return nil, translate(err, "visitor request not found")
	}
	if err := existing.CanApprove(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var approved *models.VisitorRequest
	err = s.tx.RunInTx(ctx, existing.BookerReference, func(ctx context.Context) error {
		updated, err := s.requests.TransitionToApproved(ctx, ref, visitorID, now)
		if err != nil {
			return translate(err, "visitor request not found")
		}

		if err := s.linkApprovedVisitor(ctx, updated, visitorID); err != nil {
			return err
		}

		if err := s.emitAudit(ctx, audit.Event{
			BookerReference: updated.BookerReference,
			Action:          audit.ActionVisitorRequestApproved,
			Text:            fmt.Sprintf("Approved visitor request %s, visitor %d linked to prisoner %s", ref, visitorID, updated.PrisonerID),
		}); err != nil {
			return err
		}
		approved = updated
		return nil
	})
	if err != nil {
		return nil, translate(err, "visitor request not found")
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(models.StatusApproved))
	}
	s.logger.InfoContext(ctx, "visitor request approved",
		"visitor_request_reference", ref,
		"booker_reference", approved.BookerReference,
		"visitor_id", visitorID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, events.New(events.KindVisitorRequestApproved, approved.BookerReference, approved.PrisonerID, now, map[string]any{
		"reference": ref,
		"visitorId": visitorID,
	}))
	return approved, nil
}

// linkApprovedVisitor re-resolves the permitted prisoner and links the
// visitor. A failure here follows a committed status flip in stores that
// cannot roll back, so it is reported as an inconsistency.
func (s *Service) linkApprovedVisitor(ctx context.Context, req *models.VisitorRequest, visitorID int64) error {
	prisoner, err := s.permissions.FindPrisoner(ctx, req.BookerReference, req.PrisonerID)
	if err == nil {
		_, err = s.permissions.LinkVisitor(ctx, &models.PermittedVisitor{
			BookerReference: prisoner.BookerReference,
			PrisonerID:      prisoner.PrisonerID,
			VisitorID:       visitorID,
			Active:          true,
		})
	}
	if err == nil {
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncrementApprovalInconsistency()
	}
	s.logger.ErrorContext(ctx, "CRITICAL: visitor request approved but visitor link failed",
		"visitor_request_reference", req.Reference,
		"booker_reference", req.BookerReference,
		"prisoner_id", req.PrisonerID,
		"visitor_id", visitorID,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "approved visitor could not be linked")
}

// RejectVisitorRequest moves a REQUESTED request to REJECTED. The permission
// graph is untouched.
func (s *Service) RejectVisitorRequest(ctx context.Context, ref string, rawReason string) (_ *models.VisitorRequest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "booker.RejectVisitorRequest", trace.WithAttributes(
		attribute.String("visitor_request.reference", ref),
	))
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveAction("reject", start)
	}

	reason, err := models.ParseRejectionReason(rawReason)
	if err != nil {
		return nil, err
	}
	existing, err := s.requests.FindByReference(ctx, ref)
	if err != nil {
		return nil, translate(err, "visitor request not found")
	}
	if err := existing.CanReject(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var rejected *models.VisitorRequest
	err = s.tx.RunInTx(ctx, existing.BookerReference, func(ctx context.Context) error {
		updated, err := s.requests.TransitionToRejected(ctx, ref, reason, now)
		if err != nil {
			return translate(err, "visitor request not found")
		}
		if err := s.emitAudit(ctx, audit.Event{
			BookerReference: updated.BookerReference,
			Action:          audit.ActionVisitorRequestRejected,
			Text:            fmt.Sprintf("Rejected visitor request %s for prisoner %s, reason %s", ref, updated.PrisonerID, reason),
		}); err != nil {
			return err
		}
		rejected = updated
		return nil
	})
	if err != nil {
		return nil, translate(err, "visitor request not found")
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(models.StatusRejected))
	}
	s.logger.InfoContext(ctx, "visitor request rejected",
		"visitor_request_reference", ref,
		"booker_reference", rejected.BookerReference,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, events.New(events.KindVisitorRequestRejected, rejected.BookerReference, rejected.PrisonerID, now, map[string]any{
		"reference":       ref,
		"rejectionReason": string(reason),
	}))
	return rejected, nil
}

// GetVisitorRequest returns a request in any state.
func (s *Service) GetVisitorRequest(ctx context.Context, ref string) (*models.VisitorRequest, error) {
	req, err := s.requests.FindByReference(ctx, ref)
	if err != nil {
		return nil, translate(err, "visitor request not found")
	}
	return req, nil
}

// ListActiveVisitorRequests returns the booker's REQUESTED requests in
// submission order.
func (s *Service) ListActiveVisitorRequests(ctx context.Context, bookerRef string) ([]*models.VisitorRequest, error) {
	if _, err := s.requireBooker(ctx, bookerRef); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListActiveForBooker(ctx, bookerRef)
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	return reqs, nil
}

// ListVisitorRequestsForPrison returns the REQUESTED requests whose permitted
// prisoner is registered against prisonCode.
func (s *Service) ListVisitorRequestsForPrison(ctx context.Context, prisonCode string) ([]*models.VisitorRequest, error) {
	prisoners, err := s.permissions.ListPrisonersByPrison(ctx, prisonCode)
	if err != nil {
		return nil, translate(err, "prison not found")
	}
	keys := make([]models.PrisonerKey, 0, len(prisoners))
	for _, p := range prisoners {
		keys = append(keys, p.Key())
	}
	reqs, err := s.requests.ListActiveForPrisoners(ctx, keys)
	if err != nil {
		return nil, translate(err, "prison not found")
	}
	return reqs, nil
}
