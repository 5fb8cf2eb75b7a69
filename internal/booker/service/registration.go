package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookerregistry/internal/booker/models"
	"bookerregistry/internal/events"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/sentinel"
	pstrings "bookerregistry/pkg/platform/strings"
	"bookerregistry/pkg/requestcontext"
)

// RegisterBooker creates a booker for email. A taken email is a conflict.
func (s *Service) RegisterBooker(ctx context.Context, email string) (*models.Booker, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	var created *models.Booker
	err := s.tx.RunInTx(ctx, "", func(ctx context.Context) error {
		b, err := s.permissions.CreateBooker(ctx, email)
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "a booker with this email already exists")
			}
			return translate(err, "booker not found")
		}
		if err := s.emitAudit(ctx, audit.Event{
			BookerReference: b.Reference,
			Action:          audit.ActionBookerCreated,
			Text:            "Booker created",
		}); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	s.logger.InfoContext(ctx, "booker registered",
		"booker_reference", created.Reference,
		"request_id", requestcontext.RequestID(ctx),
	)
	return created, nil
}

// RecordAuthDetail counts one login for the detail and returns the new count.
func (s *Service) RecordAuthDetail(ctx context.Context, detail models.AuthDetail) (int, error) {
	if strings.TrimSpace(detail.AuthReference) == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "oneLoginSub is required")
	}
	if s.authDetails == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "auth detail store not configured")
	}
	count, err := s.authDetails.IncrementAndGet(ctx, detail)
	if err != nil {
		return 0, translate(err, "auth detail not found")
	}
	return count, nil
}

// AuthenticateBooker records the login and returns the booker for the
// detail's email, creating it on first sight. The first login is audited.
func (s *Service) AuthenticateBooker(ctx context.Context, detail models.AuthDetail) (*models.Booker, error) {
	if err := validateEmail(strings.TrimSpace(detail.Email)); err != nil {
		return nil, err
	}
	count, err := s.RecordAuthDetail(ctx, detail)
	if err != nil {
		return nil, err
	}

	booker, err := s.findOrRegister(ctx, detail.Email)
	if err != nil {
		return nil, err
	}

	if count == 1 {
		err := s.tx.RunInTx(ctx, booker.Reference, func(ctx context.Context) error {
			return s.emitAudit(ctx, audit.Event{
				BookerReference: booker.Reference,
				Action:          audit.ActionBookerFirstLogin,
				Text:            "Booker logged in for the first time",
			})
		})
		if err != nil {
			return nil, translate(err, "booker not found")
		}
	}
	return booker, nil
}

func (s *Service) findOrRegister(ctx context.Context, email string) (*models.Booker, error) {
	found, err := s.SearchBookers(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return found[0], nil
	}
	b, err := s.RegisterBooker(ctx, email)
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		// lost a registration race for the same email
		found, err = s.SearchBookers(ctx, email)
		if err == nil && len(found) > 0 {
			return found[0], nil
		}
		return nil, err
	}
	return b, err
}

// SearchBookers finds bookers by email, case-insensitively.
func (s *Service) SearchBookers(ctx context.Context, email string) ([]*models.Booker, error) {
	if strings.TrimSpace(email) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	found, err := s.permissions.FindBookersByEmail(ctx, pstrings.NormalizeEmail(email))
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	return found, nil
}

func (s *Service) GetBooker(ctx context.Context, bookerRef string) (*models.Booker, error) {
	return s.requireBooker(ctx, bookerRef)
}

// RegisterPrisoner permits the booker to book for prisonerID once prisoner
// search confirms the prisoner is held at prisonCode.
func (s *Service) RegisterPrisoner(ctx context.Context, bookerRef, prisonerID, prisonCode string) (*models.PermittedPrisoner, error) {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	prisonCode = strings.ToUpper(strings.TrimSpace(prisonCode))
	if prisonerID == "" || prisonCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "prisonerId and prisonCode are required")
	}
	if _, err := s.requireBooker(ctx, bookerRef); err != nil {
		return nil, err
	}
	if err := s.verifyPrisonerIdentity(ctx, prisonerID, prisonCode); err != nil {
		return nil, err
	}

	prisoner := &models.PermittedPrisoner{
		BookerReference: bookerRef,
		PrisonerID:      prisonerID,
		PrisonCode:      prisonCode,
		Active:          true,
		CreatedAt:       requestcontext.Now(ctx),
	}
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		if err := s.permissions.CreatePrisoner(ctx, prisoner); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "prisoner already registered for booker")
			}
			return translate(err, "booker not found")
		}
		return s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          audit.ActionPrisonerRegistered,
			Text:            fmt.Sprintf("Prisoner %s registered at %s", prisonerID, prisonCode),
		})
	})
	if err != nil {
		return nil, translate(err, "booker not found")
	}

	s.notify(ctx, events.New(events.KindPrisonerRegistered, bookerRef, prisonerID, prisoner.CreatedAt, map[string]any{
		"prisonCode": prisonCode,
	}))
	return prisoner, nil
}

// UpdatePrisonerPrisonCode moves a permitted prisoner to another prison after
// the same identity check as registration.
func (s *Service) UpdatePrisonerPrisonCode(ctx context.Context, bookerRef, prisonerID, prisonCode string) (*models.PermittedPrisoner, error) {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	prisonCode = strings.ToUpper(strings.TrimSpace(prisonCode))
	if prisonCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "prisonCode is required")
	}
	if _, err := s.permissions.FindPrisoner(ctx, bookerRef, prisonerID); err != nil {
		return nil, translate(err, "permitted prisoner not found")
	}
	if err := s.verifyPrisonerIdentity(ctx, prisonerID, prisonCode); err != nil {
		return nil, err
	}

	var updated *models.PermittedPrisoner
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		if err := s.permissions.UpdatePrisonCode(ctx, bookerRef, prisonerID, prisonCode); err != nil {
			return translate(err, "permitted prisoner not found")
		}
		if err := s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          audit.ActionPrisonerPrisonMoved,
			Text:            fmt.Sprintf("Prisoner %s prison updated to %s", prisonerID, prisonCode),
		}); err != nil {
			return err
		}
		p, err := s.permissions.FindPrisoner(ctx, bookerRef, prisonerID)
		if err != nil {
			return translate(err, "permitted prisoner not found")
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "permitted prisoner not found")
	}
	return updated, nil
}

// verifyPrisonerIdentity checks the prisoner exists and is held at
// prisonCode. Any failure to reach prisoner search fails the operation.
func (s *Service) verifyPrisonerIdentity(ctx context.Context, prisonerID, prisonCode string) error {
	if s.prisoners == nil {
		return dErrors.New(dErrors.CodeUnavailable, "prisoner search not configured")
	}
	p, err := s.prisoners.GetPrisoner(ctx, prisonerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("prisoner %s not found", prisonerID))
		}
		s.logger.WarnContext(ctx, "prisoner search failed",
			"prisoner_id", prisonerID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "prisoner search unavailable")
	}
	if !strings.EqualFold(p.PrisonID, prisonCode) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("prisoner %s is not in prison %s", prisonerID, prisonCode))
	}
	return nil
}

func (s *Service) ListPrisoners(ctx context.Context, bookerRef string) ([]*models.PermittedPrisoner, error) {
	if _, err := s.requireBooker(ctx, bookerRef); err != nil {
		return nil, err
	}
	prisoners, err := s.permissions.ListPrisoners(ctx, bookerRef)
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	return prisoners, nil
}

func (s *Service) ListVisitors(ctx context.Context, bookerRef, prisonerID string) ([]*models.PermittedVisitor, error) {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	if _, err := s.permissions.FindPrisoner(ctx, bookerRef, prisonerID); err != nil {
		return nil, translate(err, "permitted prisoner not found")
	}
	visitors, err := s.permissions.ListVisitors(ctx, bookerRef, prisonerID)
	if err != nil {
		return nil, translate(err, "permitted prisoner not found")
	}
	return visitors, nil
}

// LinkVisitor links a visitor directly. Linking an existing visitor succeeds
// without a second row, audit entry or event.
func (s *Service) LinkVisitor(ctx context.Context, bookerRef, prisonerID string, visitorID int64) (*models.PermittedVisitor, bool, error) {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	if visitorID <= 0 {
		return nil, false, dErrors.New(dErrors.CodeValidation, "visitorId must be a positive number")
	}
	visitor := &models.PermittedVisitor{
		BookerReference: bookerRef,
		PrisonerID:      prisonerID,
		VisitorID:       visitorID,
		Active:          true,
		CreatedAt:       requestcontext.Now(ctx),
	}
	var created bool
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		if _, err := s.permissions.FindPrisoner(ctx, bookerRef, prisonerID); err != nil {
			return translate(err, "permitted prisoner not found")
		}
		ok, err := s.permissions.LinkVisitor(ctx, visitor)
		if err != nil {
			return translate(err, "permitted prisoner not found")
		}
		created = ok
		if !created {
			return nil
		}
		return s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          audit.ActionVisitorLinked,
			Text:            fmt.Sprintf("Visitor %d linked to prisoner %s", visitorID, prisonerID),
		})
	})
	if err != nil {
		return nil, false, translate(err, "permitted prisoner not found")
	}
	if created {
		s.notify(ctx, events.New(events.KindVisitorLinked, bookerRef, prisonerID, visitor.CreatedAt, map[string]any{
			"visitorId": visitorID,
		}))
	}
	return visitor, created, nil
}

func (s *Service) SetPrisonerActive(ctx context.Context, bookerRef, prisonerID string, active bool) error {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	action, verb := audit.ActionPrisonerDeactivated, "deactivated"
	if active {
		action, verb = audit.ActionPrisonerActivated, "activated"
	}
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		if err := s.permissions.SetPrisonerActive(ctx, bookerRef, prisonerID, active); err != nil {
			return translate(err, "permitted prisoner not found")
		}
		return s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          action,
			Text:            fmt.Sprintf("Prisoner %s %s", prisonerID, verb),
		})
	})
	return translate(err, "permitted prisoner not found")
}

func (s *Service) SetVisitorActive(ctx context.Context, bookerRef, prisonerID string, visitorID int64, active bool) error {
	prisonerID = models.NormalizePrisonerID(prisonerID)
	action, verb := audit.ActionVisitorDeactivated, "deactivated"
	if active {
		action, verb = audit.ActionVisitorActivated, "activated"
	}
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		if err := s.permissions.SetVisitorActive(ctx, bookerRef, prisonerID, visitorID, active); err != nil {
			return translate(err, "permitted visitor not found")
		}
		return s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          action,
			Text:            fmt.Sprintf("Visitor %d for prisoner %s %s", visitorID, prisonerID, verb),
		})
	})
	return translate(err, "permitted visitor not found")
}

// ClearBookerDetails removes the booker's permission graph and pending
// requests and restarts the audit trail. Actioned requests are kept.
func (s *Service) ClearBookerDetails(ctx context.Context, bookerRef string) error {
	if _, err := s.requireBooker(ctx, bookerRef); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, bookerRef, func(ctx context.Context) error {
		prisoners, err := s.permissions.ListPrisoners(ctx, bookerRef)
		if err != nil {
			return translate(err, "booker not found")
		}
		for _, p := range prisoners {
			if _, err := s.requests.DeleteRequested(ctx, bookerRef, p.PrisonerID); err != nil {
				return translate(err, "booker not found")
			}
		}
		if err := s.permissions.DeletePrisoners(ctx, bookerRef); err != nil {
			return translate(err, "booker not found")
		}
		if s.audit != nil {
			if err := s.audit.Purge(ctx, bookerRef); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear audit trail")
			}
		}
		return s.emitAudit(ctx, audit.Event{
			BookerReference: bookerRef,
			Action:          audit.ActionBookerDetailsCleared,
			Text:            "Booker details cleared",
		})
	})
	if err != nil {
		return translate(err, "booker not found")
	}
	s.logger.InfoContext(ctx, "booker details cleared",
		"booker_reference", bookerRef,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// GetBookerAudit returns the booker's audit trail, oldest first.
func (s *Service) GetBookerAudit(ctx context.Context, bookerRef string) ([]audit.Event, error) {
	if _, err := s.requireBooker(ctx, bookerRef); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, nil
	}
	entries, err := s.audit.List(ctx, bookerRef)
	if err != nil {
		return nil, translate(err, "booker not found")
	}
	return entries, nil
}

func validateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return nil
}
