package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "bookerregistry/pkg/domain-errors"
)

// VisitorRequestStatus is the lifecycle state of a visitor request.
type VisitorRequestStatus string

const (
	StatusRequested VisitorRequestStatus = "REQUESTED"
	StatusApproved  VisitorRequestStatus = "APPROVED"
	StatusRejected  VisitorRequestStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is possible.
func (s VisitorRequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether s may move to next.
// REQUESTED -> APPROVED | REJECTED; terminal states never move.
func (s VisitorRequestStatus) CanTransitionTo(next VisitorRequestStatus) bool {
	return s == StatusRequested && next.IsTerminal()
}

// RejectionReason is the administrator-supplied reason for a rejection.
type RejectionReason string

const (
	RejectionAlreadyLinked RejectionReason = "ALREADY_LINKED"
	RejectionReject        RejectionReason = "REJECT"
)

// ParseRejectionReason validates an administrator-supplied reason.
func ParseRejectionReason(raw string) (RejectionReason, error) {
	switch r := RejectionReason(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RejectionAlreadyLinked, RejectionReject:
		return r, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown rejection reason %q", raw))
	}
}

// Candidate is the person a booker asks to add as a visitor.
type Candidate struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
}

// Validate checks the candidate fields before any lookup happens.
func (c Candidate) Validate(now time.Time) error {
	if strings.TrimSpace(c.FirstName) == "" {
		return dErrors.New(dErrors.CodeValidation, "firstName is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "lastName is required")
	}
	if c.DateOfBirth.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "dateOfBirth is required")
	}
	if !c.DateOfBirth.Before(now) {
		return dErrors.New(dErrors.CodeValidation, "dateOfBirth must be in the past")
	}
	return nil
}

// VisitorRequest asks for a new visitor to be linked under a permitted
// prisoner.
//
// Invariants:
//   - Reference is assigned by the store on a successful insert only
//   - Status only moves REQUESTED -> APPROVED or REQUESTED -> REJECTED
//   - VisitorID is set exactly when Status is APPROVED
//   - RejectionReason is set exactly when Status is REJECTED
//   - ActionedAt is set exactly when Status is terminal
type VisitorRequest struct {
	Reference       string               `json:"reference"`
	BookerReference string               `json:"bookerReference"`
	PrisonerID      string               `json:"prisonerId"`
	FirstName       string               `json:"firstName"`
	LastName        string               `json:"lastName"`
	DateOfBirth     time.Time            `json:"dateOfBirth"`
	Status          VisitorRequestStatus `json:"status"`
	CreatedAt       time.Time            `json:"createdTimestamp"`
	VisitorID       *int64               `json:"visitorId,omitempty"`
	RejectionReason *RejectionReason     `json:"rejectionReason,omitempty"`
	ActionedAt      *time.Time           `json:"actionedTimestamp,omitempty"`
}

// NewVisitorRequest builds a REQUESTED request for the candidate.
func NewVisitorRequest(bookerRef, prisonerID string, c Candidate, now time.Time) *VisitorRequest {
	return &VisitorRequest{
		BookerReference: bookerRef,
		PrisonerID:      prisonerID,
		FirstName:       strings.TrimSpace(c.FirstName),
		LastName:        strings.TrimSpace(c.LastName),
		DateOfBirth:     c.DateOfBirth,
		Status:          StatusRequested,
		CreatedAt:       now,
	}
}

// PrisonerKey returns the booker/prisoner pair the request refers to.
func (r *VisitorRequest) PrisonerKey() PrisonerKey {
	return PrisonerKey{BookerReference: r.BookerReference, PrisonerID: r.PrisonerID}
}

// CanApprove checks the request may move to APPROVED.
func (r *VisitorRequest) CanApprove() error {
	if !r.Status.CanTransitionTo(StatusApproved) {
		return dErrors.New(dErrors.CodeConflict, "visitor request already actioned")
	}
	return nil
}

// ApplyApproval moves the request to APPROVED. Call CanApprove first.
func (r *VisitorRequest) ApplyApproval(visitorID int64, at time.Time) {
	r.Status = StatusApproved
	r.VisitorID = &visitorID
	r.ActionedAt = &at
}

// CanReject checks the request may move to REJECTED.
func (r *VisitorRequest) CanReject() error {
	if !r.Status.CanTransitionTo(StatusRejected) {
		return dErrors.New(dErrors.CodeConflict, "visitor request already actioned")
	}
	return nil
}

// ApplyRejection moves the request to REJECTED. Call CanReject first.
func (r *VisitorRequest) ApplyRejection(reason RejectionReason, at time.Time) {
	r.Status = StatusRejected
	r.RejectionReason = &reason
	r.ActionedAt = &at
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (r *VisitorRequest) Clone() *VisitorRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.VisitorID != nil {
		v := *r.VisitorID
		c.VisitorID = &v
	}
	if r.RejectionReason != nil {
		v := *r.RejectionReason
		c.RejectionReason = &v
	}
	if r.ActionedAt != nil {
		v := *r.ActionedAt
		c.ActionedAt = &v
	}
	return &c
}
