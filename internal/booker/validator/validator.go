// Package validator decides whether a visitor request may be accepted.
//
// Validate is pure: callers load the permission graph, the booker's in-flight
// requests and the contact list, and pass them in. Every rule runs and every
// broken rule is reported, in a fixed order.
package validator

import (
	"time"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/platform/strings"
)

// Input is everything a visitor request is checked against.
type Input struct {
	// Prisoner is the booker's permitted prisoner for the target, nil when
	// the booker has none.
	Prisoner *models.PermittedPrisoner
	// Visitors are the permitted visitors under Prisoner.
	Visitors []*models.PermittedVisitor
	// ActiveRequests are the booker's REQUESTED requests across all prisoners.
	ActiveRequests []*models.VisitorRequest
	PrisonerID     string
	Candidate      models.Candidate
	Contacts       []models.Contact
	MaxInProgress  int
}

// Validate returns the violated rules in rule order, or nil when the request
// may proceed.
func Validate(in Input) []models.ViolationCode {
	var codes []models.ViolationCode

	if in.Prisoner == nil {
		codes = append(codes, models.ViolationPrisonerNotFound)
	}
	if len(in.ActiveRequests) >= in.MaxInProgress {
		codes = append(codes, models.ViolationMaxInProgressRequests)
	}
	if hasDuplicateRequest(in) {
		codes = append(codes, models.ViolationRequestAlreadyExists)
	}
	if isAlreadyLinked(in) {
		codes = append(codes, models.ViolationVisitorAlreadyExists)
	}
	return codes
}

func hasDuplicateRequest(in Input) bool {
	for _, r := range in.ActiveRequests {
		if r.Status != models.StatusRequested || r.PrisonerID != in.PrisonerID {
			continue
		}
		if strings.NamesEqual(r.FirstName, in.Candidate.FirstName) &&
			strings.NamesEqual(r.LastName, in.Candidate.LastName) &&
			SameDate(r.DateOfBirth, in.Candidate.DateOfBirth) {
			return true
		}
	}
	return false
}

func isAlreadyLinked(in Input) bool {
	if len(in.Visitors) == 0 {
		return false
	}
	linked := make(map[int64]struct{}, len(in.Visitors))
	for _, v := range in.Visitors {
		linked[v.VisitorID] = struct{}{}
	}
	for _, c := range MatchingContacts(in.Candidate, in.Contacts) {
		if _, ok := linked[c.PersonID]; ok {
			return true
		}
	}
	return false
}

// MatchingContacts returns the contacts whose normalised names and date of
// birth match the candidate. Contacts without a date of birth never match.
func MatchingContacts(c models.Candidate, contacts []models.Contact) []models.Contact {
	var out []models.Contact
	for _, contact := range contacts {
		if contact.DateOfBirth == nil || !SameDate(*contact.DateOfBirth, c.DateOfBirth) {
			continue
		}
		if strings.NamesEqual(contact.FirstName, c.FirstName) && strings.NamesEqual(contact.LastName, c.LastName) {
			out = append(out, contact)
		}
	}
	return out
}

// SameDate compares calendar dates, ignoring time of day and zone.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
