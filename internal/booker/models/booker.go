package models

import (
	"strings"
	"time"
)

// Booker is an authenticated end user who books visits.
//
// Invariants:
//   - Reference is assigned once by the store on first insert and never changes
//   - Email is unique, compared case-insensitively
type Booker struct {
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// PermittedPrisoner is a prisoner a booker may book visits for.
// Keyed by (BookerReference, PrisonerID).
type PermittedPrisoner struct {
	BookerReference string    `json:"-"`
	PrisonerID      string    `json:"prisonerId"`
	PrisonCode      string    `json:"prisonCode"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdTimestamp"`
}

// Key returns the composite key addressing this prisoner.
func (p *PermittedPrisoner) Key() PrisonerKey {
	return PrisonerKey{BookerReference: p.BookerReference, PrisonerID: p.PrisonerID}
}

// NormalizePrisonerID returns the canonical form of a prisoner number:
// trimmed and upper-cased. Stored ids are always canonical.
func NormalizePrisonerID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// PrisonerKey addresses a permitted prisoner by value.
type PrisonerKey struct {
	BookerReference string
	PrisonerID      string
}

// PermittedVisitor is a contact a booker may bring on visits to a prisoner.
// Keyed by (BookerReference, PrisonerID, VisitorID).
type PermittedVisitor struct {
	BookerReference string    `json:"-"`
	PrisonerID      string    `json:"-"`
	VisitorID       int64     `json:"visitorId"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdTimestamp"`
}

// AuthDetail is the legacy one-login record for a booker. Count is the number
// of logins seen so far.
type AuthDetail struct {
	AuthReference string `json:"oneLoginSub"`
	Email         string `json:"email"`
	Phone         string `json:"phoneNumber,omitempty"`
	Count         int    `json:"-"`
}

// Contact is a person known to the contact registry for a prisoner.
type Contact struct {
	PersonID    int64      `json:"personId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// Prisoner is the identity record returned by prisoner search.
type Prisoner struct {
	PrisonerNumber string `json:"prisonerNumber"`
	PrisonID       string `json:"prisonId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
}
