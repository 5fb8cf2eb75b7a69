package handler

import (
	"time"

	"bookerregistry/internal/booker/models"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
)

type AuthDetailRequest struct {
	OneLoginSub string `json:"oneLoginSub"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type SubmitVisitorRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (r SubmitVisitorRequest) toCandidate() (models.Candidate, error) {
	if r.DateOfBirth == "" {
		return models.Candidate{}, dErrors.New(dErrors.CodeValidation, "dateOfBirth is required")
	}
	dob, err := time.Parse(time.DateOnly, r.DateOfBirth)
	if err != nil {
		return models.Candidate{}, dErrors.New(dErrors.CodeBadRequest, "dateOfBirth must be formatted as YYYY-MM-DD")
	}
	return models.Candidate{FirstName: r.FirstName, LastName: r.LastName, DateOfBirth: dob}, nil
}

type RegisterPrisonerRequest struct {
	PrisonerID string `json:"prisonerId"`
	PrisonCode string `json:"prisonCode"`
}

type UpdatePrisonCodeRequest struct {
	PrisonCode string `json:"prisonCode"`
}

type LinkVisitorRequest struct {
	VisitorID int64 `json:"visitorId"`
}

type ApproveVisitorRequest struct {
	VisitorID int64 `json:"visitorId"`
}

type RejectVisitorRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

type BookerResponse struct {
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

type PrisonerResponse struct {
	PrisonerID string `json:"prisonerId"`
	PrisonCode string `json:"prisonCode"`
	Active     bool   `json:"active"`
}

type VisitorResponse struct {
	VisitorID int64 `json:"visitorId"`
	Active    bool  `json:"active"`
}

type VisitorRequestResponse struct {
	Reference       string     `json:"reference"`
	BookerReference string     `json:"bookerReference"`
	PrisonerID      string     `json:"prisonerId"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	DateOfBirth     string     `json:"dateOfBirth"`
	Status          string     `json:"status"`
	VisitorID       *int64     `json:"visitorId,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdTimestamp"`
	ActionedAt      *time.Time `json:"actionedTimestamp,omitempty"`
}

type AuditResponse struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

func toBookerResponse(b *models.Booker) BookerResponse {
	return BookerResponse{Reference: b.Reference, Email: b.Email, CreatedAt: b.CreatedAt}
}

func toPrisonerResponse(p *models.PermittedPrisoner) PrisonerResponse {
	return PrisonerResponse{PrisonerID: p.PrisonerID, PrisonCode: p.PrisonCode, Active: p.Active}
}

func toVisitorResponse(v *models.PermittedVisitor) VisitorResponse {
	return VisitorResponse{VisitorID: v.VisitorID, Active: v.Active}
}

func toVisitorRequestResponse(r *models.VisitorRequest) VisitorRequestResponse {
	resp := VisitorRequestResponse{
		Reference:       r.Reference,
		BookerReference: r.BookerReference,
		PrisonerID:      r.PrisonerID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		DateOfBirth:     r.DateOfBirth.Format(time.DateOnly),
		Status:          string(r.Status),
		VisitorID:       r.VisitorID,
		CreatedAt:       r.CreatedAt,
		ActionedAt:      r.ActionedAt,
	}
	if r.RejectionReason != nil {
		resp.RejectionReason = string(*r.RejectionReason)
	}
	return resp
}

func toVisitorRequestResponses(reqs []*models.VisitorRequest) []VisitorRequestResponse {
	out := make([]VisitorRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toVisitorRequestResponse(r))
	}
	return out
}

func toAuditResponse(e audit.Event) AuditResponse {
	return AuditResponse{Type: string(e.Action), Text: e.Text, CreatedAt: e.Timestamp}
}
