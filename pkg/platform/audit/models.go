package audit

import (
	"context"
	"time"
)

// Action names the booker-scoped transition an audit entry records.
type Action string

const (
	// Booker lifecycle
	ActionBookerCreated        Action = "booker_created"
	ActionBookerFirstLogin     Action = "booker_first_login"
	ActionBookerDetailsCleared Action = "booker_details_cleared"

	// Permission graph
	ActionPrisonerRegistered  Action = "prisoner_registered"
	ActionPrisonerPrisonMoved Action = "prisoner_prison_updated"
	ActionPrisonerActivated   Action = "prisoner_activated"
	ActionPrisonerDeactivated Action = "prisoner_deactivated"
	ActionVisitorLinked       Action = "visitor_linked"
	ActionVisitorActivated    Action = "visitor_activated"
	ActionVisitorDeactivated  Action = "visitor_deactivated"

	// Visitor requests
	ActionVisitorRequestSubmitted Action = "visitor_request_submitted"
	ActionVisitorRequestApproved  Action = "visitor_request_approved"
	ActionVisitorRequestRejected  Action = "visitor_request_rejected"
)

// Event is an immutable audit entry. Text is the human-readable description
// shown to operators; Action is the machine-readable classification.
type Event struct {
	BookerReference string
	Action          Action
	Text            string
	Timestamp       time.Time
	RequestID       string
	ActorID         string
}

// Store is an append-only audit trail keyed by booker. DeleteByBooker exists
// solely for the booker-clear flow.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByBooker(ctx context.Context, bookerReference string) ([]Event, error)
	DeleteByBooker(ctx context.Context, bookerReference string) error
}
