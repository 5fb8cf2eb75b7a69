// Package events publishes booker registry domain events to downstream
// consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names a domain event.
type Kind string

const (
	KindVisitorRequestSubmitted Kind = "visitor-request.submitted"
	KindVisitorRequestApproved  Kind = "visitor-request.approved"
	KindVisitorRequestRejected  Kind = "visitor-request.rejected"
	KindPrisonerRegistered      Kind = "booker.prisoner.registered"
	KindVisitorLinked           Kind = "booker.visitor.linked"
)

// Event is one notification. ID is assigned by New.
type Event struct {
	ID              string         `json:"id"`
	Kind            Kind           `json:"kind"`
	BookerReference string         `json:"bookerReference"`
	PrisonerID      string         `json:"prisonerId,omitempty"`
	OccurredAt      time.Time      `json:"occurredAt"`
	Payload         map[string]any `json:"payload,omitempty"`
}

// New builds an event with a fresh id.
func New(kind Kind, bookerRef, prisonerID string, at time.Time, payload map[string]any) Event {
	return Event{
		ID:              uuid.NewString(),
		Kind:            kind,
		BookerReference: bookerRef,
		PrisonerID:      prisonerID,
		OccurredAt:      at,
		Payload:         payload,
	}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
