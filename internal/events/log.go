package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "domain event",
		"event_id", event.ID,
		"kind", event.Kind,
		"booker_reference", event.BookerReference,
		"prisoner_id", event.PrisonerID,
		"payload", event.Payload,
	)
	return nil
}
