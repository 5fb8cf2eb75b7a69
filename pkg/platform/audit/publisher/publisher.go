// Package publisher emits booker audit entries with fail-closed semantics.
//
// Emit writes synchronously to the audit store. When the store participates
// in the caller's transaction (PostgreSQL), a failed write fails the
// transition it describes, so every committed transition has exactly one
// audit entry.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/requestcontext"
)

// Publisher writes audit entries and lists a booker's trail.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates an audit publisher over store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously appends an audit entry. The caller MUST fail its
// operation when Emit returns an error.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.BookerReference == "" {
		return fmt.Errorf("audit event requires BookerReference")
	}
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.Principal(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: booker audit failed",
				"action", event.Action,
				"booker_reference", event.BookerReference,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Action)
	}
	return nil
}

// List returns the booker's audit trail, oldest first.
func (p *Publisher) List(ctx context.Context, bookerReference string) ([]audit.Event, error) {
	return p.store.ListByBooker(ctx, bookerReference)
}

// Purge removes the booker's audit trail. Only the booker-clear flow calls it.
func (p *Publisher) Purge(ctx context.Context, bookerReference string) error {
	if err := p.store.DeleteByBooker(ctx, bookerReference); err != nil {
		return fmt.Errorf("purge audit trail: %w", err)
	}
	return nil
}
