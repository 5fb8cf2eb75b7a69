package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bookerregistry/pkg/requestcontext"
)

// Metrics counts event delivery outcomes.
type Metrics struct {
	Published       *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
}

// NewMetrics registers event metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers event metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookerregistry_events_published_total",
			Help: "Domain events delivered to the sink, by kind",
		}, []string{"kind"}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookerregistry_event_publish_failures_total",
			Help: "Domain events the sink failed to accept, by kind",
		}, []string{"kind"}),
	}
}

// BestEffort publishes after the state change has committed. Delivery
// failures are logged and counted but never reach the caller.
type BestEffort struct {
	next    Publisher
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

func NewBestEffort(next Publisher, timeout time.Duration, logger *slog.Logger, metrics *Metrics) *BestEffort {
	if logger == nil {
		logger = slog.Default()
	}
	return &BestEffort{next: next, timeout: timeout, logger: logger, metrics: metrics}
}

// Notify publishes event with its own timeout. The caller's cancellation does
// not abort delivery.
func (b *BestEffort) Notify(ctx context.Context, event Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	if err := b.next.Publish(pubCtx, event); err != nil {
		if b.metrics != nil {
			b.metrics.PublishFailures.WithLabelValues(string(event.Kind)).Inc()
		}
		b.logger.ErrorContext(ctx, "failed to publish domain event",
			"kind", event.Kind,
			"event_id", event.ID,
			"booker_reference", event.BookerReference,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	if b.metrics != nil {
		b.metrics.Published.WithLabelValues(string(event.Kind)).Inc()
	}
}
