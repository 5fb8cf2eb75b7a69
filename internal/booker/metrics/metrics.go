package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the visitor request workflow.
type Metrics struct {
	RequestsSubmitted       prometheus.Counter
	ValidationFailures      *prometheus.CounterVec
	Transitions             *prometheus.CounterVec
	ApprovalInconsistencies prometheus.Counter
	ContactLookupFailures   prometheus.Counter
	SubmitDuration          prometheus.Histogram
	ActionDuration          *prometheus.HistogramVec
}

// New creates the workflow metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the workflow metrics on reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	return &Metrics{
		RequestsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookerregistry_visitor_requests_submitted_total",
			Help: "Visitor requests accepted and persisted",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookerregistry_visitor_request_violations_total",
			Help: "Visitor request rule violations, by code",
		}, []string{"code"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookerregistry_visitor_request_transitions_total",
			Help: "Visitor request status transitions, by target status",
		}, []string{"status"}),
		ApprovalInconsistencies: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookerregistry_approval_inconsistencies_total",
			Help: "Approvals whose visitor link failed after the status flip",
		}),
		ContactLookupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookerregistry_contact_lookup_failures_total",
			Help: "Contact registry lookups that failed and were treated as an empty list",
		}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookerregistry_submit_duration_seconds",
			Help:    "Duration of visitor request submission",
			Buckets: buckets,
		}),
		ActionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookerregistry_action_duration_seconds",
			Help:    "Duration of visitor request approval and rejection",
			Buckets: buckets,
		}, []string{"action"}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	m.RequestsSubmitted.Inc()
}

func (m *Metrics) IncrementViolation(code string) {
	m.ValidationFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementApprovalInconsistency() {
	m.ApprovalInconsistencies.Inc()
}

func (m *Metrics) IncrementContactLookupFailure() {
	m.ContactLookupFailures.Inc()
}

// ObserveSubmit records submit latency. Call with time.Now() at the start.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

// ObserveAction records approve or reject latency.
func (m *Metrics) ObserveAction(action string, start time.Time) {
	m.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
