package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identifier allocation.
type Metrics struct {
	// Successful allocations by kind (user, event)
	Allocations *prometheus.CounterVec

	// Allocation latency including retries
	AllocationLatency *prometheus.HistogramVec

	// Retries by strategy and reason (conflict, unavailable)
	Retries *prometheus.CounterVec

	// Allocations that ran out of attempts
	ConflictsExhausted *prometheus.CounterVec

	// Partitions that hit capacity. Any increase needs an operator.
	SequenceExhausted *prometheus.CounterVec

	// Names resolved through the derived-code fallback, by dictionary
	CodeFallbacks *prometheus.CounterVec

	// Allocation events that could not be published
	PublishFailures prometheus.Counter
}

// New registers the metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Allocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsuid_allocations_total",
			Help: "Total identifiers issued by kind",
		}, []string{"kind"}),

		AllocationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sportsuid_allocation_duration_seconds",
			Help:    "Duration of sequence allocation including retries",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind", "outcome"}),

		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsuid_allocation_retries_total",
			Help: "Allocation attempts retried by strategy and reason",
		}, []string{"strategy", "reason"}),

		ConflictsExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsuid_allocation_conflicts_exhausted_total",
			Help: "Allocations that failed after exhausting retries",
		}, []string{"kind"}),

		SequenceExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsuid_sequence_exhausted_total",
			Help: "Allocations refused because the partition reached capacity",
		}, []string{"category"}),

		CodeFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsuid_code_fallbacks_total",
			Help: "Names not found in a dictionary and resolved to a derived code",
		}, []string{"dictionary"}),

		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sportsuid_event_publish_failures_total",
			Help: "Allocation events that could not be published",
		}),
	}
}

// ObserveAllocation records one allocation outcome and its latency.
func (m *Metrics) ObserveAllocation(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if outcome == "ok" {
		m.Allocations.WithLabelValues(kind).Inc()
	}
	m.AllocationLatency.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// ObserveRetry implements allocator.RetryObserver.
func (m *Metrics) ObserveRetry(strategy, reason string) {
	if m != nil {
		m.Retries.WithLabelValues(strategy, reason).Inc()
	}
}

func (m *Metrics) IncrementConflictsExhausted(kind string) {
	if m != nil {
		m.ConflictsExhausted.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementSequenceExhausted(category string) {
	if m != nil {
		m.SequenceExhausted.WithLabelValues(category).Inc()
	}
}

// ObserveFallback implements codes.FallbackObserver.
func (m *Metrics) ObserveFallback(dictionary string) {
	if m != nil {
		m.CodeFallbacks.WithLabelValues(dictionary).Inc()
	}
}

func (m *Metrics) IncrementPublishFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
