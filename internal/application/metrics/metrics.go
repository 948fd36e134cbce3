package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks application submissions, decisions and transition latency.
type Metrics struct {
	Submitted         prometheus.Counter
	Transitions       *prometheus.CounterVec
	Refused           *prometheus.CounterVec
	TransitionLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeloan_applications_submitted_total",
			Help: "Total number of loan applications submitted",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"status"}),
		Refused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_application_operations_refused_total",
			Help: "Application operations refused, by operation and error code",
		}, []string{"operation", "code"}),
		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "homeloan_application_transition_duration_seconds",
			Help:    "Duration of application state transitions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncSubmitted() {
	if m == nil {
		return
	}
	m.Submitted.Inc()
}

func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncRefused(operation, code string) {
	if m == nil {
		return
	}
	m.Refused.WithLabelValues(operation, code).Inc()
}

// ObserveTransition records latency. Call with time.Now() taken at the start.
func (m *Metrics) ObserveTransition(start time.Time) {
	if m == nil {
		return
	}
	m.TransitionLatency.Observe(time.Since(start).Seconds())
}
