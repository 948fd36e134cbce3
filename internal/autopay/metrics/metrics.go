package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCharged      = "charged"
	OutcomeDeclined     = "declined"
	OutcomeRecordFailed = "record_failed"
)

type Metrics struct {
	Attempts    *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_autopay_attempts_total",
			Help: "Auto-pay charge attempts, by outcome",
		}, []string{"outcome"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "homeloan_autopay_run_duration_seconds",
			Help:    "Duration of one auto-pay run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (m *Metrics) IncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRun(start time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(time.Since(start).Seconds())
}
