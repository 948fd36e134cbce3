package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs        *prometheus.CounterVec
	LastSuccess *prometheus.GaugeVec
	Duration    *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_sweep_runs_total",
			Help: "Sweep runs by job, trigger and result",
		}, []string{"job", "trigger", "result"}),
		LastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homeloan_sweep_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job",
		}, []string{"job"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homeloan_sweep_duration_seconds",
			Help:    "Duration of sweep runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"job"}),
	}
}

func (m *Metrics) ObserveRun(job, trigger string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.LastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	m.Runs.WithLabelValues(job, trigger, result).Inc()
	m.Duration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
