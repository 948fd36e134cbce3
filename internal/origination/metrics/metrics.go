package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts originations and the duplicates the one-to-one fence absorbed.
type Metrics struct {
	Originated prometheus.Counter
	Duplicates prometheus.Counter
	Failures   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Originated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeloan_mortgages_originated_total",
			Help: "Mortgages created from approved applications",
		}),
		Duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeloan_origination_duplicates_total",
			Help: "Origination attempts refused because the application already has a mortgage",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeloan_origination_failures_total",
			Help: "Origination attempts that failed for any other reason",
		}),
	}
}

func (m *Metrics) IncOriginated() {
	if m == nil {
		return
	}
	m.Originated.Inc()
}

func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.Duplicates.Inc()
}

func (m *Metrics) IncFailure() {
	if m == nil {
		return
	}
	m.Failures.Inc()
}
