package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the servicing ledger.
type Metrics struct {
	PaymentsRecorded   *prometheus.CounterVec
	DuplicatePayments  prometheus.Counter
	OverdueTransitions *prometheus.CounterVec
	StatusChanges      *prometheus.CounterVec
	Refused            *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		PaymentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_payments_recorded_total",
			Help: "Confirmed payments applied to mortgages, by method",
		}, []string{"method"}),
		DuplicatePayments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "homeloan_payments_duplicate_total",
			Help: "Replayed payment confirmations absorbed by transaction id",
		}),
		OverdueTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_payment_overdue_transitions_total",
			Help: "Payment periods aged by the overdue sweep, by new status",
		}, []string{"status"}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_mortgage_status_changes_total",
			Help: "Mortgage status changes by target status",
		}, []string{"status"}),
		Refused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_servicing_operations_refused_total",
			Help: "Servicing operations refused, by operation and error code",
		}, []string{"operation", "code"}),
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homeloan_servicing_operation_duration_seconds",
			Help:    "Duration of servicing operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncPaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) IncDuplicatePayment() {
	if m == nil {
		return
	}
	m.DuplicatePayments.Inc()
}

func (m *Metrics) AddOverdue(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.OverdueTransitions.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) IncStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncRefused(operation, code string) {
	if m == nil {
		return
	}
	m.Refused.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records latency. Call with time.Now() taken at the start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
