package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSent       = "sent"
	ResultNoContact  = "no_contact"
	ResultFailed     = "failed"
	ResultQueueFull  = "queue_full"
	ResultRenderFail = "render_failed"
)

type Metrics struct {
	Notifications *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "homeloan_notifications_total",
			Help: "Borrower notifications by event type and result",
		}, []string{"event_type", "result"}),
	}
}

func (m *Metrics) Inc(eventType, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(eventType, result).Inc()
}
