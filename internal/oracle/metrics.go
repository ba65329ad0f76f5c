package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the local relayer.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	DeliveriesTotal *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
}

// NewMetrics registers relayer metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_oracle_requests_total",
			Help: "Decryption requests accepted by the local oracle by callback kind",
		}, []string{"kind"}),
		DeliveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_oracle_deliveries_total",
			Help: "Callback deliveries by outcome",
		}, []string{"outcome"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finwell_oracle_queue_depth",
			Help: "Decryption jobs waiting for a relayer worker",
		}),
	}
}

func (m *Metrics) incRequest(kind CallbackKind) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) incDelivery(outcome string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
