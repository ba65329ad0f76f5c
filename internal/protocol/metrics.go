package protocol

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"finwell/internal/events"
	dErrors "finwell/pkg/domain-errors"
)

// Metrics covers protocol operations. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RevealsTotal      *prometheus.CounterVec
	ExpiredTotal      prometheus.Counter
	PublishFailures   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_protocol_operations_total",
			Help: "Protocol operations by operation and result code",
		}, []string{"operation", "code"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finwell_protocol_operation_duration_seconds",
			Help:    "Protocol operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		RevealsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_protocol_reveals_total",
			Help: "Completed decryptions by target kind",
		}, []string{"kind"}),
		ExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finwell_protocol_expired_requests_total",
			Help: "Pending decryption requests retired by the sweeper",
		}),
		PublishFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_protocol_publish_failures_total",
			Help: "Notifications that could not be published",
		}, []string{"event"}),
	}
}

func (m *Metrics) observe(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "ok"
	if err != nil {
		code = string(dErrors.CodeOf(err))
	}
	m.OperationsTotal.WithLabelValues(op, code).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) incReveal(kind string) {
	if m == nil {
		return
	}
	m.RevealsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) addExpired(n int) {
	if m == nil {
		return
	}
	m.ExpiredTotal.Add(float64(n))
}

func (m *Metrics) incPublishFailure(name events.Name) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(string(name)).Inc()
}
