package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	"finwell/pkg/platform/circuit"
	"finwell/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaMetrics counts Kafka publish outcomes.
type KafkaMetrics struct {
	PublishedTotal *prometheus.CounterVec
}

func NewKafkaMetrics() *KafkaMetrics {
	return &KafkaMetrics{
		PublishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finwell_events_kafka_total",
			Help: "Events handed to Kafka by outcome (ok, error, shed)",
		}, []string{"outcome"}),
	}
}

func (m *KafkaMetrics) inc(outcome string) {
	if m == nil {
		return
	}
	m.PublishedTotal.WithLabelValues(outcome).Inc()
}

// KafkaPublisher produces events as JSON records keyed by Event.Key. Produce
// failures trip a circuit breaker; while it is open events are shed and
// Publish returns sentinel.ErrUnavailable without contacting the brokers.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *KafkaMetrics
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithKafkaMetrics(m *KafkaMetrics) KafkaOption {
	return func(p *KafkaPublisher) {
		p.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

func NewKafkaPublisher(producer Producer, topic string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("kafka-events"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if !p.breaker.Allow() {
		p.metrics.inc("shed")
		return fmt.Errorf("kafka breaker open: %w", sentinel.ErrUnavailable)
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(event.Name)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.metrics.inc("error")
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "kafka circuit breaker opened", "breaker", p.breaker.Name())
		}
		return fmt.Errorf("produce event: %w", err)
	}
	p.metrics.inc("ok")
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "kafka circuit breaker closed", "breaker", p.breaker.Name())
	}
	return nil
}
