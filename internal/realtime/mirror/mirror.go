// Package mirror copies accepted domain events to a Kafka topic for
// downstream reporting consumers. Mirroring is best effort: a slow or
// unavailable broker never delays fan-out.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"electionhub/internal/platform/metrics"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/circuit"
)

const defaultBuffer = 1024

// Producer is the subset of *kgo.Client the mirror needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Mirror buffers events and produces them from a single worker, so records
// keep publish order.
type Mirror struct {
	producer       Producer
	topic          string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	breaker        *circuit.Breaker
	queue          chan events.Event
	produceTimeout time.Duration
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithBuffer sets how many events may wait for the worker before new ones
// are dropped.
func WithBuffer(n int) Option {
	return func(m *Mirror) {
		if n > 0 {
			m.queue = make(chan events.Event, n)
		}
	}
}

// WithMetrics records failures and circuit state.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mirror) {
		m.metrics = mt
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Mirror) {
		if b != nil {
			m.breaker = b
		}
	}
}

// WithProduceTimeout bounds a single produce call.
func WithProduceTimeout(d time.Duration) Option {
	return func(m *Mirror) {
		if d > 0 {
			m.produceTimeout = d
		}
	}
}

func New(producer Producer, topic string, logger *slog.Logger, opts ...Option) *Mirror {
	m := &Mirror{
		producer:       producer,
		topic:          topic,
		logger:         logger,
		breaker:        circuit.New("kafka-mirror", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		queue:          make(chan events.Event, defaultBuffer),
		produceTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Mirror queues e without blocking. When the buffer is full the event is
// dropped and counted as a failure.
func (m *Mirror) Mirror(e events.Event) {
	select {
	case m.queue <- e:
	default:
		m.metrics.IncMirrorFailures()
		m.logger.Warn("mirror buffer full, dropping event",
			"event_kind", e.Kind,
			"entity_id", e.EntityID,
		)
	}
}

// Run produces queued events until ctx is cancelled.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-m.queue:
			m.produce(ctx, e)
		}
	}
}

func (m *Mirror) produce(ctx context.Context, e events.Event) {
	if !m.breaker.Allow() {
		m.metrics.IncMirrorFailures()
		return
	}

	record, err := m.record(e)
	if err != nil {
		m.metrics.IncMirrorFailures()
		m.logger.Error("failed to encode mirror record",
			"event_kind", e.Kind,
			"error", err,
		)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, m.produceTimeout)
	err = m.producer.ProduceSync(pctx, record).FirstErr()
	cancel()

	if err != nil {
		m.metrics.IncMirrorFailures()
		if m.breaker.RecordFailure() == circuit.Opened {
			m.metrics.SetMirrorCircuitState(true)
			m.logger.Error("kafka mirror circuit opened",
				"topic", m.topic,
				"error", err,
			)
			return
		}
		m.logger.Warn("failed to mirror event",
			"topic", m.topic,
			"event_kind", e.Kind,
			"entity_id", e.EntityID,
			"error", err,
		)
		return
	}

	if m.breaker.RecordSuccess() == circuit.Closed {
		m.metrics.SetMirrorCircuitState(false)
		m.logger.Info("kafka mirror circuit closed", "topic", m.topic)
	}
}

// Record is the JSON value written for each event.
type Record struct {
	Kind               events.Kind      `json:"kind"`
	Action             events.Action    `json:"action"`
	Scope              events.Scope     `json:"scope,omitempty"`
	EntityID           string           `json:"entity_id,omitempty"`
	OwnerID            string           `json:"owner_id,omitempty"`
	AffectedPrincipals []id.PrincipalID `json:"affected_principals"`
	Timestamp          string           `json:"timestamp"`
	Payload            any              `json:"payload"`
}

func (m *Mirror) record(e events.Event) (*kgo.Record, error) {
	rec := Record{
		Kind:               e.Kind,
		Action:             e.Action,
		Scope:              e.Scope,
		EntityID:           e.EntityID,
		AffectedPrincipals: e.AffectedPrincipals,
		Timestamp:          events.FormatTimestamp(e.Timestamp),
		Payload:            e.Payload,
	}
	if rec.AffectedPrincipals == nil {
		rec.AffectedPrincipals = []id.PrincipalID{}
	}
	if !e.OwnerID.IsNil() {
		rec.OwnerID = e.OwnerID.String()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Kind, err)
	}
	key := e.EntityID
	if key == "" {
		key = string(e.Kind)
	}
	return &kgo.Record{
		Topic: m.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_kind", Value: []byte(e.Kind)},
			{Key: "event_action", Value: []byte(e.Action)},
		},
	}, nil
}
