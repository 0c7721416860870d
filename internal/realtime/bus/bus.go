// Package bus is the in-process publish/subscribe layer between the event
// emitter and the connection registry.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"electionhub/internal/platform/metrics"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/sentinel"
)

// ErrQueueFull is returned by Publish when a group's buffer is at capacity.
var ErrQueueFull = errors.New("bus queue full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = sentinel.ErrClosed

// Deliverer owns group membership and per-session delivery.
type Deliverer interface {
	Members(group string) []id.SessionID
	Deliver(sessionID id.SessionID, env events.Envelope)
	Join(group string, sessionID id.SessionID) error
	Leave(group string, sessionID id.SessionID)
}

// Mirror receives a copy of every accepted event. Implementations must not
// block.
type Mirror interface {
	Mirror(e events.Event)
}

// Bus queues events per group. One dispatcher goroutine per group drains its
// queue in order, which gives per-group FIFO delivery.
type Bus struct {
	deliverer Deliverer
	depth     int
	mirror    Mirror
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	queues map[string]chan events.Envelope
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueDepth sets the per-group buffer size.
func WithQueueDepth(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.depth = n
		}
	}
}

// WithMirror attaches a downstream copy of the event stream.
func WithMirror(m Mirror) Option {
	return func(b *Bus) {
		b.mirror = m
	}
}

// WithMetrics attaches fabric metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func New(deliverer Deliverer, logger *slog.Logger, opts ...Option) *Bus {
	b := &Bus{
		deliverer: deliverer,
		depth:     1024,
		logger:    logger,
		queues:    make(map[string]chan events.Envelope),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Publish renders e once and enqueues it for group without waiting on any
// consumer. A nil error means the event was accepted, not delivered.
func (b *Bus) Publish(_ context.Context, group string, e events.Event) error {
	frame, err := events.Render(e)
	if err != nil {
		return err
	}
	env := events.Envelope{Event: e, Frame: frame}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	q := b.queueLocked(group)
	select {
	case q <- env:
	default:
		b.mu.Unlock()
		b.metrics.IncBusQueueFull(group)
		return fmt.Errorf("%w: group %s", ErrQueueFull, group)
	}
	b.mu.Unlock()

	b.metrics.IncEventsPublished(string(e.Kind))
	if b.mirror != nil {
		b.mirror.Mirror(e)
	}
	return nil
}

// Subscribe adds a session to group. Idempotent.
func (b *Bus) Subscribe(group string, sessionID id.SessionID) error {
	return b.deliverer.Join(group, sessionID)
}

// Unsubscribe removes a session from group. Idempotent.
func (b *Bus) Unsubscribe(group string, sessionID id.SessionID) {
	b.deliverer.Leave(group, sessionID)
}

// Configured reports whether the bus accepts events.
func (b *Bus) Configured() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// Type names the channel layer for health reporting.
func (b *Bus) Type() string {
	if b.mirror != nil {
		return "InMemoryEventBus+KafkaMirror"
	}
	return "InMemoryEventBus"
}

// Close stops accepting events, lets dispatchers drain what is queued and
// waits for them to finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, q := range b.queues {
		close(q)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) queueLocked(group string) chan events.Envelope {
	q, ok := b.queues[group]
	if !ok {
		q = make(chan events.Envelope, b.depth)
		b.queues[group] = q
		b.wg.Add(1)
		go b.dispatch(group, q)
	}
	return q
}

func (b *Bus) dispatch(group string, q <-chan events.Envelope) {
	defer b.wg.Done()
	for env := range q {
		start := time.Now()
		members := b.deliverer.Members(group)
		for _, sid := range members {
			b.deliverer.Deliver(sid, env)
		}
		b.metrics.ObserveDispatch(start)
		b.logger.Debug("event dispatched",
			"group", group,
			"event_kind", env.Event.Kind,
			"entity_id", env.Event.EntityID,
			"recipients", len(members),
		)
	}
}
