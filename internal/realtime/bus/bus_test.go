package bus_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electionhub/internal/principal/models"
	"electionhub/internal/realtime/bus"
	"electionhub/internal/realtime/events"
	"electionhub/internal/realtime/policy"
	"electionhub/internal/realtime/realtimetest"
	"electionhub/internal/realtime/registry"
	id "electionhub/pkg/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func guaranteeEvent(seq int) events.Event {
	return events.Event{
		Kind:      events.KindGuarantee,
		Action:    events.ActionUpdated,
		Payload:   map[string]int{"seq": seq},
		Timestamp: time.Now(),
	}
}

type recordingMirror struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *recordingMirror) Mirror(e events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *recordingMirror) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestBus_FIFOPerGroup(t *testing.T) {
	reg := registry.New(policy.MayReceive, discard)
	b := bus.New(reg, discard)
	defer b.Close()

	var sinks []*realtimetest.Sink
	for range 3 {
		sink := realtimetest.NewSink()
		s := registry.NewSession(&models.Principal{ID: id.NewPrincipalID(), Role: models.RoleAdmin}, sink, registry.ClientInfo{})
		require.NoError(t, reg.Register(s))
		require.NoError(t, b.Subscribe(events.DefaultGroup, s.ID))
		require.NoError(t, b.Subscribe(events.DefaultGroup, s.ID), "subscribe is idempotent")
		sinks = append(sinks, sink)
	}

	const n = 100
	for i := range n {
		require.NoError(t, b.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(i)))
	}

	for _, sink := range sinks {
		require.Eventually(t, func() bool { return len(sink.Frames()) == n }, 2*time.Second, 5*time.Millisecond)
		for i, frame := range sink.Decoded() {
			assert.Equal(t, float64(i), frame["data"].(map[string]any)["seq"])
		}
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	reg := registry.New(policy.MayReceive, discard)
	b := bus.New(reg, discard)
	defer b.Close()

	sink := realtimetest.NewSink()
	s := registry.NewSession(&models.Principal{ID: id.NewPrincipalID(), Role: models.RoleAdmin}, sink, registry.ClientInfo{})
	require.NoError(t, reg.Register(s))
	require.NoError(t, b.Subscribe("committee:A1", s.ID))
	b.Unsubscribe("committee:A1", s.ID)
	b.Unsubscribe("committee:A1", s.ID)

	require.NoError(t, b.Publish(context.Background(), "committee:A1", guaranteeEvent(1)))
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, sink.Frames())
}

// blockingDeliverer parks the dispatcher so the group queue fills.
type blockingDeliverer struct {
	release chan struct{}
}

func (d *blockingDeliverer) Members(string) []id.SessionID { return []id.SessionID{id.NewSessionID()} }
func (d *blockingDeliverer) Deliver(id.SessionID, events.Envelope) {
	<-d.release
}
func (d *blockingDeliverer) Join(string, id.SessionID) error { return nil }
func (d *blockingDeliverer) Leave(string, id.SessionID)      {}

func TestBus_PublishNeverBlocks(t *testing.T) {
	d := &blockingDeliverer{release: make(chan struct{})}
	b := bus.New(d, discard, bus.WithQueueDepth(2))

	ctx := context.Background()
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 10 {
			if err = b.Publish(ctx, "g", guaranteeEvent(i)); err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled consumer")
	}
	assert.ErrorIs(t, err, bus.ErrQueueFull)

	close(d.release)
	b.Close()
	assert.ErrorIs(t, b.Publish(ctx, "g", guaranteeEvent(0)), bus.ErrClosed)
	assert.False(t, b.Configured())
}

func TestBus_RejectsInvalidEvents(t *testing.T) {
	b := bus.New(registry.New(policy.MayReceive, discard), discard)
	defer b.Close()

	err := b.Publish(context.Background(), events.DefaultGroup, events.Event{Kind: events.KindGuarantee, Timestamp: time.Now()})
	assert.ErrorIs(t, err, events.ErrInvalidEvent)
}

func TestBus_MirrorsAcceptedEvents(t *testing.T) {
	m := &recordingMirror{}
	b := bus.New(registry.New(policy.MayReceive, discard), discard, bus.WithMirror(m))
	defer b.Close()

	require.NoError(t, b.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(1)))
	require.NoError(t, b.Publish(context.Background(), events.DefaultGroup, guaranteeEvent(2)))
	assert.Equal(t, 2, m.len())
	assert.Equal(t, "InMemoryEventBus+KafkaMirror", b.Type())
}
