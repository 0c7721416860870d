package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the real-time update fabric.
// All helper methods are safe on a nil receiver so components can run
// without instrumentation in tests.
type Metrics struct {
	ConnectionsOpen   prometheus.Gauge
	HandshakeRejected *prometheus.CounterVec
	SessionsClosed    *prometheus.CounterVec
	FramesSent        prometheus.Counter
	PolicyDenied      *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec
	BusQueueFull      *prometheus.CounterVec
	EmitterFailures   *prometheus.CounterVec
	DispatchDuration  prometheus.Histogram
	MirrorFailures    prometheus.Counter
	MirrorCircuitOpen prometheus.Gauge
}

// New creates and registers all fabric metrics on reg. A nil reg registers on
// the process-wide default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "electionhub_ws_connections_open",
			Help: "Number of currently registered WebSocket sessions",
		}),
		HandshakeRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_ws_handshake_rejected_total",
			Help: "WebSocket handshakes closed before reaching OPEN, by reason",
		}, []string{"reason"}),
		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_ws_sessions_closed_total",
			Help: "Registered sessions dropped, by close reason",
		}, []string{"reason"}),
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "electionhub_ws_frames_sent_total",
			Help: "Frames successfully written to sockets",
		}),
		PolicyDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_ws_policy_denied_total",
			Help: "Event deliveries discarded by the authorization policy, by event kind",
		}, []string{"kind"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_bus_events_published_total",
			Help: "Domain events accepted by the bus, by event kind",
		}, []string{"kind"}),
		BusQueueFull: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_bus_queue_full_total",
			Help: "Publishes rejected because the group queue was at capacity",
		}, []string{"group"}),
		EmitterFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_emitter_failures_total",
			Help: "Domain events that could not be published or rendered, by event kind",
		}, []string{"kind"}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "electionhub_bus_dispatch_duration_seconds",
			Help:    "Time to hand one event to every member of its group",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		MirrorFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "electionhub_mirror_failures_total",
			Help: "Events that could not be mirrored to Kafka",
		}),
		MirrorCircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "electionhub_mirror_circuit_open",
			Help: "Kafka mirror circuit breaker state (0=closed, 1=open)",
		}),
	}
}

// SessionOpened increments the open connection gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsOpen.Inc()
}

// SessionClosed decrements the open connection gauge and records the reason.
func (m *Metrics) SessionClosed(reason string) {
	if m == nil {
		return
	}
	m.ConnectionsOpen.Dec()
	m.SessionsClosed.WithLabelValues(reason).Inc()
}

// IncHandshakeRejected records a handshake closed before OPEN.
func (m *Metrics) IncHandshakeRejected(reason string) {
	if m == nil {
		return
	}
	m.HandshakeRejected.WithLabelValues(reason).Inc()
}

// IncFramesSent records one frame written to a socket.
func (m *Metrics) IncFramesSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

// IncPolicyDenied records a delivery discarded by the policy.
func (m *Metrics) IncPolicyDenied(kind string) {
	if m == nil {
		return
	}
	m.PolicyDenied.WithLabelValues(kind).Inc()
}

// IncEventsPublished records an event accepted by the bus.
func (m *Metrics) IncEventsPublished(kind string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(kind).Inc()
}

// IncBusQueueFull records a publish rejected by a full group queue.
func (m *Metrics) IncBusQueueFull(group string) {
	if m == nil {
		return
	}
	m.BusQueueFull.WithLabelValues(group).Inc()
}

// IncEmitterFailures records a swallowed emission failure.
func (m *Metrics) IncEmitterFailures(kind string) {
	if m == nil {
		return
	}
	m.EmitterFailures.WithLabelValues(kind).Inc()
}

// ObserveDispatch records how long a dispatch pass took.
// Call with time.Now() at the start of the pass.
func (m *Metrics) ObserveDispatch(start time.Time) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}

// IncMirrorFailures records a failed mirror write.
func (m *Metrics) IncMirrorFailures() {
	if m == nil {
		return
	}
	m.MirrorFailures.Inc()
}

// SetMirrorCircuitState sets the mirror circuit breaker gauge.
func (m *Metrics) SetMirrorCircuitState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.MirrorCircuitOpen.Set(1)
	} else {
		m.MirrorCircuitOpen.Set(0)
	}
}
