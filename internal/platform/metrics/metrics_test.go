package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_SessionLifecycle(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed("slow_consumer")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("slow_consumer")))
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncPolicyDenied("GUARANTEE_UPDATE")
	m.IncPolicyDenied("GUARANTEE_UPDATE")
	m.IncBusQueueFull("election_updates")
	m.SetMirrorCircuitState(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PolicyDenied.WithLabelValues("GUARANTEE_UPDATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusQueueFull.WithLabelValues("election_updates")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MirrorCircuitOpen))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.SessionClosed("normal")
		m.IncFramesSent()
		m.IncEmitterFailures("VOTING_UPDATE")
	})
}
