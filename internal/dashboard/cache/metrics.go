package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dashboard cache outcomes by scope.
type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	StaleWrites   *prometheus.CounterVec
	Errors        *prometheus.CounterVec
}

// NewMetrics registers the cache collectors on reg, or on the default
// registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_dashboard_cache_hits_total",
			Help: "Dashboard cache lookups served from cache, by scope",
		}, []string{"scope"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_dashboard_cache_misses_total",
			Help: "Dashboard cache lookups that forced recomputation, by scope",
		}, []string{"scope"}),
		Invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_dashboard_cache_invalidations_total",
			Help: "Dashboard cache invalidations, by scope",
		}, []string{"scope"}),
		StaleWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_dashboard_cache_stale_writes_total",
			Help: "Dashboard documents discarded because their scope was invalidated while they were computed, by scope",
		}, []string{"scope"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "electionhub_dashboard_cache_errors_total",
			Help: "Dashboard cache backend errors, by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) hit(scope string) {
	if m != nil {
		m.Hits.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) miss(scope string) {
	if m != nil {
		m.Misses.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) invalidated(scope string) {
	if m != nil {
		m.Invalidations.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) stale(scope string) {
	if m != nil {
		m.StaleWrites.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) failed(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
