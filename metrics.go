package spacetree

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const algorithmLabel = "algorithm"

// Metrics exports tree activity to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	rebuilds        *prometheus.CounterVec
	rebuildDuration *prometheus.HistogramVec
	nodes           *prometheus.GaugeVec
	entitiesAdded   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetree_rebuilds_total",
			Help: "The number of full tree rebuilds.",
		}, []string{algorithmLabel}),

		rebuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spacetree_rebuild_duration_seconds",
			Help:    "How long full tree rebuilds take.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{algorithmLabel}),

		nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacetree_nodes",
			Help: "The number of live nodes in the tree.",
		}, []string{algorithmLabel}),

		entitiesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetree_entities_added_total",
			Help: "The number of entities inserted into the tree.",
		}, []string{algorithmLabel}),
	}

	if reg != nil {
		reg.MustRegister(m.rebuilds, m.rebuildDuration, m.nodes, m.entitiesAdded)
	}
	return m
}

func (m *Metrics) rebuilt(a Algorithm, d time.Duration) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(a.String()).Inc()
	m.rebuildDuration.WithLabelValues(a.String()).Observe(d.Seconds())
}

func (m *Metrics) setNodes(a Algorithm, n int) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(a.String()).Set(float64(n))
}

func (m *Metrics) entityAdded(a Algorithm) {
	if m == nil {
		return
	}
	m.entitiesAdded.WithLabelValues(a.String()).Inc()
}
