package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entity outcomes recorded per visit.
const (
	OutcomeIncluded  = "included"
	OutcomeExcluded  = "excluded"
	OutcomeUnmatched = "unmatched"
	OutcomeIgnored   = "ignored"
)

// Metrics records traversal activity. A nil *Metrics records nothing.
type Metrics struct {
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	Entities    *prometheus.CounterVec
	Resources   prometheus.Counter
}

// NewMetrics registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contentgraph_runs_total",
			Help: "Graph generation runs by result",
		}, []string{"result"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentgraph_run_duration_seconds",
			Help:    "Duration of graph generation runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		Entities: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contentgraph_entities_total",
			Help: "Visited filesystem entities by outcome",
		}, []string{"outcome"}),
		Resources: f.NewCounter(prometheus.CounterOpts{
			Name: "contentgraph_resources_total",
			Help: "Resources populated into generated graphs",
		}),
	}
}

func (m *Metrics) entity(outcome string) {
	if m == nil {
		return
	}
	m.Entities.WithLabelValues(outcome).Inc()
}

func (m *Metrics) resources(n int) {
	if m == nil {
		return
	}
	m.Resources.Add(float64(n))
}

func (m *Metrics) run(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Runs.WithLabelValues(result).Inc()
	m.RunDuration.Observe(time.Since(start).Seconds())
}
