package forest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a forest. A nil *Metrics records nothing.
type Metrics struct {
	treesBuilt    prometheus.Counter
	trainDuration prometheus.Histogram
	trainFailures *prometheus.CounterVec
	pointsScored  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		treesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iforest",
			Name:      "trees_built_total",
			Help:      "Total number of isolation trees installed by successful training runs.",
		}),
		trainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iforest",
			Name:      "train_duration_seconds",
			Help:      "Wall time of successful training runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		trainFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iforest",
			Name:      "train_failures_total",
			Help:      "Total number of failed training runs.",
		}, []string{"reason"}),
		pointsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iforest",
			Name:      "points_scored_total",
			Help:      "Total number of points scored.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.treesBuilt, m.trainDuration, m.trainFailures, m.pointsScored} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) trained(trees int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.treesBuilt.Add(float64(trees))
	m.trainDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) trainFailed(reason string) {
	if m == nil {
		return
	}
	m.trainFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) scored(n int) {
	if m == nil {
		return
	}
	m.pointsScored.Add(float64(n))
}
