package forest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_TrainAndScore(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	cfg := testConfig(2)
	f, err := New(cfg, WithMetrics(m))
	require.NoError(t, err)
	defer f.Close()

	require.ErrorIs(t, f.Train(mustMatrix(t, clusterRows(10, 3, 1, 1))), ErrInvalidDataset)
	require.NoError(t, f.Train(mustMatrix(t, clusterRows(100, 2, 1, 2))))
	_, err = f.ScoreBatch(clusterRows(5, 2, 1, 3))
	require.NoError(t, err)
	_, err = f.Score([]float64{0, 0})
	require.NoError(t, err)

	assert.Equal(t, float64(cfg.TreeCount), testutil.ToFloat64(m.treesBuilt))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainFailures.WithLabelValues("invalid_dataset")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.pointsScored))
	assert.Equal(t, 1, testutil.CollectAndCount(m.trainDuration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.trained(1, 0)
		m.trainFailed("x")
		m.scored(1)
	})
}
