package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// clusterRows returns n points of dim features drawn from N(0, std²).
func clusterRows(n, dim int, std float64, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	for i := range out {
		p := make([]float64, dim)
		for j := range p {
			p[j] = rng.NormFloat64() * std
		}
		out[i] = p
	}
	return out
}

func mustMatrix(t testing.TB, rows [][]float64) *Matrix {
	t.Helper()
	m, err := MatrixFromRows(rows)
	require.NoError(t, err)
	return m
}

func newTestForest(t testing.TB, cfg *Config) *Forest {
	t.Helper()
	f, err := New(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func testConfig(features int) *Config {
	cfg := DefaultConfig()
	cfg.FeatureCount = features
	cfg.TreeCount = 20
	cfg.SampleSize = 64
	cfg.Workers = 3
	return cfg
}

// leafOf returns the arena index of the leaf point reaches.
func leafOf(tr *Tree, point []float64) int32 {
	nodes := tr.Nodes()
	i := int32(0)
	for !nodes[i].IsLeaf() {
		if point[nodes[i].Feature] < nodes[i].Threshold {
			i = nodes[i].Left
		} else {
			i = nodes[i].Right
		}
	}
	return i
}
