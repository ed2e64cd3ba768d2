package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_SizeAndUniqueness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, tc := range []struct{ rows, size, want int }{
		{100, 10, 10},
		{100, 100, 100},
		{10, 1000, 10},
		{1, 5, 1},
		{0, 5, 0},
	} {
		got := Sample(tc.rows, tc.size, rng)
		require.Len(t, got, tc.want, "rows=%d size=%d", tc.rows, tc.size)
		seen := make(map[int]bool, len(got))
		for _, r := range got {
			assert.GreaterOrEqual(t, r, 0)
			assert.Less(t, r, tc.rows)
			assert.False(t, seen[r], "row %d drawn twice", r)
			seen[r] = true
		}
	}
}

func TestSample_Deterministic(t *testing.T) {
	a := Sample(500, 32, rand.New(rand.NewSource(7)))
	b := Sample(500, 32, rand.New(rand.NewSource(7)))
	c := Sample(500, 32, rand.New(rand.NewSource(8)))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSample_CoversAllRows(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const rows = 20
	counts := make([]int, rows)
	for i := 0; i < 2000; i++ {
		for _, r := range Sample(rows, 5, rng) {
			counts[r]++
		}
	}
	// 2000 draws of 5/20: each row expected 500 times
	for r, c := range counts {
		assert.InDelta(t, 500, c, 100, "row %d", r)
	}
}

func TestWorkerBufs_ReuseScratch(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	b := newWorkerBufs(50, 10)
	first := append([]int(nil), b.sample(10, rng)...)
	// partition-style mutation must not leak into the next draw
	for i := range first {
		b.scratch[i] = -1
	}
	second := b.sample(10, rng)
	for _, r := range second {
		assert.GreaterOrEqual(t, r, 0)
	}
	assert.Len(t, second, 10)
}
