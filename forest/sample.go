package forest

import "math/rand"

// Sample draws min(size, rows) distinct row indices uniformly at random from [0, rows).
// The returned slice is owned by the caller.
func Sample(rows, size int, rng *rand.Rand) []int {
	if rows <= 0 || size <= 0 {
		return nil
	}
	scratch := make([]int, rows)
	drawn := sampleInto(scratch, size, rng)
	out := make([]int, len(drawn))
	copy(out, drawn)
	return out
}

// sampleInto 在 scratch 上做部分 Fisher–Yates 洗牌，返回 scratch 的前 n 个元素
func sampleInto(scratch []int, size int, rng *rand.Rand) []int {
	total := len(scratch)
	if size > total {
		size = total
	}
	for i := range scratch {
		scratch[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + rng.Intn(total-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	return scratch[:size]
}

// workerBufs holds per-worker reusable buffers; one instance is never shared between goroutines.
type workerBufs struct {
	scratch []int  // row references, sized to the dataset
	nodes   []Node // arena under construction
}

func newWorkerBufs(rows, sampleSize int) *workerBufs {
	return &workerBufs{
		scratch: make([]int, rows),
		nodes:   make([]Node, 0, 2*sampleSize),
	}
}

// sample re-initialises the scratch array and draws the rows for one tree.
func (b *workerBufs) sample(size int, rng *rand.Rand) []int {
	return sampleInto(b.scratch, size, rng)
}

// takeNodes returns a compact copy of the arena and resets it for the next tree.
func (b *workerBufs) takeNodes() []Node {
	out := make([]Node, len(b.nodes))
	copy(out, b.nodes)
	b.nodes = b.nodes[:0]
	return out
}
