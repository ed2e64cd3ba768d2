package forest

import (
	"fmt"
	"math"
	"math/rand"
)

// treeBuilder grows one isolation tree into bufs.nodes. It reads ds but never writes it;
// rows is a per-tree slice of row references that is partitioned in place.
type treeBuilder struct {
	ds       Dataset
	features int
	maxDepth int
	maxNodes int // 0 means unlimited
	rng      *rand.Rand
	bufs     *workerBufs
}

// buildTree draws a sample and builds a tree from it.
func (b *treeBuilder) buildTree(sampleSize int) (*Tree, error) {
	rows := b.bufs.sample(sampleSize, b.rng)
	if _, err := b.build(rows, 0); err != nil {
		b.bufs.nodes = b.bufs.nodes[:0]
		return nil, err
	}
	return &Tree{nodes: b.bufs.takeNodes()}, nil
}

// build appends the subtree for rows and returns its arena index. The parent slot is
// reserved before the children so the arena stays in pre-order.
func (b *treeBuilder) build(rows []int, depth int) (int32, error) {
	if b.maxNodes > 0 && len(b.bufs.nodes) >= b.maxNodes {
		return -1, fmt.Errorf("%w: tree exceeds %d nodes", ErrAllocation, b.maxNodes)
	}
	idx := int32(len(b.bufs.nodes))
	b.bufs.nodes = append(b.bufs.nodes, leafNode(len(rows)))
	if depth >= b.maxDepth || len(rows) <= 1 {
		return idx, nil
	}

	feature := b.rng.Intn(b.features)
	lo, hi := b.bounds(rows, feature)
	if span := hi - lo; !(span > 0) || math.IsInf(span, 0) {
		// constant feature, or NaN/Inf bounds that leave no finite threshold
		return idx, nil
	}
	threshold := lo + b.rng.Float64()*(hi-lo)
	if threshold >= hi {
		threshold = math.Nextafter(hi, lo)
	}
	pivot := b.partition(rows, feature, threshold)

	left, err := b.build(rows[:pivot], depth+1)
	if err != nil {
		return -1, err
	}
	right, err := b.build(rows[pivot:], depth+1)
	if err != nil {
		return -1, err
	}
	b.bufs.nodes[idx] = Node{
		Feature:   int32(feature),
		Size:      int32(len(rows)),
		Left:      left,
		Right:     right,
		Threshold: threshold,
	}
	return idx, nil
}

func (b *treeBuilder) bounds(rows []int, feature int) (lo, hi float64) {
	lo = b.ds.At(rows[0], feature)
	hi = lo
	for _, r := range rows[1:] {
		v := b.ds.At(r, feature)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// partition moves rows whose feature value is < threshold to the front and returns the boundary.
func (b *treeBuilder) partition(rows []int, feature int, threshold float64) int {
	pivot := 0
	for i, r := range rows {
		if b.ds.At(r, feature) < threshold {
			rows[pivot], rows[i] = rows[i], rows[pivot]
			pivot++
		}
	}
	return pivot
}
