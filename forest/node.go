package forest

import "math"

const leafFeature = -1

// Node is one arena slot of a Tree. A node with Feature == -1 is a leaf; otherwise it is an
// internal node whose children live at Left and Right in the same arena.
type Node struct {
	Feature   int32   // split feature, -1 for a leaf
	Size      int32   // rows of the sample that reached this node
	Left      int32   // arena index of the < Threshold branch
	Right     int32   // arena index of the >= Threshold branch
	Threshold float64 // split value
}

// IsLeaf reports whether n is terminal.
func (n *Node) IsLeaf() bool { return n.Feature == leafFeature }

func leafNode(size int) Node {
	return Node{Feature: leafFeature, Size: int32(size), Left: -1, Right: -1}
}

// Tree is an isolation tree stored as a pre-order arena rooted at index 0.
// Dropping the Tree releases every node at once.
type Tree struct {
	nodes []Node
}

// Nodes returns the arena. Callers must not modify it.
func (t *Tree) Nodes() []Node { return t.nodes }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Size returns the number of sample rows the tree was built from.
func (t *Tree) Size() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return int(t.nodes[0].Size)
}

// PathLength counts the internal nodes traversed by point from the root to its leaf.
// With correction set, c(size) is added for a leaf holding more than one row.
func (t *Tree) PathLength(point []float64, correction bool) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	i := int32(0)
	steps := 0
	for !t.nodes[i].IsLeaf() {
		n := &t.nodes[i]
		if point[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		steps++
	}
	if correction && t.nodes[i].Size > 1 {
		return float64(steps) + averagePathLength(int(t.nodes[i].Size))
	}
	return float64(steps)
}

// Depth returns the longest root-to-leaf edge count.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.depthFrom(0)
}

func (t *Tree) depthFrom(i int32) int {
	n := &t.nodes[i]
	if n.IsLeaf() {
		return 0
	}
	return 1 + max(t.depthFrom(n.Left), t.depthFrom(n.Right))
}

// LeafSizes returns the Size of every leaf in pre-order.
func (t *Tree) LeafSizes() []int {
	var out []int
	for i := range t.nodes {
		if t.nodes[i].IsLeaf() {
			out = append(out, int(t.nodes[i].Size))
		}
	}
	return out
}

// maxDepth is ceil(log2(max(n, 2))) + 2.
func maxDepth(sampleSize int) int {
	return int(math.Ceil(math.Log2(float64(max(sampleSize, 2))))) + 2
}
