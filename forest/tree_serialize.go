package forest

import (
	"encoding/binary"
	"io"
)

const (
	nodeTagInternal = 0
	nodeTagLeaf     = 1
)

// serializeTree writes the node count followed by the arena in pre-order.
func serializeTree(w io.Writer, t *Tree) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(t.nodes))); err != nil {
		return err
	}
	if len(t.nodes) == 0 {
		return nil
	}
	return serializeNode(w, t.nodes, 0)
}

// serializeNode writes node i and its subtree in pre-order.
func serializeNode(w io.Writer, nodes []Node, i int32) error {
	n := &nodes[i]
	if n.IsLeaf() {
		if err := binary.Write(w, binary.LittleEndian, uint8(nodeTagLeaf)); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint32(n.Size))
	}
	// tag, feature, size, threshold
	if err := binary.Write(w, binary.LittleEndian, uint8(nodeTagInternal)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(n.Feature)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(n.Size)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, n.Threshold); err != nil {
		return err
	}
	if err := serializeNode(w, nodes, n.Left); err != nil {
		return err
	}
	return serializeNode(w, nodes, n.Right)
}
