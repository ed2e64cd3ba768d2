package forest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// treeDecoder rebuilds arenas from the pre-order stream and validates every node.
type treeDecoder struct {
	r          *bytes.Reader
	features   int
	depthMax   int
	sampleSize int
	nodes      []Node
	limit      int
}

const (
	leafBytes    = 1 + 4
	minTreeBytes = 4 + leafBytes
)

// deserializeTree reads one tree written by serializeTree.
func (d *treeDecoder) deserializeTree() (*Tree, error) {
	var count uint32
	if err := binary.Read(d.r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrCorruptModel)
	}
	d.limit = int(count)
	// count comes from the file; size the arena by what the sample and the payload can hold
	d.nodes = make([]Node, 0, min(d.limit, 2*d.sampleSize, d.r.Len()/leafBytes))
	if _, err := d.deserializeNode(0); err != nil {
		return nil, err
	}
	if len(d.nodes) != d.limit {
		return nil, fmt.Errorf("%w: tree declares %d nodes, holds %d", ErrCorruptModel, d.limit, len(d.nodes))
	}
	return &Tree{nodes: d.nodes}, nil
}

func (d *treeDecoder) deserializeNode(depth int) (int32, error) {
	if len(d.nodes) >= d.limit {
		return -1, fmt.Errorf("%w: tree holds more than %d nodes", ErrCorruptModel, d.limit)
	}
	if depth > d.depthMax {
		return -1, fmt.Errorf("%w: tree deeper than %d", ErrCorruptModel, d.depthMax)
	}
	var tag uint8
	if err := binary.Read(d.r, binary.LittleEndian, &tag); err != nil {
		return -1, err
	}
	idx := int32(len(d.nodes))
	if tag == nodeTagLeaf {
		var size uint32
		if err := binary.Read(d.r, binary.LittleEndian, &size); err != nil {
			return -1, err
		}
		d.nodes = append(d.nodes, leafNode(int(size)))
		return idx, nil
	}
	if tag != nodeTagInternal {
		return -1, fmt.Errorf("%w: unknown node tag %d", ErrCorruptModel, tag)
	}
	var feature, size uint32
	var threshold float64
	if err := binary.Read(d.r, binary.LittleEndian, &feature); err != nil {
		return -1, err
	}
	if err := binary.Read(d.r, binary.LittleEndian, &size); err != nil {
		return -1, err
	}
	if err := binary.Read(d.r, binary.LittleEndian, &threshold); err != nil {
		return -1, err
	}
	if int(feature) >= d.features || math.IsNaN(threshold) {
		return -1, fmt.Errorf("%w: bad split (feature %d, threshold %g)", ErrCorruptModel, feature, threshold)
	}
	d.nodes = append(d.nodes, Node{})
	left, err := d.deserializeNode(depth + 1)
	if err != nil {
		return -1, err
	}
	right, err := d.deserializeNode(depth + 1)
	if err != nil {
		return -1, err
	}
	if d.nodes[left].Size+d.nodes[right].Size != int32(size) {
		return -1, fmt.Errorf("%w: children of node %d hold %d rows, node holds %d",
			ErrCorruptModel, idx, d.nodes[left].Size+d.nodes[right].Size, size)
	}
	d.nodes[idx] = Node{
		Feature:   int32(feature),
		Size:      int32(size),
		Left:      left,
		Right:     right,
		Threshold: threshold,
	}
	return idx, nil
}

// parseTrees decodes count trees from the raw payload.
func parseTrees(data []byte, count, features, sampleSize int) ([]*Tree, error) {
	if count > len(data)/minTreeBytes {
		return nil, fmt.Errorf("%w: %d bytes cannot hold %d trees", ErrCorruptModel, len(data), count)
	}
	d := &treeDecoder{r: bytes.NewReader(data), features: features, depthMax: maxDepth(sampleSize), sampleSize: sampleSize}
	trees := make([]*Tree, count)
	for i := range trees {
		t, err := d.deserializeTree()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = fmt.Errorf("%w: payload ends inside tree %d", ErrCorruptModel, i)
			}
			return nil, err
		}
		if t.Size() != sampleSize {
			return nil, fmt.Errorf("%w: tree %d holds %d rows, sample size is %d", ErrCorruptModel, i, t.Size(), sampleSize)
		}
		trees[i] = t
	}
	return trees, nil
}
