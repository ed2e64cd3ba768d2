package forest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ic-timon/iforest/forest/store"
)

// maxRawLen bounds the decompressed payload of a model file.
const maxRawLen = math.MaxInt32

// Encode writes the trained forest to w: a store.Header followed by the trees compressed with codec.
func (f *Forest) Encode(w io.Writer, codec store.Codec) error {
	e, err := f.snapshot()
	if err != nil {
		return err
	}
	comp, err := store.GetCompressor(codec)
	if err != nil {
		return err
	}
	var raw bytes.Buffer
	for _, t := range e.trees {
		if err := serializeTree(&raw, t); err != nil {
			return err
		}
	}
	payload, err := comp.Compress(raw.Bytes())
	if err != nil {
		return fmt.Errorf("compress model payload: %w", err)
	}

	cfg := e.cfg
	h := &store.Header{
		Codec:            codec,
		FeatureCount:     uint32(cfg.FeatureCount),
		TreeCount:        uint32(len(e.trees)),
		SampleSize:       uint32(e.sampleSize),
		ConfigSampleSize: uint32(cfg.SampleSize),
		Workers:          uint32(cfg.Workers),
		MaxTreeNodes:     uint32(cfg.MaxTreeNodes),
		Seed:             cfg.Seed,
		Contamination:    cfg.Contamination,
		PayloadLen:       uint64(len(payload)),
		RawLen:           uint64(raw.Len()),
		Checksum:         xxhash.Sum64(payload),
	}
	if cfg.LeafCorrection {
		h.Flags |= store.FlagLeafCorrection
	}
	headerBytes, err := store.EncodeHeader(h)
	if err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// SaveTo writes the forest to a file.
func (f *Forest) SaveTo(path string, codec store.Codec) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()
	return f.Encode(file, codec)
}

// SaveToAtomic writes the forest to a file atomically (write to path+".tmp", then rename).
// On Windows, the target must not exist for Rename to succeed; remove it first.
func (f *Forest) SaveToAtomic(path string, codec store.Codec) error {
	tmp := path + ".tmp"
	if err := f.SaveTo(tmp, codec); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	_ = os.Remove(path) // ignore error if not exists
	return os.Rename(tmp, path)
}

// ReadForest decodes a forest written by Encode. opts are applied as in New.
func ReadForest(r io.Reader, opts ...Option) (*Forest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	h, err := store.DecodeHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if uint64(len(data)-store.HeaderSize) < h.PayloadLen {
		return nil, fmt.Errorf("%w: payload truncated", ErrCorruptModel)
	}
	payload := data[store.HeaderSize : store.HeaderSize+int(h.PayloadLen)]
	return decodeModel(h, payload, opts)
}

// NewForestFromFile loads a forest from file (mmap). The trees are decoded onto the heap and
// the mapping is released before returning.
func NewForestFromFile(path string, opts ...Option) (f *Forest, err error) {
	s, err := store.OpenMmap(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, s.Close())
		if err != nil {
			f = nil
		}
	}()
	return decodeModel(s.Header(), s.Payload(), opts)
}

// LoadFrom replaces the trees of f with those stored at path. The file must have been written
// by a forest with the same FeatureCount and TreeCount. Config then reports the loaded model's
// parameters (SampleSize, Seed, Contamination, LeafCorrection) and scoring follows them; the
// runtime settings Workers, MaxTreeNodes and ScoreWorkers stay those of f. A later Train
// builds with f's own configuration again.
func (f *Forest) LoadFrom(path string) error {
	loaded, err := NewForestFromFile(path)
	if err != nil {
		return err
	}
	defer loaded.Close()
	lc := loaded.Config()
	if lc.FeatureCount != f.cfg.FeatureCount || lc.TreeCount != f.cfg.TreeCount {
		return fmt.Errorf("%w: model has %d trees over %d features, forest expects %d over %d",
			ErrInvalidConfig, lc.TreeCount, lc.FeatureCount, f.cfg.TreeCount, f.cfg.FeatureCount)
	}
	e := loaded.current.Load()

	f.trainMu.Lock()
	defer f.trainMu.Unlock()
	if s := f.State(); s == StateDestroyed {
		return fmt.Errorf("%w: forest is %s", ErrInvalidState, s)
	}
	cfg := e.cfg
	cfg.Workers = f.cfg.Workers
	cfg.MaxTreeNodes = f.cfg.MaxTreeNodes
	cfg.ScoreWorkers = f.cfg.ScoreWorkers
	f.install(newEnsemble(e.trees, e.sampleSize, cfg))
	f.logger.Info("forest loaded",
		zap.String("path", path),
		zap.Int("trees", len(e.trees)),
		zap.Int("sample_size", cfg.SampleSize),
		zap.Bool("leaf_correction", cfg.LeafCorrection))
	return nil
}

func decodeModel(h *store.Header, payload []byte, opts []Option) (*Forest, error) {
	// the checksum does not cover the header
	if h.RawLen > maxRawLen {
		return nil, fmt.Errorf("%w: raw payload length %d exceeds %d", ErrCorruptModel, h.RawLen, uint64(maxRawLen))
	}
	if sum := xxhash.Sum64(payload); sum != h.Checksum {
		return nil, fmt.Errorf("%w: checksum %016x, header says %016x", ErrCorruptModel, sum, h.Checksum)
	}
	cfg := &Config{
		TreeCount:      int(h.TreeCount),
		SampleSize:     int(h.ConfigSampleSize),
		FeatureCount:   int(h.FeatureCount),
		Workers:        int(h.Workers),
		Contamination:  h.Contamination,
		Seed:           h.Seed,
		LeafCorrection: h.Flags&store.FlagLeafCorrection != 0,
		MaxTreeNodes:   int(h.MaxTreeNodes),
	}
	if h.SampleSize == 0 || h.SampleSize > h.ConfigSampleSize {
		return nil, fmt.Errorf("%w: sample size %d with configured %d", ErrCorruptModel, h.SampleSize, h.ConfigSampleSize)
	}
	f, err := New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	comp, err := store.GetCompressor(h.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	raw, err := comp.Decompress(payload, int(h.RawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	trees, err := parseTrees(raw, cfg.TreeCount, cfg.FeatureCount, int(h.SampleSize))
	if err != nil {
		return nil, err
	}
	f.install(newEnsemble(trees, int(h.SampleSize), *cfg))
	return f, nil
}
