package forest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/iforest/forest/store"
)

func trainedForest(t *testing.T) (*Forest, [][]float64) {
	t.Helper()
	cfg := testConfig(3)
	cfg.Contamination = 0.05
	cfg.LeafCorrection = true
	f := newTestForest(t, cfg)
	rows := clusterRows(300, 3, 1, 42)
	require.NoError(t, f.Train(mustMatrix(t, rows)))
	return f, rows
}

func assertSameScores(t *testing.T, want, got *Forest, points [][]float64) {
	t.Helper()
	for i, p := range points {
		a, err := want.Score(p)
		require.NoError(t, err)
		b, err := got.Score(p)
		require.NoError(t, err)
		assert.Equal(t, a, b, "point %d", i)
	}
}

func TestPersist_EncodeReadRoundtrip(t *testing.T) {
	f, rows := trainedForest(t)
	for _, codec := range []store.Codec{store.CodecNone, store.CodecZstd, store.CodecS2, store.CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, f.Encode(&buf, codec))
			loaded, err := ReadForest(&buf)
			require.NoError(t, err)
			defer loaded.Close()

			assert.Equal(t, f.Config(), loaded.Config())
			assert.Equal(t, f.SampleSize(), loaded.SampleSize())
			require.Equal(t, f.TreeCount(), loaded.TreeCount())
			for i := range f.Trees() {
				assert.Equal(t, f.Trees()[i].Nodes(), loaded.Trees()[i].Nodes(), "tree %d", i)
			}
			assertSameScores(t, f, loaded, rows[:20])
		})
	}
}

func TestPersist_SaveToAtomic(t *testing.T) {
	f, rows := trainedForest(t)
	tmp := filepath.Join(t.TempDir(), "model.ifst")
	require.NoError(t, f.SaveToAtomic(tmp, store.CodecZstd))
	_, err := os.Stat(tmp + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be removed after rename")

	loaded, err := NewForestFromFile(tmp)
	require.NoError(t, err)
	defer loaded.Close()
	assert.Equal(t, StateTrained, loaded.State())
	assertSameScores(t, f, loaded, rows[:20])
}

func TestPersist_LoadFrom(t *testing.T) {
	f, rows := trainedForest(t)
	tmp := filepath.Join(t.TempDir(), "model.ifst")
	require.NoError(t, f.SaveTo(tmp, store.CodecS2))

	cfg := testConfig(3)
	cfg.SampleSize = 200
	cfg.Seed = 99
	cfg.Workers = 5
	cfg.ScoreWorkers = 2
	fresh := newTestForest(t, cfg)
	require.NoError(t, fresh.LoadFrom(tmp))
	assert.Equal(t, StateTrained, fresh.State())
	require.Equal(t, f.TreeCount(), fresh.TreeCount())

	// model parameters follow the file, runtime settings stay with the receiver
	got := fresh.Config()
	want := f.Config()
	assert.Equal(t, want.SampleSize, got.SampleSize)
	assert.Equal(t, want.Seed, got.Seed)
	assert.Equal(t, want.Contamination, got.Contamination)
	assert.True(t, got.LeafCorrection)
	assert.Equal(t, 5, got.Workers)
	assert.Equal(t, 2, got.ScoreWorkers)
	assertSameScores(t, f, fresh, rows[:20])
	batch, err := fresh.ScoreBatch(rows[:20])
	require.NoError(t, err)
	for i, p := range rows[:20] {
		s, err := f.Score(p)
		require.NoError(t, err)
		assert.Equal(t, s, batch[i])
	}

	// retraining uses the receiver's own configuration again
	require.NoError(t, fresh.Train(mustMatrix(t, rows)))
	assert.Equal(t, *cfg, fresh.Config())
	assert.False(t, fresh.Config().LeafCorrection)

	mismatch := newTestForest(t, testConfig(2))
	assert.ErrorIs(t, mismatch.LoadFrom(tmp), ErrInvalidConfig)
	assert.Equal(t, StateUninitialized, mismatch.State())
}

func TestPersist_UntrainedCannotBeSaved(t *testing.T) {
	f := newTestForest(t, testConfig(2))
	var buf bytes.Buffer
	assert.ErrorIs(t, f.Encode(&buf, store.CodecNone), ErrInvalidState)
	assert.Zero(t, buf.Len())
}

func TestPersist_CorruptPayload(t *testing.T) {
	f, _ := trainedForest(t)
	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf, store.CodecNone))
	data := buf.Bytes()

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-3] ^= 0xFF
	_, err := ReadForest(bytes.NewReader(flipped))
	assert.ErrorIs(t, err, ErrCorruptModel)

	_, err = ReadForest(bytes.NewReader(data[:len(data)-10]))
	assert.ErrorIs(t, err, ErrCorruptModel)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'
	_, err = ReadForest(bytes.NewReader(badMagic))
	assert.ErrorIs(t, err, ErrCorruptModel)
}

// Header fields sit outside the checksum; oversized lengths and counts must fail cleanly.
func TestPersist_CorruptHeaderSizes(t *testing.T) {
	f, _ := trainedForest(t)
	encode := func(codec store.Codec) []byte {
		var buf bytes.Buffer
		require.NoError(t, f.Encode(&buf, codec))
		return buf.Bytes()
	}
	// RawLen lives at offset 56, TreeCount at 12, the checksum at 64
	for _, codec := range []store.Codec{store.CodecNone, store.CodecZstd, store.CodecS2, store.CodecLZ4} {
		data := encode(codec)
		binary.LittleEndian.PutUint64(data[56:], 1<<62)
		assert.NotPanics(t, func() {
			_, err := ReadForest(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrCorruptModel, codec.String())
		})
	}

	data := encode(store.CodecNone)
	binary.LittleEndian.PutUint32(data[12:], 1<<31)
	assert.NotPanics(t, func() {
		_, err := ReadForest(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrCorruptModel)
	})

	// node count of the first tree, with a checksum that matches the edited payload
	data = encode(store.CodecNone)
	binary.LittleEndian.PutUint32(data[store.HeaderSize:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint64(data[64:], xxhash.Sum64(data[store.HeaderSize:]))
	assert.NotPanics(t, func() {
		_, err := ReadForest(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrCorruptModel)
	})
}

func TestPersist_TreeDecoderRejectsBadStructure(t *testing.T) {
	f, _ := trainedForest(t)
	var raw bytes.Buffer
	tr := f.Trees()[0]
	require.NoError(t, serializeTree(&raw, tr))

	trees, err := parseTrees(raw.Bytes(), 1, 3, f.SampleSize())
	require.NoError(t, err)
	assert.Equal(t, tr.Nodes(), trees[0].Nodes())

	// feature index out of range for a 1-feature model
	if !tr.Nodes()[0].IsLeaf() {
		_, err = parseTrees(raw.Bytes(), 1, 1, f.SampleSize())
		assert.ErrorIs(t, err, ErrCorruptModel)
	}
	_, err = parseTrees(raw.Bytes(), 2, 3, f.SampleSize())
	assert.ErrorIs(t, err, ErrCorruptModel)
	_, err = parseTrees(raw.Bytes(), 1, 3, f.SampleSize()+1)
	assert.ErrorIs(t, err, ErrCorruptModel)
}
