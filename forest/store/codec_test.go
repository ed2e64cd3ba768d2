package store

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodec(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecZstd, CodecS2, CodecLZ4} {
		got, err := ParseCodec(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, CodecNone, got)

	_, err = ParseCodec("gzip")
	assert.Error(t, err)
	_, err = GetCompressor(Codec(42))
	assert.ErrorContains(t, err, "Codec(42)")
}

func TestCompressors(t *testing.T) {
	random := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(random)
	inputs := map[string][]byte{
		"empty":      {},
		"repetitive": bytes.Repeat([]byte("isolation"), 500),
		"random":     random,
	}
	for _, c := range []Codec{CodecNone, CodecZstd, CodecS2, CodecLZ4} {
		comp, err := GetCompressor(c)
		require.NoError(t, err)
		for name, in := range inputs {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				enc, err := comp.Compress(in)
				require.NoError(t, err)
				dec, err := comp.Decompress(enc, len(in))
				require.NoError(t, err)
				assert.True(t, bytes.Equal(in, dec))
			})
		}
	}
}

func TestCompressors_RawLenMismatch(t *testing.T) {
	in := bytes.Repeat([]byte("abc"), 100)
	for _, c := range []Codec{CodecNone, CodecZstd, CodecS2, CodecLZ4} {
		comp, err := GetCompressor(c)
		require.NoError(t, err)
		enc, err := comp.Compress(in)
		require.NoError(t, err)
		_, err = comp.Decompress(enc, len(in)+1)
		assert.Error(t, err, c.String())
	}
}

func TestOpenMmap(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("payload bytes")
	b, err := EncodeHeader(&Header{PayloadLen: uint64(len(payload)), RawLen: uint64(len(payload))})
	require.NoError(t, err)

	path := filepath.Join(dir, "model.ifst")
	require.NoError(t, os.WriteFile(path, append(b, payload...), 0644))
	s, err := OpenMmap(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), s.Header().PayloadLen)
	assert.Equal(t, payload, s.Payload())
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	truncated := filepath.Join(dir, "truncated.ifst")
	require.NoError(t, os.WriteFile(truncated, append(b, payload[:3]...), 0644))
	_, err = OpenMmap(truncated)
	assert.ErrorContains(t, err, "truncated")

	_, err = OpenMmap(filepath.Join(dir, "missing.ifst"))
	assert.Error(t, err)
}
