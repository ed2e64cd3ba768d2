package store

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression applied to the model payload.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to its Codec.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "s2":
		return CodecS2, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", name)
	}
}

// Compressor compresses and decompresses a whole payload in one call.
// Returned slices are newly allocated and owned by the caller.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	// Decompress needs rawLen, the uncompressed size recorded in the header.
	Decompress(data []byte, rawLen int) ([]byte, error)
}

// GetCompressor returns the built-in Compressor for c.
func GetCompressor(c Codec) (Compressor, error) {
	switch c {
	case CodecNone:
		return noopCompressor{}, nil
	case CodecZstd:
		return zstdCompressor{}, nil
	case CodecS2:
		return s2Compressor{}, nil
	case CodecLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", c)
	}
}

type noopCompressor struct{}

func (noopCompressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (noopCompressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	if len(data) != rawLen {
		return nil, fmt.Errorf("raw payload is %d bytes, header says %d", len(data), rawLen)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return encoder
	},
}

type zstdCompressor struct{}

func (zstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)
	return encoder.EncodeAll(data, nil), nil
}

func (zstdCompressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)
	out, err := decoder.DecodeAll(data, make([]byte, 0, rawLen))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("zstd payload decodes to %d bytes, header says %d", len(out), rawLen)
	}
	return out, nil
}

type s2Compressor struct{}

func (s2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Compressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n != rawLen {
		return nil, fmt.Errorf("s2 payload decodes to %d bytes, header says %d", n, rawLen)
	}
	return s2.Decode(make([]byte, rawLen), data)
}

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

type lz4Compressor struct{}

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)
	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		// incompressible: stored as is, recognised by its length on decode
		return (noopCompressor{}).Compress(data)
	}
	return dst[:n], nil
}

func (lz4Compressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	if rawLen == 0 {
		return nil, nil
	}
	if len(data) == rawLen {
		return (noopCompressor{}).Decompress(data, rawLen)
	}
	buf := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	if n != rawLen {
		return nil, fmt.Errorf("lz4 payload decodes to %d bytes, header says %d", n, rawLen)
	}
	return buf, nil
}
