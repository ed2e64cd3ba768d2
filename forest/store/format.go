package store

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the fixed header size.
	HeaderSize = 96

	// Magic identifies a valid isolation forest model file.
	Magic = "IFST"

	// FormatVersion is the current file format version.
	FormatVersion uint16 = 1
)

// Header flag bits.
const (
	FlagLeafCorrection uint8 = 1 << 0
)

// Header holds the persisted model metadata.
type Header struct {
	Magic            [4]byte
	Version          uint16
	Codec            Codec
	Flags            uint8
	FeatureCount     uint32
	TreeCount        uint32
	SampleSize       uint32 // effective per-tree sample size
	ConfigSampleSize uint32 // sample size as configured
	Workers          uint32
	MaxTreeNodes     uint32
	Seed             int64
	Contamination    float64
	PayloadLen       uint64   // encoded (compressed) payload bytes following the header
	RawLen           uint64   // payload bytes before compression
	Checksum         uint64   // xxHash64 of the encoded payload
	Reserved         [24]byte // pad to 96 bytes
}

// EncodeHeader writes the header to a byte slice of HeaderSize bytes.
func EncodeHeader(h *Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("header is nil")
	}
	copy(h.Magic[:], Magic)
	h.Version = FormatVersion
	var w bytes.Buffer
	if err := binary.Write(&w, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	b := w.Bytes()
	if len(b) != HeaderSize {
		return nil, errors.New("header size mismatch")
	}
	return b, nil
}

// DecodeHeader reads the header from src. Returns error if magic/version invalid.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, errors.New("header too short")
	}
	var h Header
	r := bytes.NewReader(src[:HeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != Magic {
		return nil, errors.New("invalid magic")
	}
	if h.Version != FormatVersion {
		return nil, errors.New("unsupported format version")
	}
	return &h, nil
}
