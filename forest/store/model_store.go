package store

import (
	"errors"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/multierr"
)

// ModelStore provides read-only access to a persisted model file.
type ModelStore interface {
	// Header returns the decoded file header.
	Header() *Header
	// Payload returns the encoded payload that follows the header.
	// The slice is valid until Close is called. Caller must not modify it.
	Payload() []byte
	// Close releases resources (e.g. unmaps the file).
	Close() error
}

// MmapModelStore is a ModelStore backed by an mmap'd file.
type MmapModelStore struct {
	f      *os.File
	data   mmap.MMap
	header *Header
}

// OpenMmap opens a model file, maps it read-only and validates the header and payload length.
func OpenMmap(path string) (ModelStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	s := &MmapModelStore{f: f, data: m}
	h, err := DecodeHeader(m)
	if err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	if uint64(len(m)-HeaderSize) < h.PayloadLen {
		return nil, multierr.Append(errors.New("payload truncated"), s.Close())
	}
	s.header = h
	return s, nil
}

// Header returns the decoded header.
func (s *MmapModelStore) Header() *Header {
	return s.header
}

// Payload returns the encoded payload.
func (s *MmapModelStore) Payload() []byte {
	if s.data == nil || s.header == nil {
		return nil
	}
	return s.data[HeaderSize : HeaderSize+int(s.header.PayloadLen)]
}

// Close unmaps the file and closes it.
func (s *MmapModelStore) Close() error {
	var err error
	if s.data != nil {
		err = multierr.Append(err, s.data.Unmap())
		s.data = nil
	}
	if s.f != nil {
		err = multierr.Append(err, s.f.Close())
		s.f = nil
	}
	return err
}
