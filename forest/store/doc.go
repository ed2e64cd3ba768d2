// Package store provides the persisted model file format, the payload codecs and the
// mmap-backed model reader for the forest package. It is used internally by
// forest.SaveTo, forest.LoadFrom and forest.NewForestFromFile.
//
// The file format consists of:
//   - Header (96 bytes): magic, version, codec, forest configuration, payload sizes, checksum
//   - Payload: the pre-order encoded trees, compressed with the header's codec
package store
