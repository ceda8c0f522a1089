// Package xtaf implements the FATX on-disk engine: the cluster-chain
// allocator, the directory-entry tree, the I/O caching layer, and the
// cross-mode check/undelete algorithms.
package xtaf

import "encoding/binary"

// LE16 decodes a little-endian 16-bit word.
func LE16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// LE32 decodes a little-endian 32-bit word.
func LE32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutLE16 encodes v into buf as a little-endian 16-bit word.
func PutLE16(buf []byte, v uint16) {
	binary.LittleEndian.PutUint16(buf, v)
}

// PutLE32 encodes v into buf as a little-endian 32-bit word.
func PutLE32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}
