// Package buf implements the owned, length-counted byte buffer described
// in spec.md §3: safe terminate for C-string adapters, fill-by-callback,
// prune-to-length, CRC32-C, and shallow equality.
package buf

import "uniotcore/internal/crc32c"

// Buffer is an owned byte slice with an explicit logical length, distinct
// from capacity — mirrors the source runtime's fixed-capacity byte arrays.
type Buffer struct {
	data []byte
	len  int
}

// New allocates a Buffer with the given capacity and zero length.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// FromBytes copies src into a new Buffer sized to len(src).
func FromBytes(src []byte) *Buffer {
	b := &Buffer{data: make([]byte, len(src)), len: len(src)}
	copy(b.data, src)
	return b
}

// Len returns the logical length.
func (b *Buffer) Len() int { return b.len }

// Cap returns the backing capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Bytes returns the logical content. The returned slice aliases the
// buffer's storage; callers must not retain it past the buffer's mutation.
func (b *Buffer) Bytes() []byte { return b.data[:b.len] }

// Fill invokes cb with the backing storage and adopts its reported length,
// clamped to capacity. This mirrors fill-by-callback patterns used to read
// directly into a fixed buffer without an intermediate allocation.
func (b *Buffer) Fill(cb func(dst []byte) int) {
	n := cb(b.data)
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	b.len = n
}

// Prune truncates the logical length to n, clamped to [0, len]. It never
// reallocates — bytes beyond n remain in storage but are no longer visible.
func (b *Buffer) Prune(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.len {
		n = b.len
	}
	b.len = n
}

// Terminate returns a NUL-terminated copy one byte past the logical end,
// for adapters that need a C string. The returned slice is a fresh copy.
func (b *Buffer) Terminate() []byte {
	out := make([]byte, b.len+1)
	copy(out, b.data[:b.len])
	out[b.len] = 0
	return out
}

// CRC32C returns the Castagnoli checksum of the logical content.
func (b *Buffer) CRC32C() uint32 {
	return crc32c.Checksum(b.Bytes())
}

// Equal reports shallow byte-for-byte equality of logical content.
func (b *Buffer) Equal(other *Buffer) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil {
		return false
	}
	if b.len != other.len {
		return false
	}
	for i := 0; i < b.len; i++ {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
