// Package connbuf implements the fixed-capacity, two-headed byte buffer
// backing each connection's pending read and write data.
package connbuf

import "goredis/internal/protocol"

// Buffer is a fixed-capacity byte buffer with separate read and write
// heads. Bytes arrive past writeHead and are consumed from readHead
// forward; the invariant 0 <= readHead <= writeHead <= capacity always
// holds.
type Buffer struct {
	data      [protocol.BufLen]byte
	readHead  int
	writeHead int
}

// New returns an empty buffer with both heads at zero.
func New() *Buffer {
	return &Buffer{}
}

// IsEmpty reports whether every written byte has been read.
func (b *Buffer) IsEmpty() bool {
	return b.readHead == b.writeHead
}

// Writable returns the mutable slice fresh bytes should be read into.
func (b *Buffer) Writable() []byte {
	return b.data[b.writeHead:]
}

// Readable returns the pending bytes still awaiting parsing or sending.
func (b *Buffer) Readable() []byte {
	return b.data[b.readHead:b.writeHead]
}

// AdvanceWrite records n freshly written bytes.
func (b *Buffer) AdvanceWrite(n int) {
	b.writeHead += n
	if b.writeHead > len(b.data) {
		panic("connbuf: write head advanced past capacity")
	}
}

// AdvanceRead records n bytes consumed from the front of Readable.
func (b *Buffer) AdvanceRead(n int) {
	b.readHead += n
	if b.readHead > b.writeHead {
		panic("connbuf: read head advanced past write head")
	}
}

// Compact shifts any pending unread bytes down to offset zero, making
// room at the end of the buffer for more writes. It is a no-op (and safe
// to call repeatedly) when the buffer is already compacted.
func (b *Buffer) Compact() {
	if b.readHead == 0 {
		return
	}

	n := copy(b.data[:], b.data[b.readHead:b.writeHead])
	b.writeHead = n
	b.readHead = 0
}

// Reset returns both heads to zero, discarding any remaining content. Used
// once a response has been fully flushed.
func (b *Buffer) Reset() {
	b.readHead = 0
	b.writeHead = 0
}
