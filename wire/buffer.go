// Package wire implements the byte I/O primitives the body processor and
// header codec build on: a growable byte buffer with primitive-append, a
// random-access reader with seek/tell, and endianness-aware primitive
// read/write with integer-width promotion (spec §4.1).
//
// This stands in for the spec's "generic contiguous-sequence container"
// and "random-access byte reader" external collaborators, grounded on the
// explicit byte-at-offset framing gravwell's ingest/entry package uses
// (entry.EncodeHeader/DecodeHeader) generalized into a reusable cursor.
package wire

import "errors"

// ErrShortRead is returned when a read or seek runs past the end of the
// buffer's contents.
var ErrShortRead = errors.New("wire: short read")

// Buffer is a growable byte sink that also supports random-access reads
// via an internal cursor (Tell/Seek), matching the spec's requirement for
// a single type that serves both the serialize side (append) and the
// deserialize side (read/seek/tell) of a context.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps an existing byte slice for reading (deserialize side).
// The returned Buffer's cursor starts at 0.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// NewEmptyBuffer returns a Buffer ready for appends (serialize side).
func NewEmptyBuffer() *Buffer {
	return &Buffer{}
}

// Bytes returns the full backing slice written so far.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the total number of bytes held by the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Tell returns the current cursor position.
func (b *Buffer) Tell() int { return b.pos }

// Remaining returns the number of unread bytes ahead of the cursor.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// Seek repositions the cursor to an absolute offset. It is an error to
// seek past the end of the buffer's contents.
func (b *Buffer) Seek(off int) error {
	if off < 0 || off > len(b.data) {
		return ErrShortRead
	}
	b.pos = off
	return nil
}

// Append writes p to the end of the buffer, independent of the read
// cursor, and returns the offset the write began at. This is the
// "push_back_bytes" primitive the spec's pointer map uses to record where
// an object's body begins.
func (b *Buffer) Append(p []byte) (offset int) {
	offset = len(b.data)
	b.data = append(b.data, p...)
	return
}

// AppendByte appends a single byte and returns the offset it was written
// at.
func (b *Buffer) AppendByte(v byte) (offset int) {
	offset = len(b.data)
	b.data = append(b.data, v)
	return
}

// ReadBytes reads n bytes at the cursor and advances it, returning a
// sub-slice of the backing array (no copy — callers needing to retain the
// bytes past further buffer mutation should copy).
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || b.pos+n > len(b.data) {
		return nil, ErrShortRead
	}
	out := b.data[b.pos : b.pos+n]
	b.pos += n
	return out, nil
}

// ReadByte reads a single byte at the cursor and advances it.
func (b *Buffer) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, ErrShortRead
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// Reset clears both the contents and the cursor, for context reuse
// (session.Common.Clear).
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.pos = 0
}

// RewindCursor resets only the read/write cursor to the start, keeping
// contents intact (session.Common.ResetToDefaultsExceptContents).
func (b *Buffer) RewindCursor() {
	b.pos = 0
}
