package wasm

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/vertexdlt/wasmcore/leb128"
)

// Cursor is a forward-only reader over an immutable byte slice. All decode
// functions in this package take a *Cursor rather than an io.Reader so that
// callers can pre-slice a section's bytes and bound decoding precisely to
// its declared size.
type Cursor struct {
	b   []byte
	pos int
}

// NewCursor wraps b for sequential decoding starting at offset 0.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.b) - c.pos }

// ReadByte implements leb128.ByteReader and io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.b) {
		return 0, ErrUnexpectedEOF
	}
	b := c.b[c.pos]
	c.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (c *Cursor) PeekByte() (byte, error) {
	if c.pos >= len(c.b) {
		return 0, ErrUnexpectedEOF
	}
	return c.b[c.pos], nil
}

// ReadBytes consumes and returns the next n bytes.
func (c *Cursor) ReadBytes(n uint32) ([]byte, error) {
	if c.pos+int(n) > len(c.b) {
		return nil, ErrUnexpectedEOF
	}
	out := c.b[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return out, nil
}

// ReadU32 reads a fixed 4-byte little-endian unsigned integer (used for the
// module magic/version and for f32 constants).
func (c *Cursor) ReadU32() (uint32, error) {
	buf, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64 reads a fixed 8-byte little-endian unsigned integer (used for f64
// constants).
func (c *Cursor) ReadU64() (uint64, error) {
	buf, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadName reads a length-prefixed UTF-8 byte sequence.
func (c *Cursor) ReadName() (string, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrUtf8
	}
	return string(b), nil
}

var _ io.ByteReader = (*Cursor)(nil)
