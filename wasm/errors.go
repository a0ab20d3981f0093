package wasm

import (
	"errors"
	"fmt"
)

// Decode error sentinels, per the binary decoder's two distinct error
// namespaces (decode errors never recover internally; they surface as-is
// to the caller, wrapped with the failing DebugStack breadcrumb trail).
var (
	ErrUnexpectedEOF  = errors.New("wasm: unexpected end of input")
	ErrInvalidHeader  = errors.New("wasm: invalid magic header")
	ErrInvalidVersion = errors.New("wasm: unsupported version")
	ErrLeb128Overflow = errors.New("wasm: leb128 overflow")
	ErrUtf8           = errors.New("wasm: invalid utf-8 in name")
	ErrAlignment      = errors.New("wasm: alignment exceeds natural width")
)

// DecodeError wraps a lower-level error with the DebugStack breadcrumb trail
// captured at the point of failure, per spec.
type DecodeError struct {
	Stack []string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (while decoding: %v)", e.Err, e.Stack)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrInvalidByte reports an unexpected byte value while decoding ctx.
func ErrInvalidByte(ctx string, b byte) error {
	return fmt.Errorf("wasm: invalid byte 0x%02x while decoding %s", b, ctx)
}

// ErrUnknownOpcode reports an opcode byte outside the recognized MVP set.
func ErrUnknownOpcode(b byte) error {
	return fmt.Errorf("wasm: unknown opcode 0x%02x", b)
}

// ErrUnknownOpcodeFC reports an unrecognized 0xFC-prefixed sub-opcode.
func ErrUnknownOpcodeFC(sub uint32) error {
	return fmt.Errorf("wasm: unknown 0xFC sub-opcode %d", sub)
}

// ErrUnknownSection reports an unrecognized top-level section id.
func ErrUnknownSection(id byte) error {
	return fmt.Errorf("wasm: unknown section id %d", id)
}

// ErrUnsupportedSection reports a section the decoder intentionally rejects
// (start and datacount, per spec Non-goals).
func ErrUnsupportedSection(id byte, name string) error {
	return fmt.Errorf("wasm: %q section (id %d) is not supported", name, id)
}

// ErrRepeatedSection reports a non-custom section id appearing more than
// once, which the Wasm spec forbids (spec.md §9's resolved open question:
// reject rather than concatenate).
func ErrRepeatedSection(id byte) error {
	return fmt.Errorf("wasm: section id %d occurs more than once", id)
}

// ErrSectionSizeMismatch reports that a section's declared byte-size did not
// match the bytes its contents actually consumed.
func ErrSectionSizeMismatch(id byte, declared, consumed int64) error {
	return fmt.Errorf("wasm: section id %d declared size %d but consumed %d bytes", id, declared, consumed)
}

// ErrUnknown0x40 reports a non-zero reserved memory-index byte trailing
// memory.size/memory.grow.
func ErrUnknown0x40(b byte) error {
	return fmt.Errorf("wasm: memory.size/memory.grow reserved byte must be 0x00, got 0x%02x", b)
}
