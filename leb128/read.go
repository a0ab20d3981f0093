// Package leb128 implements LEB128 variable-length integer decoding as used
// throughout the Wasm binary format.
// https://webassembly.github.io/spec/core/binary/values.html#integers
package leb128

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a LEB128 sequence encodes a value wider than
// the requested bit width.
var ErrOverflow = errors.New("leb128: overflow")

// ByteReader is the minimal cursor interface leb128 reads from. It is
// satisfied by *wasm.Cursor so the decoder never needs to buffer bytes.
type ByteReader interface {
	ReadByte() (byte, error)
}

// ReadUint reads an unsigned LEB128 value of at most maxBits significant
// bits (32 or 64 in practice) and returns the decoded value and the number
// of bytes consumed.
func ReadUint(r ByteReader, maxBits uint32) (uint64, int, error) {
	var (
		result uint64
		shift  uint32
		n      int
	)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, err
		}
		n++
		if shift >= 64 {
			return 0, n, ErrOverflow
		}
		chunk := uint64(b & 0x7f)
		if shift == 63 && chunk > 1 {
			return 0, n, ErrOverflow
		}
		result |= chunk << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < maxBits {
				return result, n, nil
			}
			// high bits beyond maxBits must be zero
			if maxBits < 64 && result>>maxBits != 0 {
				return 0, n, fmt.Errorf("%w: value exceeds %d bits", ErrOverflow, maxBits)
			}
			return result, n, nil
		}
		if shift/7*7 > maxBits+7 {
			return 0, n, ErrOverflow
		}
	}
}

// ReadInt reads a signed LEB128 value of at most maxBits significant bits
// (32 or 64) with sign extension of the final byte.
func ReadInt(r ByteReader, maxBits uint32) (int64, int, error) {
	var (
		result int64
		shift  uint32
		n      int
		b      byte
		err    error
	)
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, n, err
		}
		n++
		if shift >= 64 {
			return 0, n, ErrOverflow
		}
		chunk := int64(b & 0x7f)
		result |= chunk << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift/7*7 > maxBits+7 {
			return 0, n, ErrOverflow
		}
	}
	// sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if maxBits < 64 {
		// verify the value fits in maxBits signed range
		hi := result >> (maxBits - 1)
		if hi != 0 && hi != -1 {
			return 0, n, fmt.Errorf("%w: value exceeds %d bits", ErrOverflow, maxBits)
		}
	}
	return result, n, nil
}

// ReadUint32 reads a LEB128 encoded unsigned 32-bit integer.
func ReadUint32(r ByteReader) (uint32, error) {
	v, _, err := ReadUint(r, 32)
	return uint32(v), err
}

// ReadUint64 reads a LEB128 encoded unsigned 64-bit integer.
func ReadUint64(r ByteReader) (uint64, error) {
	v, _, err := ReadUint(r, 64)
	return v, err
}

// ReadInt32 reads a LEB128 encoded signed 32-bit integer.
func ReadInt32(r ByteReader) (int32, error) {
	v, _, err := ReadInt(r, 32)
	return int32(v), err
}

// ReadInt64 reads a LEB128 encoded signed 64-bit integer.
func ReadInt64(r ByteReader) (int64, error) {
	v, _, err := ReadInt(r, 64)
	return v, err
}

// ReadVarS33 reads a signed 33-bit LEB128, used only for BlockType type
// indices (the extra bit distinguishes a type index from a value type byte).
func ReadVarS33(r ByteReader) (int64, error) {
	v, _, err := ReadInt(r, 33)
	return v, err
}
