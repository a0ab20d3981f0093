// Package number holds small helpers for the bit-exact numeric semantics
// the interpreter needs: integer range limits and float-to-int truncation,
// shared by vm's conversion opcodes.
package number

import "math"

// Min returns the minimum representable value of t, as raw bits.
func Min(t Type) uint64 {
	switch t {
	case I32:
		return uint64(math.MaxInt32) + 1
	case I64:
		return uint64(math.MaxInt64) + 1
	case U32, U64:
		return 0
	}
	panic("number: invalid type")
}

// Max returns the maximum representable value of t, as raw bits.
func Max(t Type) uint64 {
	switch t {
	case I32:
		return uint64(math.MaxInt32)
	case I64:
		return uint64(math.MaxInt64)
	case U32:
		return uint64(math.MaxUint32)
	case U64:
		return math.MaxUint64
	}
	panic("number: invalid type")
}
