package vm

import "math/bits"

// i32DivS performs signed i32 division with Wasm's trap semantics: divide by
// zero traps, and the one overflowing case (MinInt32 / -1) traps rather than
// wrapping silently back to MinInt32 as a plain Go int32 division does, so
// it's checked explicitly first.
func i32DivS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == -2147483648 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

func i32DivU(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func i32RemS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == -2147483648 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func i32RemU(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

func i64DivS(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

func i64DivU(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func i64RemS(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func i64RemU(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

func rotl32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, int(n&31)) }
func rotr32(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, -int(n&31)) }
func rotl64(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, int(n&63)) }
func rotr64(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, -int(n&63)) }

func clz32(v uint32) uint32    { return uint32(bits.LeadingZeros32(v)) }
func ctz32(v uint32) uint32    { return uint32(bits.TrailingZeros32(v)) }
func popcnt32(v uint32) uint32 { return uint32(bits.OnesCount32(v)) }

func clz64(v uint64) uint64    { return uint64(bits.LeadingZeros64(v)) }
func ctz64(v uint64) uint64    { return uint64(bits.TrailingZeros64(v)) }
func popcnt64(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }

func boolVal(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
