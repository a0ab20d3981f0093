package vm

import (
	"github.com/vertexdlt/wasmcore/number"
)

// truncTrap performs a trapping float-to-int conversion (the plain
// i32.trunc_f32_s family): NaN or out-of-range both trap.
func truncTrap(from, to number.Type, floatBits uint64) (uint64, error) {
	r, trap := number.FloatTruncate(from, to, floatBits)
	switch trap {
	case number.NanTrap, number.ConvertTrap:
		return 0, ErrInvalidConversion
	}
	return r, nil
}

// truncSat performs the non-trapping saturating conversion added by the
// trunc_sat opcodes: NaN saturates to 0, overflow saturates to the target
// type's min/max, both of which number.FloatTruncate already computes.
func truncSat(from, to number.Type, floatBits uint64) uint64 {
	r, _ := number.FloatTruncate(from, to, floatBits)
	return r
}
