package number

// Type tags a numeric domain used by truncation/limit helpers. It is
// independent from wasm.ValType: U32/U64 exist here because trunc_u targets
// an unsigned range while the stack still carries the bits in an i32/i64 slot.
type Type int

const (
	I32 Type = iota
	I64
	U32
	U64
	F32
	F64
)

// TrapCode reports which kind of trap (if any) a truncation produced.
type TrapCode int

const (
	// NoTrap means the conversion succeeded normally.
	NoTrap TrapCode = iota
	// NanTrap means the source float was NaN.
	NanTrap
	// ConvertTrap means the source float was out of the target integer's range.
	ConvertTrap
)
