// Package vm implements the Wasm runtime: the value stack, frame stack,
// depth/label stack, linear memory, globals, tables, exports, and the
// per-opcode step interpreter. It never decodes bytes — it only consumes
// the immutable *wasm.Module produced by the wasm package.
package vm

import (
	"fmt"
	"math"

	"github.com/vertexdlt/wasmcore/wasm"
)

// ValueKind tags a Value's dynamic type.
type ValueKind byte

const (
	KindI32 ValueKind = iota
	KindI64
	KindF32
	KindF64
	KindFuncRef
	KindExternRef
	// KindBlockMarker tags the control-frame base sentinel built by
	// BlockMarker. The interpreter never pushes one: block bases are tracked
	// by the label stack's recorded heights instead.
	KindBlockMarker
)

// Value is the tagged union the operand stack holds. Numeric values are
// stored as raw bits (i32/f32 in the low 32 bits of Bits, i64/f64 in all 64)
// so arithmetic and reinterpret opcodes share one representation, matching
// the bit-exact semantics spec.md §4.4 requires.
type Value struct {
	Kind ValueKind
	Bits uint64
}

// I32 constructs an i32 value.
func I32(v int32) Value { return Value{Kind: KindI32, Bits: uint64(uint32(v))} }

// I64 constructs an i64 value.
func I64(v int64) Value { return Value{Kind: KindI64, Bits: uint64(v)} }

// F32 constructs an f32 value from a float32.
func F32(v float32) Value { return Value{Kind: KindF32, Bits: uint64(math.Float32bits(v))} }

// F64 constructs an f64 value from a float64.
func F64(v float64) Value { return Value{Kind: KindF64, Bits: math.Float64bits(v)} }

// FuncRef constructs a function reference value holding a function index.
func FuncRef(idx uint32) Value { return Value{Kind: KindFuncRef, Bits: uint64(idx)} }

// ExternRef constructs an opaque external reference value.
func ExternRef(idx uint32) Value { return Value{Kind: KindExternRef, Bits: uint64(idx)} }

// BlockMarker returns the control-frame base sentinel.
func BlockMarker() Value { return Value{Kind: KindBlockMarker} }

// I32 returns v's low 32 bits as a signed integer.
func (v Value) I32() int32 { return int32(uint32(v.Bits)) }

// U32 returns v's low 32 bits as an unsigned integer.
func (v Value) U32() uint32 { return uint32(v.Bits) }

// I64 returns v's 64 bits as a signed integer.
func (v Value) I64() int64 { return int64(v.Bits) }

// U64 returns v's 64 bits as an unsigned integer.
func (v Value) U64() uint64 { return v.Bits }

// F32 returns v's low 32 bits reinterpreted as a float32.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Bits)) }

// F64 returns v's 64 bits reinterpreted as a float64.
func (v Value) F64() float64 { return math.Float64frombits(v.Bits) }

func (v Value) String() string {
	switch v.Kind {
	case KindI32:
		return fmt.Sprintf("i32(%d)", v.I32())
	case KindI64:
		return fmt.Sprintf("i64(%d)", v.I64())
	case KindF32:
		return fmt.Sprintf("f32(%v)", v.F32())
	case KindF64:
		return fmt.Sprintf("f64(%v)", v.F64())
	case KindFuncRef:
		return fmt.Sprintf("funcref(%d)", v.U32())
	case KindExternRef:
		return fmt.Sprintf("externref(%d)", v.U32())
	default:
		return "blockmarker"
	}
}

// valTypeOf returns the wasm.ValType corresponding to kind, or 0 for
// KindBlockMarker (never a real value type).
func valTypeOf(k ValueKind) wasm.ValType {
	switch k {
	case KindI32:
		return wasm.ValI32
	case KindI64:
		return wasm.ValI64
	case KindF32:
		return wasm.ValF32
	case KindF64:
		return wasm.ValF64
	case KindFuncRef:
		return wasm.ValFuncRef
	case KindExternRef:
		return wasm.ValExternRef
	}
	return 0
}

// zeroValue returns the zero-initialized Value for a declared local/global
// of type vt.
func zeroValue(vt wasm.ValType) Value {
	switch vt {
	case wasm.ValI32:
		return I32(0)
	case wasm.ValI64:
		return I64(0)
	case wasm.ValF32:
		return F32(0)
	case wasm.ValF64:
		return F64(0)
	case wasm.ValFuncRef:
		return Value{Kind: KindFuncRef, Bits: math.MaxUint32} // null funcref
	case wasm.ValExternRef:
		return Value{Kind: KindExternRef, Bits: math.MaxUint32} // null externref
	}
	panic("vm: zeroValue: invalid value type")
}
