package vm

import (
	"math"

	"github.com/vertexdlt/wasmcore/number"
	"github.com/vertexdlt/wasmcore/wasm"
)

func isNumericOp(op wasm.Opcode) bool {
	switch op {
	case wasm.OpI32Eqz, wasm.OpI32Eq, wasm.OpI32Ne, wasm.OpI32LtS, wasm.OpI32LtU, wasm.OpI32GtS, wasm.OpI32GtU,
		wasm.OpI32LeS, wasm.OpI32LeU, wasm.OpI32GeS, wasm.OpI32GeU,
		wasm.OpI64Eqz, wasm.OpI64Eq, wasm.OpI64Ne, wasm.OpI64LtS, wasm.OpI64LtU, wasm.OpI64GtS, wasm.OpI64GtU,
		wasm.OpI64LeS, wasm.OpI64LeU, wasm.OpI64GeS, wasm.OpI64GeU,
		wasm.OpF32Eq, wasm.OpF32Ne, wasm.OpF32Lt, wasm.OpF32Gt, wasm.OpF32Le, wasm.OpF32Ge,
		wasm.OpF64Eq, wasm.OpF64Ne, wasm.OpF64Lt, wasm.OpF64Gt, wasm.OpF64Le, wasm.OpF64Ge,
		wasm.OpI32Clz, wasm.OpI32Ctz, wasm.OpI32Popcnt, wasm.OpI32Add, wasm.OpI32Sub, wasm.OpI32Mul,
		wasm.OpI32DivS, wasm.OpI32DivU, wasm.OpI32RemS, wasm.OpI32RemU,
		wasm.OpI32And, wasm.OpI32Or, wasm.OpI32Xor, wasm.OpI32Shl, wasm.OpI32ShrS, wasm.OpI32ShrU, wasm.OpI32Rotl, wasm.OpI32Rotr,
		wasm.OpI64Clz, wasm.OpI64Ctz, wasm.OpI64Popcnt, wasm.OpI64Add, wasm.OpI64Sub, wasm.OpI64Mul,
		wasm.OpI64DivS, wasm.OpI64DivU, wasm.OpI64RemS, wasm.OpI64RemU,
		wasm.OpI64And, wasm.OpI64Or, wasm.OpI64Xor, wasm.OpI64Shl, wasm.OpI64ShrS, wasm.OpI64ShrU, wasm.OpI64Rotl, wasm.OpI64Rotr,
		wasm.OpF32Abs, wasm.OpF32Neg, wasm.OpF32Ceil, wasm.OpF32Floor, wasm.OpF32Trunc, wasm.OpF32Nearest, wasm.OpF32Sqrt,
		wasm.OpF32Add, wasm.OpF32Sub, wasm.OpF32Mul, wasm.OpF32Div, wasm.OpF32Min, wasm.OpF32Max, wasm.OpF32Copysign,
		wasm.OpF64Abs, wasm.OpF64Neg, wasm.OpF64Ceil, wasm.OpF64Floor, wasm.OpF64Trunc, wasm.OpF64Nearest, wasm.OpF64Sqrt,
		wasm.OpF64Add, wasm.OpF64Sub, wasm.OpF64Mul, wasm.OpF64Div, wasm.OpF64Min, wasm.OpF64Max, wasm.OpF64Copysign,
		wasm.OpI32WrapI64, wasm.OpI32TruncF32S, wasm.OpI32TruncF32U, wasm.OpI32TruncF64S, wasm.OpI32TruncF64U,
		wasm.OpI64ExtendI32S, wasm.OpI64ExtendI32U, wasm.OpI64TruncF32S, wasm.OpI64TruncF32U, wasm.OpI64TruncF64S, wasm.OpI64TruncF64U,
		wasm.OpF32ConvertI32S, wasm.OpF32ConvertI32U, wasm.OpF32ConvertI64S, wasm.OpF32ConvertI64U, wasm.OpF32DemoteF64,
		wasm.OpF64ConvertI32S, wasm.OpF64ConvertI32U, wasm.OpF64ConvertI64S, wasm.OpF64ConvertI64U, wasm.OpF64PromoteF32,
		wasm.OpI32ReinterpretF32, wasm.OpI64ReinterpretF64, wasm.OpF32ReinterpretI32, wasm.OpF64ReinterpretI64:
		return true
	}
	return false
}

func (rt *Runtime) execNumeric(ins wasm.Instr) error {
	switch ins.Op {
	// i32 comparisons
	case wasm.OpI32Eqz:
		rt.push(I32(boolVal(rt.pop().I32() == 0)))
	case wasm.OpI32Eq:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a == b)))
	case wasm.OpI32Ne:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a != b)))
	case wasm.OpI32LtS:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpI32LtU:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpI32GtS:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpI32GtU:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpI32LeS:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpI32LeU:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpI32GeS:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(boolVal(a >= b)))
	case wasm.OpI32GeU:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(boolVal(a >= b)))

	// i64 comparisons (pushed as i32 booleans)
	case wasm.OpI64Eqz:
		rt.push(I32(boolVal(rt.pop().I64() == 0)))
	case wasm.OpI64Eq:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a == b)))
	case wasm.OpI64Ne:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a != b)))
	case wasm.OpI64LtS:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpI64LtU:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpI64GtS:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpI64GtU:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpI64LeS:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpI64LeU:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpI64GeS:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I32(boolVal(a >= b)))
	case wasm.OpI64GeU:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I32(boolVal(a >= b)))

	// f32/f64 comparisons
	case wasm.OpF32Eq:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a == b)))
	case wasm.OpF32Ne:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a != b)))
	case wasm.OpF32Lt:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpF32Gt:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpF32Le:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpF32Ge:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(I32(boolVal(a >= b)))
	case wasm.OpF64Eq:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a == b)))
	case wasm.OpF64Ne:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a != b)))
	case wasm.OpF64Lt:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a < b)))
	case wasm.OpF64Gt:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a > b)))
	case wasm.OpF64Le:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a <= b)))
	case wasm.OpF64Ge:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(I32(boolVal(a >= b)))

	// i32 arithmetic
	case wasm.OpI32Clz:
		rt.push(I32(int32(clz32(rt.pop().U32()))))
	case wasm.OpI32Ctz:
		rt.push(I32(int32(ctz32(rt.pop().U32()))))
	case wasm.OpI32Popcnt:
		rt.push(I32(int32(popcnt32(rt.pop().U32()))))
	case wasm.OpI32Add:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(a + b))
	case wasm.OpI32Sub:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(a - b))
	case wasm.OpI32Mul:
		b, a := rt.pop().I32(), rt.pop().I32()
		rt.push(I32(a * b))
	case wasm.OpI32DivS:
		b, a := rt.pop().I32(), rt.pop().I32()
		r, err := i32DivS(a, b)
		if err != nil {
			return err
		}
		rt.push(I32(r))
	case wasm.OpI32DivU:
		b, a := rt.pop().U32(), rt.pop().U32()
		r, err := i32DivU(a, b)
		if err != nil {
			return err
		}
		rt.push(I32(int32(r)))
	case wasm.OpI32RemS:
		b, a := rt.pop().I32(), rt.pop().I32()
		r, err := i32RemS(a, b)
		if err != nil {
			return err
		}
		rt.push(I32(r))
	case wasm.OpI32RemU:
		b, a := rt.pop().U32(), rt.pop().U32()
		r, err := i32RemU(a, b)
		if err != nil {
			return err
		}
		rt.push(I32(int32(r)))
	case wasm.OpI32And:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(a & b)))
	case wasm.OpI32Or:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(a | b)))
	case wasm.OpI32Xor:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(a ^ b)))
	case wasm.OpI32Shl:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(a << (b & 31))))
	case wasm.OpI32ShrS:
		b, a := rt.pop().U32(), rt.pop().I32()
		rt.push(I32(a >> (b & 31)))
	case wasm.OpI32ShrU:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(a >> (b & 31))))
	case wasm.OpI32Rotl:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(rotl32(a, b))))
	case wasm.OpI32Rotr:
		b, a := rt.pop().U32(), rt.pop().U32()
		rt.push(I32(int32(rotr32(a, b))))

	// i64 arithmetic
	case wasm.OpI64Clz:
		rt.push(I64(int64(clz64(rt.pop().U64()))))
	case wasm.OpI64Ctz:
		rt.push(I64(int64(ctz64(rt.pop().U64()))))
	case wasm.OpI64Popcnt:
		rt.push(I64(int64(popcnt64(rt.pop().U64()))))
	case wasm.OpI64Add:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I64(a + b))
	case wasm.OpI64Sub:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I64(a - b))
	case wasm.OpI64Mul:
		b, a := rt.pop().I64(), rt.pop().I64()
		rt.push(I64(a * b))
	case wasm.OpI64DivS:
		b, a := rt.pop().I64(), rt.pop().I64()
		r, err := i64DivS(a, b)
		if err != nil {
			return err
		}
		rt.push(I64(r))
	case wasm.OpI64DivU:
		b, a := rt.pop().U64(), rt.pop().U64()
		r, err := i64DivU(a, b)
		if err != nil {
			return err
		}
		rt.push(I64(int64(r)))
	case wasm.OpI64RemS:
		b, a := rt.pop().I64(), rt.pop().I64()
		r, err := i64RemS(a, b)
		if err != nil {
			return err
		}
		rt.push(I64(r))
	case wasm.OpI64RemU:
		b, a := rt.pop().U64(), rt.pop().U64()
		r, err := i64RemU(a, b)
		if err != nil {
			return err
		}
		rt.push(I64(int64(r)))
	case wasm.OpI64And:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(a & b)))
	case wasm.OpI64Or:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(a | b)))
	case wasm.OpI64Xor:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(a ^ b)))
	case wasm.OpI64Shl:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(a << (b & 63))))
	case wasm.OpI64ShrS:
		b, a := rt.pop().U64(), rt.pop().I64()
		rt.push(I64(a >> (b & 63)))
	case wasm.OpI64ShrU:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(a >> (b & 63))))
	case wasm.OpI64Rotl:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(rotl64(a, b))))
	case wasm.OpI64Rotr:
		b, a := rt.pop().U64(), rt.pop().U64()
		rt.push(I64(int64(rotr64(a, b))))

	// f32 unary/binary
	case wasm.OpF32Abs:
		rt.push(F32(f32Abs(rt.pop().F32())))
	case wasm.OpF32Neg:
		rt.push(F32(-rt.pop().F32()))
	case wasm.OpF32Ceil:
		rt.push(F32(f32Ceil(rt.pop().F32())))
	case wasm.OpF32Floor:
		rt.push(F32(f32Floor(rt.pop().F32())))
	case wasm.OpF32Trunc:
		rt.push(F32(f32Trunc(rt.pop().F32())))
	case wasm.OpF32Nearest:
		rt.push(F32(f32Nearest(rt.pop().F32())))
	case wasm.OpF32Sqrt:
		rt.push(F32(f32Sqrt(rt.pop().F32())))
	case wasm.OpF32Add:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(a + b))
	case wasm.OpF32Sub:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(a - b))
	case wasm.OpF32Mul:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(a * b))
	case wasm.OpF32Div:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(a / b))
	case wasm.OpF32Min:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(f32Min(a, b)))
	case wasm.OpF32Max:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(f32Max(a, b)))
	case wasm.OpF32Copysign:
		b, a := rt.pop().F32(), rt.pop().F32()
		rt.push(F32(f32Copysign(a, b)))

	// f64 unary/binary
	case wasm.OpF64Abs:
		rt.push(F64(math.Abs(rt.pop().F64())))
	case wasm.OpF64Neg:
		rt.push(F64(-rt.pop().F64()))
	case wasm.OpF64Ceil:
		rt.push(F64(math.Ceil(rt.pop().F64())))
	case wasm.OpF64Floor:
		rt.push(F64(math.Floor(rt.pop().F64())))
	case wasm.OpF64Trunc:
		rt.push(F64(math.Trunc(rt.pop().F64())))
	case wasm.OpF64Nearest:
		rt.push(F64(f64Nearest(rt.pop().F64())))
	case wasm.OpF64Sqrt:
		rt.push(F64(math.Sqrt(rt.pop().F64())))
	case wasm.OpF64Add:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(a + b))
	case wasm.OpF64Sub:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(a - b))
	case wasm.OpF64Mul:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(a * b))
	case wasm.OpF64Div:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(a / b))
	case wasm.OpF64Min:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(f64Min(a, b)))
	case wasm.OpF64Max:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(f64Max(a, b)))
	case wasm.OpF64Copysign:
		b, a := rt.pop().F64(), rt.pop().F64()
		rt.push(F64(f64Copysign(a, b)))

	// conversions and reinterprets
	case wasm.OpI32WrapI64:
		rt.push(I32(int32(uint32(rt.pop().U64()))))
	case wasm.OpI32TruncF32S:
		return rt.trunc(number.F32, number.I32, true)
	case wasm.OpI32TruncF32U:
		return rt.trunc(number.F32, number.U32, false)
	case wasm.OpI32TruncF64S:
		return rt.trunc(number.F64, number.I32, true)
	case wasm.OpI32TruncF64U:
		return rt.trunc(number.F64, number.U32, false)
	case wasm.OpI64ExtendI32S:
		rt.push(I64(int64(rt.pop().I32())))
	case wasm.OpI64ExtendI32U:
		rt.push(I64(int64(rt.pop().U32())))
	case wasm.OpI64TruncF32S:
		return rt.trunc(number.F32, number.I64, true)
	case wasm.OpI64TruncF32U:
		return rt.trunc(number.F32, number.U64, false)
	case wasm.OpI64TruncF64S:
		return rt.trunc(number.F64, number.I64, true)
	case wasm.OpI64TruncF64U:
		return rt.trunc(number.F64, number.U64, false)
	case wasm.OpF32ConvertI32S:
		rt.push(F32(float32(rt.pop().I32())))
	case wasm.OpF32ConvertI32U:
		rt.push(F32(float32(rt.pop().U32())))
	case wasm.OpF32ConvertI64S:
		rt.push(F32(float32(rt.pop().I64())))
	case wasm.OpF32ConvertI64U:
		rt.push(F32(float32(rt.pop().U64())))
	case wasm.OpF32DemoteF64:
		rt.push(F32(float32(rt.pop().F64())))
	case wasm.OpF64ConvertI32S:
		rt.push(F64(float64(rt.pop().I32())))
	case wasm.OpF64ConvertI32U:
		rt.push(F64(float64(rt.pop().U32())))
	case wasm.OpF64ConvertI64S:
		rt.push(F64(float64(rt.pop().I64())))
	case wasm.OpF64ConvertI64U:
		rt.push(F64(float64(rt.pop().U64())))
	case wasm.OpF64PromoteF32:
		rt.push(F64(float64(rt.pop().F32())))
	case wasm.OpI32ReinterpretF32:
		rt.push(I32(int32(uint32(rt.pop().Bits))))
	case wasm.OpI64ReinterpretF64:
		rt.push(I64(int64(rt.pop().Bits)))
	case wasm.OpF32ReinterpretI32:
		rt.push(Value{Kind: KindF32, Bits: uint64(rt.pop().U32())})
	case wasm.OpF64ReinterpretI64:
		rt.push(Value{Kind: KindF64, Bits: rt.pop().U64()})
	}
	return nil
}

// trunc pops a float operand and pushes the trapping-conversion result
// (NaN or out-of-range both trap, per the plain trunc opcodes).
func (rt *Runtime) trunc(from, to number.Type, toSigned bool) error {
	v := rt.pop().Bits
	r, err := truncTrap(from, to, v)
	if err != nil {
		return err
	}
	if to == number.I64 || to == number.U64 {
		rt.push(I64(int64(r)))
	} else {
		rt.push(I32(int32(uint32(r))))
	}
	return nil
}
