package wasm

import (
	"github.com/vertexdlt/wasmcore/leb128"
)

// Instr is one decoded instruction. Only the fields relevant to Op are
// populated; this flat shape is the decoding convenience spec.md's design
// notes call out ("sum-of-all-opcodes... a decoding convenience, not a
// runtime shape") — Go has no tagged-union type, so a single struct tagged
// by Op is the idiomatic stand-in for spec.md's sum type.
type Instr struct {
	Op Opcode

	I32Val int32
	I64Val int64
	F32Val uint32 // raw bits
	F64Val uint64 // raw bits

	Idx      uint32 // local/global/func/table/type/data index, depending on Op
	Idx2     uint32 // second index: call_indirect's table index
	LabelIdx uint32 // br/br_if target, or br_table default
	Labels   []uint32 // br_table vector

	Mem MemArg

	BlockType BlockType
	Then      []Instr
	Else      []Instr
}

// decodeInstrList decodes instructions until it hits END (0x0B), returning
// the body and whether an ELSE arm follows (only meaningful for `if`).
func decodeInstrList(c *Cursor, stack *DebugStack) ([]Instr, bool, error) {
	var out []Instr
	for {
		b, err := c.PeekByte()
		if err != nil {
			return nil, false, err
		}
		if b == byte(OpEnd) {
			c.ReadByte()
			return out, false, nil
		}
		if b == byte(OpElse) {
			c.ReadByte()
			return out, true, nil
		}
		ins, err := decodeInstr(c, stack)
		if err != nil {
			return nil, false, err
		}
		out = append(out, ins)
	}
}

func decodeInstr(c *Cursor, stack *DebugStack) (Instr, error) {
	stack.Push("Instr")
	ins, err := decodeInstrInner(c, stack)
	if err != nil {
		return Instr{}, err
	}
	stack.Pop()
	return ins, nil
}

func decodeInstrInner(c *Cursor, stack *DebugStack) (Instr, error) {
	op, err := c.ReadByte()
	if err != nil {
		return Instr{}, err
	}

	switch Opcode(op) {
	case OpUnreachable, OpNop, OpReturn, OpDrop, OpSelect,
		OpI32Eqz, OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU,
		OpI64Eqz, OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU,
		OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge,
		OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge,
		OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr,
		OpI64Clz, OpI64Ctz, OpI64Popcnt, OpI64Add, OpI64Sub, OpI64Mul, OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU,
		OpI64And, OpI64Or, OpI64Xor, OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr,
		OpF32Abs, OpF32Neg, OpF32Ceil, OpF32Floor, OpF32Trunc, OpF32Nearest, OpF32Sqrt,
		OpF32Add, OpF32Sub, OpF32Mul, OpF32Div, OpF32Min, OpF32Max, OpF32Copysign,
		OpF64Abs, OpF64Neg, OpF64Ceil, OpF64Floor, OpF64Trunc, OpF64Nearest, OpF64Sqrt,
		OpF64Add, OpF64Sub, OpF64Mul, OpF64Div, OpF64Min, OpF64Max, OpF64Copysign,
		OpI32WrapI64, OpI32TruncF32S, OpI32TruncF32U, OpI32TruncF64S, OpI32TruncF64U,
		OpI64ExtendI32S, OpI64ExtendI32U, OpI64TruncF32S, OpI64TruncF32U, OpI64TruncF64S, OpI64TruncF64U,
		OpF32ConvertI32S, OpF32ConvertI32U, OpF32ConvertI64S, OpF32ConvertI64U, OpF32DemoteF64,
		OpF64ConvertI32S, OpF64ConvertI32U, OpF64ConvertI64S, OpF64ConvertI64U, OpF64PromoteF32,
		OpI32ReinterpretF32, OpI64ReinterpretF64, OpF32ReinterpretI32, OpF64ReinterpretI64:
		return Instr{Op: Opcode(op)}, nil

	case OpBlock, OpLoop, OpIf:
		bt, err := decodeBlockType(c)
		if err != nil {
			return Instr{}, err
		}
		then, hasElse, err := decodeInstrList(c, stack)
		if err != nil {
			return Instr{}, err
		}
		ins := Instr{Op: Opcode(op), BlockType: bt, Then: then}
		if Opcode(op) == OpIf && hasElse {
			elseBody, _, err := decodeInstrList(c, stack)
			if err != nil {
				return Instr{}, err
			}
			ins.Else = elseBody
		}
		return ins, nil

	case OpBr, OpBrIf:
		idx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), LabelIdx: idx}, nil

	case OpBrTable:
		n, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		labels := make([]uint32, n)
		for i := range labels {
			labels[i], err = leb128.ReadUint32(c)
			if err != nil {
				return Instr{}, err
			}
		}
		def, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Labels: labels, LabelIdx: def}, nil

	case OpCall:
		idx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Idx: idx}, nil

	case OpCallIndirect:
		typeIdx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		tableIdx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Idx: typeIdx, Idx2: tableIdx}, nil

	case OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet, OpTableSet:
		idx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Idx: idx}, nil

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		mem, err := decodeMemArg(c, naturalWidthFor(Opcode(op)))
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Mem: mem}, nil

	case OpMemorySize, OpMemoryGrow:
		b, err := c.ReadByte()
		if err != nil {
			return Instr{}, err
		}
		if b != 0x00 {
			return Instr{}, ErrUnknown0x40(b)
		}
		return Instr{Op: Opcode(op)}, nil

	case OpI32Const:
		v, err := leb128.ReadInt32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), I32Val: v}, nil

	case OpI64Const:
		v, err := leb128.ReadInt64(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), I64Val: v}, nil

	case OpF32Const:
		v, err := c.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), F32Val: v}, nil

	case OpF64Const:
		v, err := c.ReadU64()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), F64Val: v}, nil

	case OpRefNull:
		vt, err := decodeValType(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), I32Val: int32(vt)}, nil

	case OpRefFunc:
		idx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), Idx: idx}, nil

	case 0xFC:
		return decodeFCInstr(c)

	default:
		return Instr{}, ErrUnknownOpcode(op)
	}
}

// naturalWidthFor returns the maximum allowed alignment (in bytes) for a
// memory access opcode, per the §6 opcode table.
func naturalWidthFor(op Opcode) uint32 {
	switch op {
	case OpI32Load8S, OpI32Load8U, OpI32Store8, OpI64Load8S, OpI64Load8U, OpI64Store8:
		return 1
	case OpI32Load16S, OpI32Load16U, OpI32Store16, OpI64Load16S, OpI64Load16U, OpI64Store16:
		return 2
	case OpI32Load, OpI32Store, OpF32Load, OpF32Store, OpI64Load32S, OpI64Load32U, OpI64Store32:
		return 4
	case OpI64Load, OpI64Store, OpF64Load, OpF64Store:
		return 8
	}
	panic("wasm: naturalWidthFor: not a memory opcode")
}

func decodeFCInstr(c *Cursor) (Instr, error) {
	sub, err := leb128.ReadUint32(c)
	if err != nil {
		return Instr{}, err
	}
	if sub > 11 {
		return Instr{}, ErrUnknownOpcodeFC(sub)
	}
	op := opFCBase + Opcode(sub)
	switch op {
	case OpI32TruncSatF32S, OpI32TruncSatF32U, OpI32TruncSatF64S, OpI32TruncSatF64U,
		OpI64TruncSatF32S, OpI64TruncSatF32U, OpI64TruncSatF64S, OpI64TruncSatF64U:
		return Instr{Op: op}, nil
	case OpMemoryInit:
		dataIdx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		// reserved memory index byte
		b, err := c.ReadByte()
		if err != nil {
			return Instr{}, err
		}
		if b != 0x00 {
			return Instr{}, ErrUnknown0x40(b)
		}
		return Instr{Op: op, Idx: dataIdx}, nil
	case OpDataDrop:
		dataIdx, err := leb128.ReadUint32(c)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, Idx: dataIdx}, nil
	case OpMemoryCopy:
		dst, err := c.ReadByte()
		if err != nil {
			return Instr{}, err
		}
		src, err := c.ReadByte()
		if err != nil {
			return Instr{}, err
		}
		if dst != 0x00 || src != 0x00 {
			return Instr{}, ErrUnknown0x40(dst)
		}
		return Instr{Op: op}, nil
	case OpMemoryFill:
		b, err := c.ReadByte()
		if err != nil {
			return Instr{}, err
		}
		if b != 0x00 {
			return Instr{}, ErrUnknown0x40(b)
		}
		return Instr{Op: op}, nil
	}
	return Instr{}, ErrUnknownOpcodeFC(sub)
}
