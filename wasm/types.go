// Package wasm implements the MVP-1.0 Wasm binary decoder: LEB128 and
// fixed-width primitives, value/block/function types, the instruction tree,
// the twelve standard sections, and the module aggregator. It never touches
// runtime state — decoding produces an immutable Module consumed by vm.Runtime.
package wasm

import (
	"fmt"

	"github.com/vertexdlt/wasmcore/leb128"
)

// ValType is a Wasm value type, tagged by its encoded byte.
type ValType byte

const (
	ValI32      ValType = 0x7F
	ValI64      ValType = 0x7E
	ValF32      ValType = 0x7D
	ValF64      ValType = 0x7C
	ValFuncRef  ValType = 0x70
	ValExternRef ValType = 0x6F
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValFuncRef:
		return "funcref"
	case ValExternRef:
		return "externref"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

// IsNumeric reports whether v is one of i32/i64/f32/f64.
func (v ValType) IsNumeric() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

func decodeValType(c *Cursor) (ValType, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64, ValFuncRef, ValExternRef:
		return ValType(b), nil
	}
	return 0, ErrInvalidByte("value type", b)
}

// ResultType is a vector of value types: a function's params or results, or
// a block's input/output arity.
type ResultType []ValType

func decodeResultType(c *Cursor) (ResultType, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make(ResultType, n)
	for i := range out {
		out[i], err = decodeValType(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FuncType is a function signature: 0x60 prefix, then params, then results.
type FuncType struct {
	Params  ResultType
	Results ResultType
}

const funcTypeForm byte = 0x60

func decodeFuncType(c *Cursor) (FuncType, error) {
	b, err := c.ReadByte()
	if err != nil {
		return FuncType{}, err
	}
	if b != funcTypeForm {
		return FuncType{}, ErrInvalidByte("functype form", b)
	}
	params, err := decodeResultType(c)
	if err != nil {
		return FuncType{}, err
	}
	results, err := decodeResultType(c)
	if err != nil {
		return FuncType{}, err
	}
	return FuncType{Params: params, Results: results}, nil
}

// BlockType is the input/output arity of block/loop/if, encoded as either
// 0x40 (empty), a single value type byte, or a signed LEB128 type index.
type BlockType struct {
	Empty   bool
	Single  ValType
	HasType bool
	TypeIdx uint32
}

const blockTypeEmpty byte = 0x40

func decodeBlockType(c *Cursor) (BlockType, error) {
	b, err := c.PeekByte()
	if err != nil {
		return BlockType{}, err
	}
	if b == blockTypeEmpty {
		c.ReadByte()
		return BlockType{Empty: true}, nil
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64, ValFuncRef, ValExternRef:
		c.ReadByte()
		return BlockType{Single: ValType(b)}, nil
	}
	idx, err := leb128.ReadVarS33(c)
	if err != nil {
		return BlockType{}, err
	}
	if idx < 0 {
		return BlockType{}, fmt.Errorf("wasm: invalid block type index %d", idx)
	}
	return BlockType{HasType: true, TypeIdx: uint32(idx)}, nil
}

// Params resolves the block's parameter types, given the enclosing module's
// type section (needed only when HasType is set).
func (bt BlockType) Params(types []FuncType) ResultType {
	if bt.HasType {
		return types[bt.TypeIdx].Params
	}
	return nil
}

// Results resolves the block's result types.
func (bt BlockType) Results(types []FuncType) ResultType {
	switch {
	case bt.HasType:
		return types[bt.TypeIdx].Results
	case bt.Empty:
		return nil
	default:
		return ResultType{bt.Single}
	}
}

// Limits is the {min, max} pair of a table or memory type.
type Limits struct {
	Min uint32
	Max uint32
	HasMax bool
}

func decodeLimits(c *Cursor) (Limits, error) {
	flag, err := c.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	var l Limits
	switch flag {
	case 0x00:
		l.Min, err = leb128.ReadUint32(c)
	case 0x01:
		l.Min, err = leb128.ReadUint32(c)
		if err == nil {
			l.Max, err = leb128.ReadUint32(c)
			l.HasMax = true
		}
	default:
		return Limits{}, ErrInvalidByte("limits flag", flag)
	}
	return l, err
}

// ElemType is restricted to funcref in the MVP.
const elemTypeFuncRef byte = 0x70

// TableType describes a table's element type and size limits.
type TableType struct {
	ElemType ValType
	Limits   Limits
}

func decodeTableType(c *Cursor) (TableType, error) {
	b, err := c.ReadByte()
	if err != nil {
		return TableType{}, err
	}
	if b != elemTypeFuncRef {
		return TableType{}, ErrInvalidByte("table element type", b)
	}
	l, err := decodeLimits(c)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: ValFuncRef, Limits: l}, nil
}

// MemType describes a memory's page limits.
type MemType struct {
	Limits Limits
}

func decodeMemType(c *Cursor) (MemType, error) {
	l, err := decodeLimits(c)
	if err != nil {
		return MemType{}, err
	}
	return MemType{Limits: l}, nil
}

// Mutability of a global.
type Mut byte

const (
	MutConst Mut = 0x00
	MutVar   Mut = 0x01
)

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mut     Mut
}

func decodeGlobalType(c *Cursor) (GlobalType, error) {
	vt, err := decodeValType(c)
	if err != nil {
		return GlobalType{}, err
	}
	m, err := c.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if m != byte(MutConst) && m != byte(MutVar) {
		return GlobalType{}, ErrInvalidByte("mutability flag", m)
	}
	return GlobalType{ValType: vt, Mut: Mut(m)}, nil
}

// MemArg is the (align, offset) immediate of every memory access opcode.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// decodeMemArg reads a MemArg and rejects it when 2**align exceeds
// naturalWidth, the opcode's access width in bytes (1/2/4/8).
func decodeMemArg(c *Cursor, naturalWidth uint32) (MemArg, error) {
	align, err := leb128.ReadUint32(c)
	if err != nil {
		return MemArg{}, err
	}
	offset, err := leb128.ReadUint32(c)
	if err != nil {
		return MemArg{}, err
	}
	if (uint32(1) << align) > naturalWidth {
		return MemArg{}, fmt.Errorf("%w: align 2**%d exceeds natural width %d", ErrAlignment, align, naturalWidth)
	}
	return MemArg{Align: align, Offset: offset}, nil
}
