package vm

import (
	"math"

	"github.com/vertexdlt/wasmcore/number"
	"github.com/vertexdlt/wasmcore/wasm"
)

const nullRef = math.MaxUint32

func (rt *Runtime) pop() Value {
	v := rt.stack[len(rt.stack)-1]
	rt.stack = rt.stack[:len(rt.stack)-1]
	return v
}

func (rt *Runtime) push(v Value) {
	rt.stack = append(rt.stack, v)
}

func (rt *Runtime) peek() Value {
	return rt.stack[len(rt.stack)-1]
}

// truncateForBranch keeps lbl.arity values at the top of the stack and
// discards everything pushed since the label was entered, in place.
func (rt *Runtime) truncateForBranch(lbl label) {
	top := append([]Value(nil), rt.stack[len(rt.stack)-lbl.arity:]...)
	newLen := lbl.height + lbl.arity
	copy(rt.stack[lbl.height:], top)
	rt.stack = rt.stack[:newLen]
}

// doBranch resolves a br/br_if/br_table target: idx counts outward from the
// innermost enclosing label (0 = innermost).
func (rt *Runtime) doBranch(idx uint32, labels []label) (signal, error) {
	if int(idx) >= len(labels) {
		return signal{}, ErrInvalidBranchTarget
	}
	target := labels[len(labels)-1-int(idx)]
	rt.truncateForBranch(target)
	return signal{kind: sigBranch, depth: idx}, nil
}

func (rt *Runtime) execInstrs(fr *Frame, instrs []wasm.Instr, labels []label) (signal, error) {
	for _, ins := range instrs {
		if err := rt.gas.charge(rt.gasPolicy.GetCostForOp(ins.Op)); err != nil {
			return signal{}, err
		}
		sig, err := rt.execOne(fr, ins, labels)
		if err != nil {
			return signal{}, err
		}
		if sig.kind != sigNone {
			return sig, nil
		}
	}
	return signal{kind: sigNone}, nil
}

func (rt *Runtime) execBlock(fr *Frame, ins wasm.Instr, labels []label, isLoop bool) (signal, error) {
	params := ins.BlockType.Params(rt.module.Types)
	results := ins.BlockType.Results(rt.module.Types)
	height := len(rt.stack) - len(params)
	arity := len(results)
	if isLoop {
		arity = len(params)
	}
	lbl := label{height: height, arity: arity, isLoop: isLoop}

	for {
		sig, err := rt.execInstrs(fr, ins.Then, append(labels, lbl))
		if err != nil {
			return signal{}, err
		}
		switch {
		case sig.kind == sigBranch && sig.depth == 0:
			if isLoop {
				continue // branch to loop header: re-execute from the top
			}
			return signal{kind: sigNone}, nil // consumed, falls through to block end
		case sig.kind == sigBranch:
			return signal{kind: sigBranch, depth: sig.depth - 1}, nil
		default:
			return sig, nil // sigReturn or sigNone propagate untouched
		}
	}
}

func (rt *Runtime) execIf(fr *Frame, ins wasm.Instr, labels []label) (signal, error) {
	cond := rt.pop()
	params := ins.BlockType.Params(rt.module.Types)
	results := ins.BlockType.Results(rt.module.Types)
	height := len(rt.stack) - len(params)
	lbl := label{height: height, arity: len(results), isLoop: false}

	body := ins.Else
	if cond.I32() != 0 {
		body = ins.Then
	}
	sig, err := rt.execInstrs(fr, body, append(labels, lbl))
	if err != nil {
		return signal{}, err
	}
	switch {
	case sig.kind == sigBranch && sig.depth == 0:
		return signal{kind: sigNone}, nil
	case sig.kind == sigBranch:
		return signal{kind: sigBranch, depth: sig.depth - 1}, nil
	default:
		return sig, nil
	}
}

func (rt *Runtime) execOne(fr *Frame, ins wasm.Instr, labels []label) (signal, error) {
	switch ins.Op {
	case wasm.OpUnreachable:
		return signal{}, ErrUnreachableExecuted
	case wasm.OpNop:
		return signal{}, nil
	case wasm.OpBlock:
		return rt.execBlock(fr, ins, labels, false)
	case wasm.OpLoop:
		return rt.execBlock(fr, ins, labels, true)
	case wasm.OpIf:
		return rt.execIf(fr, ins, labels)
	case wasm.OpBr:
		return rt.doBranch(ins.LabelIdx, labels)
	case wasm.OpBrIf:
		cond := rt.pop()
		if cond.I32() != 0 {
			return rt.doBranch(ins.LabelIdx, labels)
		}
		return signal{}, nil
	case wasm.OpBrTable:
		idx := rt.pop().U32()
		target := ins.LabelIdx
		if int(idx) < len(ins.Labels) {
			target = ins.Labels[idx]
		}
		return rt.doBranch(target, labels)
	case wasm.OpReturn:
		rt.truncateForBranch(labels[0])
		return signal{kind: sigReturn}, nil
	case wasm.OpCall:
		return signal{}, rt.execCall(ins.Idx)
	case wasm.OpCallIndirect:
		return signal{}, rt.execCallIndirect(ins)
	case wasm.OpDrop:
		rt.pop()
		return signal{}, nil
	case wasm.OpSelect:
		c := rt.pop()
		b := rt.pop()
		a := rt.pop()
		if c.I32() != 0 {
			rt.push(a)
		} else {
			rt.push(b)
		}
		return signal{}, nil

	case wasm.OpLocalGet:
		rt.push(fr.Locals[ins.Idx])
		return signal{}, nil
	case wasm.OpLocalSet:
		fr.Locals[ins.Idx] = rt.pop()
		return signal{}, nil
	case wasm.OpLocalTee:
		fr.Locals[ins.Idx] = rt.peek()
		return signal{}, nil
	case wasm.OpGlobalGet:
		rt.push(rt.globals[ins.Idx])
		return signal{}, nil
	case wasm.OpGlobalSet:
		rt.globals[ins.Idx] = rt.pop()
		return signal{}, nil
	case wasm.OpTableSet:
		v := rt.pop()
		idx := rt.pop().U32()
		if len(rt.tables) == 0 || int(idx) >= len(rt.tables[0].elems) {
			return signal{}, ErrUndefinedElementAt(idx)
		}
		rt.tables[0].elems[idx] = v
		return signal{}, nil

	case wasm.OpI32Const:
		rt.push(I32(ins.I32Val))
		return signal{}, nil
	case wasm.OpI64Const:
		rt.push(I64(ins.I64Val))
		return signal{}, nil
	case wasm.OpF32Const:
		rt.push(Value{Kind: KindF32, Bits: uint64(ins.F32Val)})
		return signal{}, nil
	case wasm.OpF64Const:
		rt.push(Value{Kind: KindF64, Bits: ins.F64Val})
		return signal{}, nil

	case wasm.OpRefNull:
		rt.push(zeroValue(wasm.ValType(ins.I32Val)))
		return signal{}, nil
	case wasm.OpRefFunc:
		rt.push(FuncRef(ins.Idx))
		return signal{}, nil

	case wasm.OpMemorySize:
		if rt.mem == nil {
			return signal{}, ErrOutOfBoundsAt(0, 0)
		}
		rt.push(I32(int32(rt.mem.Size())))
		return signal{}, nil
	case wasm.OpMemoryGrow:
		if rt.mem == nil {
			return signal{}, ErrOutOfBoundsAt(0, 0)
		}
		delta := rt.pop().U32()
		prev := rt.mem.Grow(delta)
		if prev >= 0 {
			if err := rt.gas.charge(rt.gasPolicy.GetCostForMalloc(int(delta))); err != nil {
				return signal{}, err
			}
		}
		rt.push(I32(prev))
		return signal{}, nil
	}

	if isMemOp(ins.Op) {
		return signal{}, rt.execMemOp(ins)
	}
	if isNumericOp(ins.Op) {
		return signal{}, rt.execNumeric(ins)
	}
	if isBulkMemOp(ins.Op) {
		return signal{}, rt.execBulkMem(ins)
	}

	// Unreachable: the decoder rejects any opcode not covered by one of the
	// branches above, so execOne should never see one.
	panic("vm: unhandled opcode reached the interpreter")
}

// execCall resolves and invokes function idx, pushing its results.
func (rt *Runtime) execCall(idx uint32) error {
	ft := rt.funcTypes[idx]
	args := rt.popArgs(len(ft.Params))
	results, err := rt.callFunc(idx, args)
	if err != nil {
		return err
	}
	for _, r := range results {
		rt.push(r)
	}
	return nil
}

func (rt *Runtime) execCallIndirect(ins wasm.Instr) error {
	tableIdx := ins.Idx2
	if int(tableIdx) >= len(rt.tables) {
		return ErrUndefinedElementAt(tableIdx)
	}
	elemIdx := rt.pop().U32()
	tbl := rt.tables[tableIdx]
	if int(elemIdx) >= len(tbl.elems) {
		return ErrUndefinedElementAt(elemIdx)
	}
	elem := tbl.elems[elemIdx]
	if elem.Kind != KindFuncRef || elem.U32() == nullRef {
		return ErrUninitializedElement
	}
	funcIdx := elem.U32()
	want := rt.module.Types[ins.Idx]
	got := rt.funcTypes[funcIdx]
	if !sameFuncType(want, got) {
		return ErrIndirectCallTypeMismatch
	}
	args := rt.popArgs(len(want.Params))
	results, err := rt.callFunc(funcIdx, args)
	if err != nil {
		return err
	}
	for _, r := range results {
		rt.push(r)
	}
	return nil
}

// popArgs pops n values off the stack and returns them in declaration
// order (args[0] is the first parameter), regardless of the fact they come
// off the top of the stack in reverse.
func (rt *Runtime) popArgs(n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = rt.pop()
	}
	return args
}

// callFunc invokes function idx (host or module-local) with args already in
// parameter order.
func (rt *Runtime) callFunc(idx uint32, args []Value) ([]Value, error) {
	rt.callDepth++
	defer func() { rt.callDepth-- }()
	if rt.callDepth > maxCallDepth {
		return nil, ErrCallStackExhausted
	}

	if int(idx) < rt.module.ImportFuncCount {
		fn := rt.hostFns[idx]
		if fn == nil {
			return nil, ErrUnknownHostFunction
		}
		return fn(rt, args)
	}

	bodyIdx := int(idx) - rt.module.ImportFuncCount
	code := rt.module.Codes[bodyIdx]
	ft := rt.module.Types[rt.module.FuncSec[bodyIdx]]

	locals := make([]Value, len(args))
	copy(locals, args)
	for _, le := range code.Func.Locals {
		zero := zeroValue(le.ValType)
		for i := uint32(0); i < le.Count; i++ {
			locals = append(locals, zero)
		}
	}

	fr := &Frame{Locals: locals, FuncIdx: idx, StackBase: len(rt.stack), NumResults: len(ft.Results)}
	rt.frames = append(rt.frames, fr)
	defer func() { rt.frames = rt.frames[:len(rt.frames)-1] }()

	top := label{height: fr.StackBase, arity: len(ft.Results), isLoop: false}
	_, err := rt.execInstrs(fr, code.Func.Body, []label{top})
	if err != nil {
		rt.stack = rt.stack[:fr.StackBase]
		return nil, err
	}
	rt.truncateForBranch(top)

	results := make([]Value, len(ft.Results))
	copy(results, rt.stack[fr.StackBase:])
	rt.stack = rt.stack[:fr.StackBase]
	return results, nil
}

// Call invokes function idx from outside any running frame (the public
// entry point used by Invoke and by conformance test drivers).
func (rt *Runtime) Call(idx uint32, args []Value) ([]Value, error) {
	return rt.callFunc(idx, args)
}

func isMemOp(op wasm.Opcode) bool {
	switch op {
	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U,
		wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		return true
	}
	return false
}

func (rt *Runtime) execMemOp(ins wasm.Instr) error {
	if rt.mem == nil {
		return ErrOutOfBoundsAt(0, 0)
	}
	addrOf := func() uint64 { return uint64(rt.pop().U32()) + uint64(ins.Mem.Offset) }

	switch ins.Op {
	case wasm.OpI32Load:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 4)
		if err != nil {
			return err
		}
		rt.push(I32(int32(uint32(v))))
	case wasm.OpI64Load:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 8)
		if err != nil {
			return err
		}
		rt.push(I64(int64(v)))
	case wasm.OpF32Load:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 4)
		if err != nil {
			return err
		}
		rt.push(Value{Kind: KindF32, Bits: v})
	case wasm.OpF64Load:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 8)
		if err != nil {
			return err
		}
		rt.push(Value{Kind: KindF64, Bits: v})
	case wasm.OpI32Load8S:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 1)
		if err != nil {
			return err
		}
		rt.push(I32(int32(int8(v))))
	case wasm.OpI32Load8U:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 1)
		if err != nil {
			return err
		}
		rt.push(I32(int32(uint8(v))))
	case wasm.OpI32Load16S:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 2)
		if err != nil {
			return err
		}
		rt.push(I32(int32(int16(v))))
	case wasm.OpI32Load16U:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 2)
		if err != nil {
			return err
		}
		rt.push(I32(int32(uint16(v))))
	case wasm.OpI64Load8S:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 1)
		if err != nil {
			return err
		}
		rt.push(I64(int64(int8(v))))
	case wasm.OpI64Load8U:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 1)
		if err != nil {
			return err
		}
		rt.push(I64(int64(uint8(v))))
	case wasm.OpI64Load16S:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 2)
		if err != nil {
			return err
		}
		rt.push(I64(int64(int16(v))))
	case wasm.OpI64Load16U:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 2)
		if err != nil {
			return err
		}
		rt.push(I64(int64(uint16(v))))
	case wasm.OpI64Load32S:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 4)
		if err != nil {
			return err
		}
		rt.push(I64(int64(int32(v))))
	case wasm.OpI64Load32U:
		addr := addrOf()
		v, err := rt.mem.Load(addr, 4)
		if err != nil {
			return err
		}
		rt.push(I64(int64(uint32(v))))

	case wasm.OpI32Store:
		v := rt.pop().U32()
		addr := addrOf()
		return rt.mem.Store(addr, 4, uint64(v))
	case wasm.OpI64Store:
		v := rt.pop().U64()
		addr := addrOf()
		return rt.mem.Store(addr, 8, v)
	case wasm.OpF32Store:
		v := rt.pop().Bits
		addr := addrOf()
		return rt.mem.Store(addr, 4, v)
	case wasm.OpF64Store:
		v := rt.pop().Bits
		addr := addrOf()
		return rt.mem.Store(addr, 8, v)
	case wasm.OpI32Store8:
		v := rt.pop().U32()
		addr := addrOf()
		return rt.mem.Store(addr, 1, uint64(v))
	case wasm.OpI32Store16:
		v := rt.pop().U32()
		addr := addrOf()
		return rt.mem.Store(addr, 2, uint64(v))
	case wasm.OpI64Store8:
		v := rt.pop().U64()
		addr := addrOf()
		return rt.mem.Store(addr, 1, v)
	case wasm.OpI64Store16:
		v := rt.pop().U64()
		addr := addrOf()
		return rt.mem.Store(addr, 2, v)
	case wasm.OpI64Store32:
		v := rt.pop().U64()
		addr := addrOf()
		return rt.mem.Store(addr, 4, v)
	}
	return nil
}

func isBulkMemOp(op wasm.Opcode) bool {
	switch op {
	case wasm.OpMemoryInit, wasm.OpDataDrop, wasm.OpMemoryCopy, wasm.OpMemoryFill,
		wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		return true
	}
	return false
}

func (rt *Runtime) execBulkMem(ins wasm.Instr) error {
	switch ins.Op {
	case wasm.OpMemoryInit:
		if rt.droppedData[ins.Idx] {
			return ErrDataDropped
		}
		n := rt.pop().U32()
		src := rt.pop().U32()
		dst := rt.pop().U32()
		seg := rt.module.Datas[ins.Idx].Init
		return rt.mem.Init(uint64(dst), seg, uint64(src), uint64(n))
	case wasm.OpDataDrop:
		rt.droppedData[ins.Idx] = true
		return nil
	case wasm.OpMemoryCopy:
		n := rt.pop().U32()
		src := rt.pop().U32()
		dst := rt.pop().U32()
		return rt.mem.Copy(uint64(dst), uint64(src), uint64(n))
	case wasm.OpMemoryFill:
		n := rt.pop().U32()
		val := byte(rt.pop().U32())
		dst := rt.pop().U32()
		return rt.mem.Fill(uint64(dst), val, uint64(n))
	case wasm.OpI32TruncSatF32S:
		v := rt.pop().Bits
		rt.push(I32(int32(uint32(truncSat(number.F32, number.I32, v)))))
	case wasm.OpI32TruncSatF32U:
		v := rt.pop().Bits
		rt.push(I32(int32(uint32(truncSat(number.F32, number.U32, v)))))
	case wasm.OpI32TruncSatF64S:
		v := rt.pop().Bits
		rt.push(I32(int32(uint32(truncSat(number.F64, number.I32, v)))))
	case wasm.OpI32TruncSatF64U:
		v := rt.pop().Bits
		rt.push(I32(int32(uint32(truncSat(number.F64, number.U32, v)))))
	case wasm.OpI64TruncSatF32S:
		v := rt.pop().Bits
		rt.push(I64(int64(truncSat(number.F32, number.I64, v))))
	case wasm.OpI64TruncSatF32U:
		v := rt.pop().Bits
		rt.push(I64(int64(truncSat(number.F32, number.U64, v))))
	case wasm.OpI64TruncSatF64S:
		v := rt.pop().Bits
		rt.push(I64(int64(truncSat(number.F64, number.I64, v))))
	case wasm.OpI64TruncSatF64U:
		v := rt.pop().Bits
		rt.push(I64(int64(truncSat(number.F64, number.U64, v))))
	}
	return nil
}
