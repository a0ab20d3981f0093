package vm

import (
	"fmt"

	"github.com/vertexdlt/wasmcore/wasm"
)

// HostFunc is a host-provided function bound to an import.
type HostFunc func(rt *Runtime, args []Value) ([]Value, error)

// Resolver binds (module, name) import pairs to host implementations.
// DefaultResolver implements the single console.log host function spec.md
// requires; callers needing more can supply their own.
type Resolver interface {
	Resolve(module, name string) (fn HostFunc, sig wasm.FuncType, ok bool)
}

// table is a single table instance; elements hold funcref Values (or the
// null funcref sentinel from zeroValue).
type table struct {
	elems []Value
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithResolver overrides the default console.log-only host resolver.
func WithResolver(r Resolver) Option {
	return func(rt *Runtime) { rt.resolver = r }
}

// WithGasPolicy enables metering with the given policy and limit (0 = unlimited).
func WithGasPolicy(p GasPolicy, limit uint64) Option {
	return func(rt *Runtime) {
		rt.gasPolicy = p
		rt.gas.Limit = limit
	}
}

// Runtime is an instantiated module: its memory, tables, globals, and the
// host bindings resolved for its imports.
type Runtime struct {
	module *wasm.Module

	stack  []Value
	frames []*Frame

	mem    *Memory
	tables []*table
	globals []Value

	hostFns     []HostFunc // indexed by function index; covers only the ImportFuncCount imported functions
	funcTypes   []wasm.FuncType // every function index's signature, imports then bodies
	droppedData map[uint32]bool

	resolver  Resolver
	gasPolicy GasPolicy
	gas       Gas

	callDepth int
}

// maxCallDepth bounds recursion so a misbehaving or adversarial module
// cannot exhaust the Go goroutine stack; it traps with ErrCallStackExhausted
// instead of crashing the process.
const maxCallDepth = 1 << 14

// NewRuntime decodes host bindings for imports and instantiates m: it
// evaluates global initializers, allocates memory and tables, and applies
// active element and data segments.
func NewRuntime(m *wasm.Module, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		module:      m,
		droppedData: map[uint32]bool{},
		gasPolicy:   &FreeGasPolicy{},
		resolver:    DefaultResolver{},
	}
	for _, opt := range opts {
		opt(rt)
	}

	if err := rt.resolveImports(); err != nil {
		return nil, err
	}
	rt.buildFuncTypes()
	if err := rt.initMemory(); err != nil {
		return nil, err
	}
	if err := rt.initTables(); err != nil {
		return nil, err
	}
	if err := rt.initGlobals(); err != nil {
		return nil, err
	}
	if err := rt.applyElements(); err != nil {
		return nil, err
	}
	if err := rt.applyData(); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) resolveImports() error {
	rt.hostFns = make([]HostFunc, rt.module.ImportFuncCount)
	funcIdx := 0
	for _, imp := range rt.module.Imports {
		switch imp.Desc.Kind {
		case wasm.ExternFunc:
			fn, sig, ok := rt.resolver.Resolve(imp.Module, imp.Name)
			if !ok {
				return ErrUnknownHostFunctionAt(imp.Module, imp.Name)
			}
			want := rt.module.Types[imp.Desc.TypeIdx]
			if !sameFuncType(want, sig) {
				return fmt.Errorf("vm: import %s.%s: signature mismatch", imp.Module, imp.Name)
			}
			rt.hostFns[funcIdx] = fn
			funcIdx++
		case wasm.ExternGlobal, wasm.ExternTable, wasm.ExternMemory:
			// Non-function imports have no host binding surface in this
			// runtime; they're accepted so modules that only declare them
			// (without relying on external state) still instantiate.
			// Imported globals get zero-valued slots (see initGlobals);
			// imported tables and memories get no instance.
		}
	}
	return nil
}

// buildFuncTypes flattens the signature of every function index (imports
// first, then module-local bodies) so call_indirect can check a callee's
// type without re-deriving which space an index falls into each time.
func (rt *Runtime) buildFuncTypes() {
	rt.funcTypes = make([]wasm.FuncType, 0, rt.module.ImportFuncCount+len(rt.module.FuncSec))
	for _, imp := range rt.module.Imports {
		if imp.Desc.Kind == wasm.ExternFunc {
			rt.funcTypes = append(rt.funcTypes, rt.module.Types[imp.Desc.TypeIdx])
		}
	}
	for _, typeIdx := range rt.module.FuncSec {
		rt.funcTypes = append(rt.funcTypes, rt.module.Types[typeIdx])
	}
}

func sameFuncType(a, b wasm.FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

func (rt *Runtime) initMemory() error {
	if len(rt.module.Mems) == 0 {
		return nil
	}
	if len(rt.module.Mems) > 1 {
		return fmt.Errorf("vm: multiple memories are not supported")
	}
	mt := rt.module.Mems[0]
	rt.mem = NewMemory(mt.Limits.Min, mt.Limits.Max, mt.Limits.HasMax)
	return nil
}

func (rt *Runtime) initTables() error {
	for _, tt := range rt.module.Tables {
		elems := make([]Value, tt.Limits.Min)
		for i := range elems {
			elems[i] = zeroValue(wasm.ValFuncRef)
		}
		rt.tables = append(rt.tables, &table{elems: elems})
	}
	return nil
}

func (rt *Runtime) initGlobals() error {
	// Imported globals come first in the global index space; with no host
	// binding they start zero-valued.
	rt.globals = make([]Value, 0, len(rt.module.Globals))
	for _, imp := range rt.module.Imports {
		if imp.Desc.Kind == wasm.ExternGlobal {
			rt.globals = append(rt.globals, zeroValue(imp.Desc.GlobalType.ValType))
		}
	}
	for _, g := range rt.module.Globals {
		v, err := rt.evalConstExpr(g.Init)
		if err != nil {
			return err
		}
		rt.globals = append(rt.globals, v)
	}
	return nil
}

func (rt *Runtime) applyElements() error {
	for _, el := range rt.module.Elements {
		if int(el.TableIdx) >= len(rt.tables) {
			return ErrUndefinedElementAt(el.TableIdx)
		}
		off, err := rt.evalConstExpr(el.Offset)
		if err != nil {
			return err
		}
		base := int(off.I32())
		tbl := rt.tables[el.TableIdx]
		for i, fn := range el.FuncIdxs {
			idx := base + i
			if idx < 0 || idx >= len(tbl.elems) {
				return ErrUndefinedElementAt(uint32(idx))
			}
			tbl.elems[idx] = FuncRef(fn)
		}
	}
	return nil
}

func (rt *Runtime) applyData() error {
	if len(rt.module.Datas) > 0 && rt.mem == nil {
		return fmt.Errorf("vm: data segment present but no memory declared")
	}
	for _, d := range rt.module.Datas {
		off, err := rt.evalConstExpr(d.Offset)
		if err != nil {
			return err
		}
		if err := rt.mem.Init(uint64(uint32(off.I32())), d.Init, 0, uint64(len(d.Init))); err != nil {
			return err
		}
	}
	return nil
}

// evalConstExpr evaluates a constant initializer expression: a single
// instruction drawn from {i32.const, i64.const, f32.const, f64.const,
// global.get (of an imported global), ref.null, ref.func}.
func (rt *Runtime) evalConstExpr(instrs []wasm.Instr) (Value, error) {
	if len(instrs) != 1 {
		return Value{}, fmt.Errorf("vm: unsupported constant expression (%d instructions)", len(instrs))
	}
	ins := instrs[0]
	switch ins.Op {
	case wasm.OpI32Const:
		return I32(ins.I32Val), nil
	case wasm.OpI64Const:
		return I64(ins.I64Val), nil
	case wasm.OpF32Const:
		return Value{Kind: KindF32, Bits: uint64(ins.F32Val)}, nil
	case wasm.OpF64Const:
		return Value{Kind: KindF64, Bits: ins.F64Val}, nil
	case wasm.OpGlobalGet:
		if int(ins.Idx) >= len(rt.globals) {
			return Value{}, fmt.Errorf("vm: global.get %d out of range in const expr", ins.Idx)
		}
		return rt.globals[ins.Idx], nil
	case wasm.OpRefNull:
		return zeroValue(wasm.ValType(ins.I32Val)), nil
	case wasm.OpRefFunc:
		return FuncRef(ins.Idx), nil
	}
	return Value{}, fmt.Errorf("vm: opcode %v not valid in constant expression", ins.Op)
}

// Export looks up one export by name.
func (rt *Runtime) Export(name string) (wasm.Export, error) {
	exp, ok := rt.module.ExportMap[name]
	if !ok {
		return wasm.Export{}, fmt.Errorf("%w: %s", ErrMissingExport, name)
	}
	return exp, nil
}

// Invoke calls an exported function by name with args, returning its
// results.
func (rt *Runtime) Invoke(name string, args ...Value) ([]Value, error) {
	exp, err := rt.Export(name)
	if err != nil {
		return nil, err
	}
	if exp.Desc.Kind != wasm.ExternFunc {
		return nil, fmt.Errorf("%w: %s", ErrExportKindMismatch, name)
	}
	return rt.Call(exp.Desc.Idx, args)
}

// Memory exposes the instance's single linear memory (nil if the module
// declares none).
func (rt *Runtime) Memory() *Memory { return rt.mem }

// Global reads the current value of global index idx.
func (rt *Runtime) Global(idx uint32) (Value, error) {
	if int(idx) >= len(rt.globals) {
		return Value{}, fmt.Errorf("vm: global index %d out of range", idx)
	}
	return rt.globals[idx], nil
}
