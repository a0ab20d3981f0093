package vm

import (
	"github.com/vertexdlt/wasmcore/wasm"
)

// DefaultResolver binds the one host function spec.md defines:
// console.log(start i32, end i32), which prints the UTF-8 bytes in
// memory[start:end). Any other (module, name) pair is unresolved, which
// fails instantiation with ErrUnknownHostFunction.
type DefaultResolver struct{}

var consoleLogType = wasm.FuncType{
	Params:  wasm.ResultType{wasm.ValI32, wasm.ValI32},
	Results: nil,
}

func (DefaultResolver) Resolve(module, name string) (HostFunc, wasm.FuncType, bool) {
	if module == "console" && name == "log" {
		return hostConsoleLog, consoleLogType, true
	}
	return nil, wasm.FuncType{}, false
}

// hostConsoleLog implements console.log. Call's generic argument-popping
// already restores args into declared param order (args[0]=start,
// args[1]=end) regardless of which operand came off the top of the stack
// first, so no special-casing is needed here.
func hostConsoleLog(rt *Runtime, args []Value) ([]Value, error) {
	start := uint64(args[0].U32())
	end := uint64(args[1].U32())
	if rt.mem == nil {
		return nil, ErrOutOfBoundsAt(start, 0)
	}
	b, err := rt.mem.Slice(start, end)
	if err != nil {
		return nil, err
	}
	Logger().Sugar().Infof("console.log: %s", string(b))
	return nil, nil
}
