package testsuite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vertexdlt/wasmcore/vm"
	"github.com/vertexdlt/wasmcore/wasm"
)

// Failure records one command that did not behave as the suite expected.
type Failure struct {
	Line    int
	Type    string
	Message string
}

// Result tallies one suite run.
type Result struct {
	SourceFilename string
	Total          int
	Passed         int
	Failed         int
	Skipped        int
	Failures       []Failure
}

func (r *Result) pass() { r.Passed++ }

func (r *Result) fail(cmd Command, format string, args ...interface{}) {
	r.Failed++
	msg := fmt.Sprintf(format, args...)
	r.Failures = append(r.Failures, Failure{
		Line:    cmd.Line,
		Type:    cmd.Type,
		Message: msg,
	})
	Logger().Sugar().Warnf("%s:%d %s: %s", r.SourceFilename, cmd.Line, cmd.Type, msg)
}

func (r *Result) skip() { r.Skipped++ }

// Driver runs wast2json command streams against freshly instantiated
// Runtimes. The zero value is ready to use; set Resolver to exercise host
// imports beyond the default console.log binding.
type Driver struct {
	Resolver  vm.Resolver
	GasPolicy vm.GasPolicy
	GasLimit  uint64
}

func (d *Driver) options() []vm.Option {
	var opts []vm.Option
	if d.Resolver != nil {
		opts = append(opts, vm.WithResolver(d.Resolver))
	}
	if d.GasPolicy != nil {
		opts = append(opts, vm.WithGasPolicy(d.GasPolicy, d.GasLimit))
	}
	return opts
}

// RunFile shells out to wast2json on wastPath and runs the resulting command
// stream. jsonOutDir, if non-empty, is where wast2json writes its JSON and
// any split *.N.wasm module files; an empty string uses wastPath's directory.
func (d *Driver) RunFile(wastPath, jsonOutDir string) (*Result, error) {
	if jsonOutDir == "" {
		jsonOutDir = filepath.Dir(wastPath)
	}
	jsonPath := filepath.Join(jsonOutDir, strings.TrimSuffix(filepath.Base(wastPath), filepath.Ext(wastPath))+".json")

	cmd := exec.Command("wast2json", wastPath, "-o", jsonPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("testsuite: wast2json %s: %w", wastPath, err)
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("testsuite: reading %s: %w", jsonPath, err)
	}
	var suite TestSuite
	if err := json.Unmarshal(raw, &suite); err != nil {
		return nil, fmt.Errorf("testsuite: decoding %s: %w", jsonPath, err)
	}
	return d.RunSuite(filepath.Dir(jsonPath), &suite), nil
}

// RunSuite runs an already-decoded command stream; dir resolves each
// module command's relative Filename.
func (d *Driver) RunSuite(dir string, suite *TestSuite) *Result {
	res := &Result{SourceFilename: suite.SourceFilename}
	Logger().Sugar().Infof("running suite %s (%d commands)", suite.SourceFilename, len(suite.Commands))

	var current *vm.Runtime
	named := map[string]*vm.Runtime{}

	for _, cmd := range suite.Commands {
		res.Total++
		switch cmd.Type {
		case "module":
			rt, err := d.loadModule(dir, cmd.Filename)
			if err != nil {
				res.fail(cmd, "instantiate %s: %v", cmd.Filename, err)
				current = nil
				continue
			}
			current = rt
			if cmd.Name != "" {
				named[cmd.Name] = rt
			}
			res.pass()

		case "register":
			// Cross-module import linking (one module importing another's
			// exports under a registered name) isn't wired: this runtime's
			// Resolver only binds host functions, not other instances'
			// exports. Recorded as skipped rather than silently dropped.
			res.skip()

		case "action":
			if current == nil {
				res.fail(cmd, "action with no active module")
				continue
			}
			if _, err := d.invoke(current, named, cmd.Action); err != nil {
				res.fail(cmd, "action %s: %v", cmd.Action.Field, err)
				continue
			}
			res.pass()

		case "assert_return":
			d.checkReturn(res, current, named, cmd, compareExact)

		case "assert_return_canonical_nan":
			d.checkReturn(res, current, named, cmd, compareCanonicalNaN)

		case "assert_return_arithmetic_nan":
			d.checkReturn(res, current, named, cmd, compareArithmeticNaN)

		case "assert_trap":
			if current == nil {
				res.fail(cmd, "assert_trap with no active module")
				continue
			}
			_, err := d.invoke(current, named, cmd.Action)
			if err == nil {
				res.fail(cmd, "expected trap %q, call succeeded", cmd.Text)
				continue
			}
			if !trapMatches(cmd.Text, err) {
				res.fail(cmd, "trap mismatch: want %q, got %q", cmd.Text, err.Error())
				continue
			}
			res.pass()

		case "assert_exhaustion":
			if current == nil {
				res.fail(cmd, "assert_exhaustion with no active module")
				continue
			}
			_, err := d.invoke(current, named, cmd.Action)
			if err == nil || !errors.Is(err, vm.ErrCallStackExhausted) {
				res.fail(cmd, "expected call stack exhaustion, got %v", err)
				continue
			}
			res.pass()

		case "assert_invalid", "assert_malformed":
			path := filepath.Join(dir, cmd.Filename)
			data, err := os.ReadFile(path)
			if err != nil {
				res.fail(cmd, "reading %s: %v", cmd.Filename, err)
				continue
			}
			if _, decErr := wasm.ReadModule(data); decErr == nil {
				res.fail(cmd, "expected %s (%q) but module decoded cleanly", cmd.Type, cmd.Text)
				continue
			}
			res.pass()

		case "assert_uninstantiable":
			rt, err := d.loadModule(dir, cmd.Filename)
			if err == nil {
				_ = rt
				res.fail(cmd, "expected uninstantiable (%q) but instantiation succeeded", cmd.Text)
				continue
			}
			res.pass()

		case "assert_unlinkable":
			rt, err := d.loadModule(dir, cmd.Filename)
			if err == nil {
				_ = rt
				res.fail(cmd, "expected unlinkable (%q) but instantiation succeeded", cmd.Text)
				continue
			}
			res.pass()

		default:
			res.skip()
		}
	}

	return res
}

func (d *Driver) loadModule(dir, filename string) (*vm.Runtime, error) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	m, err := wasm.ReadModule(data)
	if err != nil {
		return nil, err
	}
	return vm.NewRuntime(m, d.options()...)
}

// checkReturn runs an action and compares its results against cmd.Expected
// using the supplied per-value comparator (exact bits, canonical NaN, or
// arithmetic NaN).
func (d *Driver) checkReturn(res *Result, current *vm.Runtime, named map[string]*vm.Runtime, cmd Command, cmp func(ValueInfo, vm.Value) (bool, error)) {
	if current == nil {
		res.fail(cmd, "assertion with no active module")
		return
	}
	got, err := d.invoke(current, named, cmd.Action)
	if err != nil {
		res.fail(cmd, "action %s: %v", cmd.Action.Field, err)
		return
	}
	if len(got) != len(cmd.Expected) {
		res.fail(cmd, "result count: want %d, got %d", len(cmd.Expected), len(got))
		return
	}
	for i, want := range cmd.Expected {
		ok, err := cmp(want, got[i])
		if err != nil {
			res.fail(cmd, "comparing result %d: %v", i, err)
			return
		}
		if !ok {
			res.fail(cmd, "result %d: want %s %s, got %s", i, want.Type, want.Value, got[i].String())
			return
		}
	}
	res.pass()
}

func (d *Driver) invoke(rt *vm.Runtime, named map[string]*vm.Runtime, act Action) ([]vm.Value, error) {
	target := rt
	if act.Module != "" {
		if r, ok := named[act.Module]; ok {
			target = r
		}
	}
	switch act.Type {
	case "invoke":
		args := make([]vm.Value, len(act.Args))
		for i, a := range act.Args {
			v, err := parseValueInfo(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return target.Invoke(act.Field, args...)
	case "get":
		exp, err := target.Export(act.Field)
		if err != nil {
			return nil, err
		}
		if exp.Desc.Kind != wasm.ExternGlobal {
			return nil, fmt.Errorf("testsuite: export %s is not a global", act.Field)
		}
		v, err := target.Global(exp.Desc.Idx)
		if err != nil {
			return nil, err
		}
		return []vm.Value{v}, nil
	default:
		return nil, fmt.Errorf("testsuite: unsupported action type %q", act.Type)
	}
}

// parseValueInfo decodes a wast2json {type, value} pair into a vm.Value.
// value is always the decimal string of the raw bit pattern, never a typed
// literal, for every numeric type including floats and negative integers.
func parseValueInfo(vi ValueInfo) (vm.Value, error) {
	switch vi.Type {
	case "i32":
		n, err := strconv.ParseUint(vi.Value, 10, 32)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.I32(int32(uint32(n))), nil
	case "i64":
		n, err := strconv.ParseUint(vi.Value, 10, 64)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.I64(int64(n)), nil
	case "f32":
		n, err := strconv.ParseUint(vi.Value, 10, 32)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Value{Kind: vm.KindF32, Bits: uint64(uint32(n))}, nil
	case "f64":
		n, err := strconv.ParseUint(vi.Value, 10, 64)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Value{Kind: vm.KindF64, Bits: n}, nil
	case "funcref":
		if vi.Value == "null" {
			return vm.Value{Kind: vm.KindFuncRef, Bits: 0xffffffff}, nil
		}
		n, err := strconv.ParseUint(vi.Value, 10, 32)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.FuncRef(uint32(n)), nil
	case "externref":
		if vi.Value == "null" {
			return vm.Value{Kind: vm.KindExternRef, Bits: 0xffffffff}, nil
		}
		n, err := strconv.ParseUint(vi.Value, 10, 32)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.ExternRef(uint32(n)), nil
	default:
		return vm.Value{}, fmt.Errorf("testsuite: unsupported value type %q", vi.Type)
	}
}

func compareExact(want ValueInfo, got vm.Value) (bool, error) {
	wv, err := parseValueInfo(want)
	if err != nil {
		return false, err
	}
	return wv.Bits == got.Bits, nil
}

func compareCanonicalNaN(want ValueInfo, got vm.Value) (bool, error) {
	switch want.Type {
	case "f32":
		return got.U32()&0x7fffffff == 0x7fc00000, nil
	case "f64":
		return got.U64()&0x7fffffffffffffff == 0x7ff8000000000000, nil
	default:
		return false, fmt.Errorf("testsuite: canonical-nan assertion on non-float type %q", want.Type)
	}
}

func compareArithmeticNaN(want ValueInfo, got vm.Value) (bool, error) {
	switch want.Type {
	case "f32":
		bits := got.U32()
		exp := (bits >> 23) & 0xff
		mant := bits & 0x7fffff
		return exp == 0xff && mant&0x400000 != 0, nil
	case "f64":
		bits := got.U64()
		exp := (bits >> 52) & 0x7ff
		mant := bits & 0xfffffffffffff
		return exp == 0x7ff && mant&0x8000000000000 != 0, nil
	default:
		return false, fmt.Errorf("testsuite: arithmetic-nan assertion on non-float type %q", want.Type)
	}
}

// trapText maps the canonical trap messages wast2json embeds in assert_trap
// commands to the sentinel this runtime actually raises for them.
var trapText = map[string]error{
	"unreachable":                      vm.ErrUnreachableExecuted,
	"integer divide by zero":           vm.ErrDivideByZero,
	"integer overflow":                 vm.ErrIntegerOverflow,
	"invalid conversion to integer":    vm.ErrInvalidConversion,
	"out of bounds memory access":      vm.ErrOutOfBoundsMemoryAccess,
	"out of bounds table access":       vm.ErrOutOfBoundsTableAccess,
	"undefined element":                vm.ErrUndefinedElement,
	"uninitialized element":            vm.ErrUninitializedElement,
	"uninitialized element 2":          vm.ErrUninitializedElement,
	"indirect call type mismatch":      vm.ErrIndirectCallTypeMismatch,
	"indirect call signature mismatch": vm.ErrIndirectCallTypeMismatch,
	"call stack exhausted":             vm.ErrCallStackExhausted,
	"unknown function":                 vm.ErrUnknownHostFunction,
}

// trapMatches reports whether err is the trap wast2json's text names. Known
// texts are checked against their exact sentinel via errors.Is; an
// unrecognized text falls back to accepting any trap, since wast2json's
// exact wording varies slightly across spec test releases and this driver
// cares whether the right class of error occurred, not the prose.
func trapMatches(text string, err error) bool {
	if sentinel, ok := trapText[text]; ok {
		return errors.Is(err, sentinel)
	}
	return err != nil
}
