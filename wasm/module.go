package wasm

import (
	"github.com/vertexdlt/wasmcore/leb128"
)

// Magic is the 4-byte Wasm magic number, "\0asm".
const Magic uint32 = 0x6d736100

// Version is the only binary format version this decoder accepts.
const Version uint32 = 0x1

// External kinds, used by both Import and Export descriptors.
const (
	ExternFunc   byte = 0x00
	ExternTable  byte = 0x01
	ExternMemory byte = 0x02
	ExternGlobal byte = 0x03
)

// ImportDesc is the typed payload of one import entry.
type ImportDesc struct {
	Kind       byte
	TypeIdx    uint32
	Table      TableType
	Mem        MemType
	GlobalType GlobalType
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// Global is one entry of the global section: its type plus a constant
// initializer expression (decoded but not evaluated until Runtime
// construction).
type Global struct {
	Type GlobalType
	Init []Instr
}

// ExportDesc names which index space an export resolves into.
type ExportDesc struct {
	Kind byte
	Idx  uint32
}

// Export is one entry of the export section.
type Export struct {
	Name string
	Desc ExportDesc
}

// Element is one entry of the element section: a table index, an offset
// initializer expression, and the function indices to populate it with.
type Element struct {
	TableIdx uint32
	Offset   []Instr
	FuncIdxs []uint32
}

// Data is one entry of the data section.
type Data struct {
	MemIdx uint32
	Offset []Instr
	Init   []byte
}

// LocalEntry groups a run of locals sharing one value type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// Func is a function body: declared locals plus its instruction list.
type Func struct {
	Locals []LocalEntry
	Body   []Instr
}

// Code is one entry of the code section (the declared byte size is not kept
// — Func.Body is already fully decoded).
type Code struct {
	Func Func
}

// Module is the fully decoded, immutable aggregate of all sections plus the
// derived index spaces a Runtime needs. The decoder never mutates it after
// ReadModule returns and the runtime never re-reads the original bytes.
type Module struct {
	Version uint32

	Types    []FuncType
	Imports  []Import
	FuncSec  []uint32 // per-function type index, imports excluded
	Tables   []TableType
	Mems     []MemType
	Globals  []Global
	Exports  []Export
	Elements []Element
	Codes    []Code
	Datas    []Data

	ExportMap map[string]Export

	// ImportFuncCount is the number of imported functions; function indices
	// below this value are host imports, others index into Codes after
	// subtracting it (spec §9's resolved `call` mapping).
	ImportFuncCount int
}

// ReadModule decodes a full Wasm module from b.
func ReadModule(b []byte) (*Module, error) {
	c := NewCursor(b)
	stack := NewDebugStack()
	m, err := readModule(c, stack)
	if err != nil {
		return nil, &DecodeError{Stack: stack.Snapshot(), Err: err}
	}
	return m, nil
}

func readModule(c *Cursor, stack *DebugStack) (*Module, error) {
	magic, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidHeader
	}
	version, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{Version: version, ExportMap: map[string]Export{}}
	seen := map[byte]bool{}

	for c.Remaining() > 0 {
		id, err := c.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		sectionBytes, err := c.ReadBytes(size)
		if err != nil {
			return nil, err
		}
		sc := NewCursor(sectionBytes)

		if id != 0 { // custom sections may repeat and appear anywhere
			if seen[id] {
				return nil, ErrRepeatedSection(id)
			}
			seen[id] = true
		}

		switch id {
		case 0:
			// Custom sections are decoded only enough to validate the name,
			// then dropped; their payload carries no runtime semantics here.
			if _, err := sc.ReadName(); err != nil {
				return nil, err
			}
		case 1:
			m.Types, err = decodeTypeSec(sc, stack)
		case 2:
			m.Imports, err = decodeImportSec(sc, stack)
		case 3:
			m.FuncSec, err = decodeFuncSec(sc)
		case 4:
			m.Tables, err = decodeTableSec(sc)
		case 5:
			m.Mems, err = decodeMemSec(sc)
		case 6:
			m.Globals, err = decodeGlobalSec(sc, stack)
		case 7:
			m.Exports, err = decodeExportSec(sc)
		case 8:
			return nil, ErrUnsupportedSection(id, "start")
		case 9:
			m.Elements, err = decodeElementSec(sc, stack)
		case 10:
			m.Codes, err = decodeCodeSec(sc, stack)
		case 11:
			m.Datas, err = decodeDataSec(sc, stack)
		case 12:
			return nil, ErrUnsupportedSection(id, "datacount")
		default:
			return nil, ErrUnknownSection(id)
		}
		if err != nil {
			return nil, err
		}
		if sc.Remaining() != 0 {
			return nil, ErrSectionSizeMismatch(id, int64(size), int64(int(size)-sc.Remaining()))
		}
	}

	for _, imp := range m.Imports {
		if imp.Desc.Kind == ExternFunc {
			m.ImportFuncCount++
		}
	}
	for _, exp := range m.Exports {
		m.ExportMap[exp.Name] = exp
	}

	return m, nil
}

func decodeTypeSec(c *Cursor, stack *DebugStack) ([]FuncType, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]FuncType, n)
	for i := range out {
		out[i], err = decodeFuncType(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeImportSec(c *Cursor, stack *DebugStack) ([]Import, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Import, n)
	for i := range out {
		out[i].Module, err = c.ReadName()
		if err != nil {
			return nil, err
		}
		out[i].Name, err = c.ReadName()
		if err != nil {
			return nil, err
		}
		kind, err := c.ReadByte()
		if err != nil {
			return nil, err
		}
		var desc ImportDesc
		desc.Kind = kind
		switch kind {
		case ExternFunc:
			desc.TypeIdx, err = leb128.ReadUint32(c)
		case ExternTable:
			desc.Table, err = decodeTableType(c)
		case ExternMemory:
			desc.Mem, err = decodeMemType(c)
		case ExternGlobal:
			desc.GlobalType, err = decodeGlobalType(c)
		default:
			return nil, ErrInvalidByte("import external kind", kind)
		}
		if err != nil {
			return nil, err
		}
		out[i].Desc = desc
	}
	return out, nil
}

func decodeFuncSec(c *Cursor) ([]uint32, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i], err = leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeTableSec(c *Cursor) ([]TableType, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]TableType, n)
	for i := range out {
		out[i], err = decodeTableType(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeMemSec(c *Cursor) ([]MemType, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]MemType, n)
	for i := range out {
		out[i], err = decodeMemType(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeGlobalSec(c *Cursor, stack *DebugStack) ([]Global, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Global, n)
	for i := range out {
		out[i].Type, err = decodeGlobalType(c)
		if err != nil {
			return nil, err
		}
		out[i].Init, _, err = decodeInstrList(c, stack)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeExportSec(c *Cursor) ([]Export, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Export, n)
	for i := range out {
		out[i].Name, err = c.ReadName()
		if err != nil {
			return nil, err
		}
		kind, err := c.ReadByte()
		if err != nil {
			return nil, err
		}
		if kind != ExternFunc && kind != ExternTable && kind != ExternMemory && kind != ExternGlobal {
			return nil, ErrInvalidByte("export kind", kind)
		}
		idx, err := leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		out[i].Desc = ExportDesc{Kind: kind, Idx: idx}
	}
	return out, nil
}

func decodeElementSec(c *Cursor, stack *DebugStack) ([]Element, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Element, n)
	for i := range out {
		out[i].TableIdx, err = leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		out[i].Offset, _, err = decodeInstrList(c, stack)
		if err != nil {
			return nil, err
		}
		cnt, err := leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		idxs := make([]uint32, cnt)
		for j := range idxs {
			idxs[j], err = leb128.ReadUint32(c)
			if err != nil {
				return nil, err
			}
		}
		out[i].FuncIdxs = idxs
	}
	return out, nil
}

func decodeCodeSec(c *Cursor, stack *DebugStack) ([]Code, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Code, n)
	for i := range out {
		size, err := leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		body, err := c.ReadBytes(size)
		if err != nil {
			return nil, err
		}
		bc := NewCursor(body)
		locals, err := decodeLocals(bc)
		if err != nil {
			return nil, err
		}
		instrs, _, err := decodeInstrList(bc, stack)
		if err != nil {
			return nil, err
		}
		if bc.Remaining() != 0 {
			return nil, ErrSectionSizeMismatch(10, int64(size), int64(int(size)-bc.Remaining()))
		}
		out[i].Func = Func{Locals: locals, Body: instrs}
	}
	return out, nil
}

func decodeLocals(c *Cursor) ([]LocalEntry, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]LocalEntry, n)
	for i := range out {
		out[i].Count, err = leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		out[i].ValType, err = decodeValType(c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeDataSec(c *Cursor, stack *DebugStack) ([]Data, error) {
	n, err := leb128.ReadUint32(c)
	if err != nil {
		return nil, err
	}
	out := make([]Data, n)
	for i := range out {
		out[i].MemIdx, err = leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		out[i].Offset, _, err = decodeInstrList(c, stack)
		if err != nil {
			return nil, err
		}
		size, err := leb128.ReadUint32(c)
		if err != nil {
			return nil, err
		}
		out[i].Init, err = c.ReadBytes(size)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
