package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadModuleAdd(t *testing.T) {
	m, err := ReadModule(buildAddModule())
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	require.Equal(t, ResultType{ValI32, ValI32}, m.Types[0].Params)
	require.Equal(t, ResultType{ValI32}, m.Types[0].Results)
	require.Len(t, m.Codes, 1)
	require.Equal(t, []Instr{
		{Op: OpLocalGet, Idx: 0},
		{Op: OpLocalGet, Idx: 1},
		{Op: OpI32Add},
	}, m.Codes[0].Func.Body)

	exp, ok := m.ExportMap["add"]
	require.True(t, ok)
	require.Equal(t, ExternFunc, exp.Desc.Kind)
	require.Equal(t, uint32(0), exp.Desc.Idx)
}

func TestReadModuleInvalidHeader(t *testing.T) {
	_, err := ReadModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	require.Error(t, err)
}

func TestReadModuleRejectsStartSection(t *testing.T) {
	b := append(header(), section(8, uleb(0))...)
	_, err := ReadModule(b)
	require.Error(t, err)
}

func TestReadModuleRejectsRepeatedSection(t *testing.T) {
	typeSec := section(1, vec())
	b := append(header(), typeSec...)
	b = append(b, typeSec...)
	_, err := ReadModule(b)
	require.Error(t, err)
}

func TestReadModuleRejectsUnknownOpcode(t *testing.T) {
	funcType := append([]byte{funcTypeForm}, append(vec(), vec()...)...)
	typeSec := section(1, vec(funcType))
	funcSec := section(3, vec(uleb(0)))
	body := []byte{0xFF, byte(OpEnd)}
	code := append(uleb(0), body...)
	codeSec := section(10, vec(append(uleb(uint32(len(code))), code...)))

	b := header()
	b = append(b, typeSec...)
	b = append(b, funcSec...)
	b = append(b, codeSec...)
	_, err := ReadModule(b)
	require.Error(t, err)
}

func TestAlignmentGuard(t *testing.T) {
	// i32.load with align=2 (natural width 4 bytes = align 2**2): valid.
	c := NewCursor(append(uleb(2), uleb(0)...))
	_, err := decodeMemArg(c, 4)
	require.NoError(t, err)

	// align=3 (2**3=8) exceeds natural width 4: must fail and not advance
	// past the MemArg itself.
	c2 := NewCursor(append(uleb(3), uleb(0)...))
	_, err = decodeMemArg(c2, 4)
	require.Error(t, err)
	require.Equal(t, 2, c2.Pos())
}
