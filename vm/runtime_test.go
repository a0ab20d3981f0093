package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vertexdlt/wasmcore/wasm"
)

func mustModule(t *testing.T, data []byte) *wasm.Module {
	t.Helper()
	m, err := wasm.ReadModule(data)
	require.NoError(t, err)
	return m
}

func TestInvokeAdd(t *testing.T) {
	m := mustModule(t, buildAddModule())
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	results, err := rt.Invoke("add", I32(3), I32(4))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int32(7), results[0].I32())
}

func TestInvokeSumViaLoop(t *testing.T) {
	m := mustModule(t, buildSumModule())
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	results, err := rt.Invoke("sum", I32(10))
	require.NoError(t, err)
	require.Equal(t, int32(55), results[0].I32())

	results, err = rt.Invoke("sum", I32(0))
	require.NoError(t, err)
	require.Equal(t, int32(0), results[0].I32())
}

func TestInvokeDivTrap(t *testing.T) {
	m := mustModule(t, buildDivModule())
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	results, err := rt.Invoke("div_u", I32(10), I32(2))
	require.NoError(t, err)
	require.Equal(t, int32(5), results[0].I32())

	_, err = rt.Invoke("div_u", I32(10), I32(0))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDivideByZero))
}

func TestInvokeAbsIfElse(t *testing.T) {
	m := mustModule(t, buildAbsModule())
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	results, err := rt.Invoke("abs", I32(-5))
	require.NoError(t, err)
	require.Equal(t, int32(5), results[0].I32())

	results, err = rt.Invoke("abs", I32(5))
	require.NoError(t, err)
	require.Equal(t, int32(5), results[0].I32())
}

func TestMemoryStoreLoadAndTrap(t *testing.T) {
	m := mustModule(t, buildMemoryModule())
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	results, err := rt.Invoke("store_load")
	require.NoError(t, err)
	require.Equal(t, int32(42), results[0].I32())

	_, err = rt.Invoke("oob")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOutOfBoundsMemoryAccess))
}

func TestUnreachableTraps(t *testing.T) {
	typeSec := section(1, vec([]byte{0x60, 0x00, 0x00}))
	funcSec := section(3, vec(uleb(0)))
	exportSec := section(7, vec(exportFunc("crash", 0)))
	body := []byte{0x00, 0x0B} // unreachable; end
	codeSec := section(10, vec(codeEntry(uleb(0), body)))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)

	m := mustModule(t, data)
	rt, err := NewRuntime(m)
	require.NoError(t, err)

	_, err = rt.Invoke("crash")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnreachableExecuted))
}
