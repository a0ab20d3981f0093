package wasm

import (
	"bytes"
	"testing"

	wagon "github.com/go-interpreter/wagon/wasm"
	"github.com/stretchr/testify/require"
)

// TestCrossValidateAgainstWagon decodes the same fixture module with both
// this package's decoder and go-interpreter/wagon, and asserts they agree
// on function/type counts and on the index of the "add" export.
func TestCrossValidateAgainstWagon(t *testing.T) {
	data := buildAddModule()

	ours, err := ReadModule(data)
	require.NoError(t, err)

	theirs, err := wagon.ReadModule(bytes.NewReader(data), nil)
	require.NoError(t, err)

	require.Len(t, ours.Types, len(theirs.Types.Entries))
	require.Len(t, ours.Codes, len(theirs.FunctionIndexSpace))

	exp, ok := theirs.Export.Entries["add"]
	require.True(t, ok)
	ourExp, ok := ours.ExportMap["add"]
	require.True(t, ok)
	require.Equal(t, exp.Index, ourExp.Desc.Idx)
}
