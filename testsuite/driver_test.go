package testsuite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestRunSuiteDispatch(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.0.wasm", buildAddDivModule())
	writeModule(t, dir, "bad.0.wasm", []byte{0x00, 0x00, 0x00, 0x00})

	suite := &TestSuite{
		SourceFilename: "m.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Filename: "m.0.wasm"},
			{
				Type: "assert_return", Line: 2,
				Action:   Action{Type: "invoke", Field: "add", Args: []ValueInfo{{"i32", "3"}, {"i32", "4"}}},
				Expected: []ValueInfo{{"i32", "7"}},
			},
			{
				Type: "assert_return", Line: 3,
				Action:   Action{Type: "invoke", Field: "add", Args: []ValueInfo{{"i32", "3"}, {"i32", "4"}}},
				Expected: []ValueInfo{{"i32", "8"}},
			},
			{
				Type: "assert_trap", Line: 4, Text: "integer divide by zero",
				Action: Action{Type: "invoke", Field: "div_u", Args: []ValueInfo{{"i32", "10"}, {"i32", "0"}}},
			},
			{Type: "assert_invalid", Line: 5, Filename: "bad.0.wasm", Text: "magic"},
			{Type: "register", Line: 6, Name: "m"},
		},
	}

	d := &Driver{}
	res := d.RunSuite(dir, suite)

	require.Equal(t, 6, res.Total)
	require.Equal(t, 1, res.Skipped) // the register command
	require.Equal(t, 4, res.Passed)  // module, correct assert_return, assert_trap, assert_invalid
	require.Equal(t, 1, res.Failed)  // the wrong-expectation assert_return
}
