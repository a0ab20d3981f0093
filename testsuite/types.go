// Package testsuite drives wast2json conformance output against a vm.Runtime:
// it decodes each module, runs the JSON command stream (module/action/
// assert_return/assert_trap/...), and reports pass/fail/skip per command.
package testsuite

// TestSuite is the top-level shape wast2json emits for one .wast file.
type TestSuite struct {
	SourceFilename string    `json:"source_filename"`
	Commands       []Command `json:"commands"`
}

// Command is one entry of the command stream.
type Command struct {
	Type       string      `json:"type"`
	Line       int         `json:"line"`
	Filename   string      `json:"filename"`
	Name       string      `json:"name"`
	Action     Action      `json:"action"`
	Text       string      `json:"text"`
	ModuleType string      `json:"module_type"`
	Expected   []ValueInfo `json:"expected"`
}

// Action is the invoke/get payload of an action or assert_* command.
type Action struct {
	Type     string      `json:"type"`
	Module   string      `json:"module"`
	Field    string      `json:"field"`
	Args     []ValueInfo `json:"args"`
	Expected []ValueInfo `json:"expected"`
}

// ValueInfo is wast2json's {type, value} pair: value is always the decimal
// string of the raw bit pattern, even for floats and negative integers.
type ValueInfo struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
