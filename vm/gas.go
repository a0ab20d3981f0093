package vm

import "github.com/vertexdlt/wasmcore/wasm"

// GasPolicy prices execution. Runtime charges GetCostForOp before every
// instruction and GetCostForMalloc on every successful memory.grow; an
// accumulated cost over the configured limit traps with ErrOutOfGas. This is
// not part of the conformance test surface — it defaults to FreeGasPolicy,
// so a Runtime built without an explicit policy runs unmetered.
type GasPolicy interface {
	GetCostForOp(op wasm.Opcode) uint64
	GetCostForMalloc(pages int) uint64
}

// FreeGasPolicy charges nothing; Runtime uses it unless told otherwise.
type FreeGasPolicy struct{}

func (p *FreeGasPolicy) GetCostForOp(op wasm.Opcode) uint64 { return 0 }
func (p *FreeGasPolicy) GetCostForMalloc(pages int) uint64  { return 0 }

// SimpleGasPolicy charges a flat 1 gas per instruction and 1024 per grown
// page, a coarse metering scheme useful for bounding runaway test inputs.
type SimpleGasPolicy struct{}

func (p *SimpleGasPolicy) GetCostForOp(op wasm.Opcode) uint64 { return 1 }
func (p *SimpleGasPolicy) GetCostForMalloc(pages int) uint64  { return uint64(pages) * 1024 }

// Gas tracks consumption against an optional limit. Limit == 0 means
// unlimited.
type Gas struct {
	Used  uint64
	Limit uint64
}

func (g *Gas) charge(n uint64) error {
	g.Used += n
	if g.Limit != 0 && g.Used > g.Limit {
		return ErrOutOfGas
	}
	return nil
}
