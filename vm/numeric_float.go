package vm

import "math"

// f64Nearest rounds to the nearest integral value, ties to even, matching
// the Wasm "nearest" opcode rather than Go's round-half-away-from-zero.
func f64Nearest(v float64) float64 { return math.RoundToEven(v) }

// f64Min and f64Max propagate NaN and distinguish signed zero the way
// math.Min/Max already do, which happens to match the Wasm min/max opcodes
// exactly: NaN if either operand is NaN, -0 < +0.
func f64Min(a, b float64) float64 { return math.Min(a, b) }
func f64Max(a, b float64) float64 { return math.Max(a, b) }

func f64Copysign(a, b float64) float64 { return math.Copysign(a, b) }
