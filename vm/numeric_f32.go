package vm

import "github.com/chewxy/math32"

// f32 unary/binary transcendental ops operate on float32 directly via
// chewxy/math32 instead of promoting to float64 and narrowing back, which
// would round twice and occasionally disagree with the single-rounding
// result the Wasm spec requires.
func f32Sqrt(v float32) float32   { return math32.Sqrt(v) }
func f32Abs(v float32) float32    { return math32.Abs(v) }
func f32Ceil(v float32) float32   { return math32.Ceil(v) }
func f32Floor(v float32) float32  { return math32.Floor(v) }
func f32Trunc(v float32) float32  { return math32.Trunc(v) }
func f32Nearest(v float32) float32 {
	r := math32.Round(v)
	// math32.Round is round-half-away-from-zero; Wasm's "nearest" is
	// round-half-to-even, so correct the halfway case.
	if math32.Abs(v-math32.Trunc(v)) == 0.5 {
		floor := math32.Floor(v)
		if math32.Mod(floor, 2) == 0 {
			return floor
		}
		return floor + 1
	}
	return r
}

func f32Min(a, b float32) float32 {
	if math32.IsNaN(a) || math32.IsNaN(b) {
		return math32.NaN()
	}
	if a == 0 && b == 0 {
		if math32.Signbit(a) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func f32Max(a, b float32) float32 {
	if math32.IsNaN(a) || math32.IsNaN(b) {
		return math32.NaN()
	}
	if a == 0 && b == 0 {
		if math32.Signbit(a) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

func f32Copysign(a, b float32) float32 { return math32.Copysign(a, b) }
