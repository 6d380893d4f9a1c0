/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package fixedpoint implements the unsigned fixed-point quantizer used to
// model a hardware increment-value register with I integer bits and F
// fractional bits. It is isolated behind the Quantizer interface so runs
// with fixed-point disabled pay nothing and behave as an exact identity.
package fixedpoint

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Quantizer rounds a value to a representable fixed-point level and reports
// whether the input had to be clamped into range.
type Quantizer interface {
	// Quantize returns the dequantized (float) representation of v after
	// rounding to the nearest representable level, ties to even, and
	// clamping to the representable range. saturated is true when the
	// rounded level fell outside the representable range and had to be
	// clamped.
	Quantize(v float64) (value float64, saturated bool)
	// Resolution returns the distance between two adjacent representable
	// levels (2^-F).
	Resolution() float64
}

type identity struct{}

func (identity) Quantize(v float64) (float64, bool) { return v, false }
func (identity) Resolution() float64                { return 0 }

// UQ is an unsigned fixed-point format: I integer bits, F fractional bits.
type UQ struct {
	IntBits uint
	FrcBits uint
}

// New returns a Quantizer. When enabled is false it returns the identity
// quantizer so callers never need an if-fixed-point-enabled branch of their
// own.
func New(enabled bool, intBits, frcBits uint) Quantizer {
	if !enabled {
		return identity{}
	}
	return UQ{IntBits: intBits, FrcBits: frcBits}
}

func (q UQ) scale() float64 {
	return math.Ldexp(1, int(q.FrcBits))
}

// Max is the largest representable value in this format.
func (q UQ) Max() float64 {
	bits := q.IntBits + q.FrcBits
	levels := uint64(1) << bits
	return float64(levels-1) / q.scale()
}

func clamp[T constraints.Ordered](v, lo, hi T) (T, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

// Quantize rounds v*2^F to the nearest integer (ties to even), then clamps
// the raw level into [0, 2^(I+F)-1] before converting back to a value.
func (q UQ) Quantize(v float64) (float64, bool) {
	scale := q.scale()
	raw := math.RoundToEven(v * scale)
	maxLevel := float64((uint64(1)<<(q.IntBits+q.FrcBits))-1)
	clamped, saturated := clamp(raw, 0, maxLevel)
	return clamped / scale, saturated
}

// Resolution is the quantization step, 2^-F.
func (q UQ) Resolution() float64 {
	return 1 / q.scale()
}
