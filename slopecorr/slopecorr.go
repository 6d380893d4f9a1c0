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

// Package slopecorr applies the CONST_TOFF-stage slope correction captured
// at the FINE_SYNT->CONST_TOFF transition. It separates a fractional
// accumulator (the true, continuously-growing correction) from the integer
// ns actually applied to the RTC's offset register each cycle, applying
// only the floor of the fractional accumulator so the two never diverge by
// more than 1ns.
package slopecorr

import "math"

// Corrector tracks the running slope correction.
type Corrector struct {
	slopeNsPerSample float64
	slopeCorrAccum   float64
	appliedCorrAccum int64
}

// New builds a Corrector for the given per-sample slope (ns of offset drift
// per SYNC sample), captured once when CONST_TOFF is entered.
func New(slopeNsPerSample float64) *Corrector {
	return &Corrector{slopeNsPerSample: slopeNsPerSample}
}

// Step accrues one sample's worth of slope and returns the incremental ns
// delta to apply to the RTC's time-offset register this cycle (the
// difference between the new floor and what was already applied).
func (c *Corrector) Step() int64 {
	c.slopeCorrAccum += c.slopeNsPerSample
	target := int64(math.Floor(c.slopeCorrAccum))
	delta := target - c.appliedCorrAccum
	c.appliedCorrAccum = target
	return delta
}

// Unapplied returns the fractional ns not yet folded into the applied
// accumulator; by construction this is always in [0, 1).
func (c *Corrector) Unapplied() float64 {
	return c.slopeCorrAccum - float64(c.appliedCorrAccum)
}
