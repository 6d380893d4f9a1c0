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

// Package rtc models a single simulated real-time counter: a free-running
// oscillator whose rising edges accrue nanoseconds into a (sec, ns) pair,
// plus a synchronized-time offset register layered on top of it. It is the
// simulator's analogue of the teacher's ptp/protocol Timestamp type and the
// clock package's hardware register, reimplemented without any syscall.
package rtc

import (
	"math"

	"github.com/facebookincubator/ptpsim/diag"
)

// Timestamp is a non-negative instant: Sec whole seconds, Ns in [0, 1e9).
type Timestamp struct {
	Sec uint64
	Ns  uint32
}

// Offset is a signed duration represented the same way time.Duration's
// divmod form is: Sec carries the sign, Ns always stays in [0, 1e9), so the
// signed magnitude is Sec*1e9 + Ns.
type Offset struct {
	Sec int64
	Ns  int64
}

// NormalizeOffset carries/borrows ns into [0, 1e9), adjusting sec to match.
func NormalizeOffset(sec, ns int64) Offset {
	for ns >= 1_000_000_000 {
		ns -= 1_000_000_000
		sec++
	}
	for ns < 0 {
		ns += 1_000_000_000
		sec--
	}
	return Offset{Sec: sec, Ns: ns}
}

// Config parameterizes a single RTC at construction time.
type Config struct {
	// NominalFreqHz is the oscillator's nameplate frequency (e.g. 125e6).
	NominalFreqHz float64
	// FreqOffsetPPB is this oscillator's fixed deviation from nominal.
	FreqOffsetPPB float64
	// InitTimeSec/InitTimeNs seed the syntonized counter.
	InitTimeSec uint64
	InitTimeNs  uint32
	// InitRisingEdgeNs is the simulated time, in ns, of this oscillator's
	// first rising edge.
	InitRisingEdgeNs float64
}

// RTC is a single simulated real-time counter.
type RTC struct {
	cfg Config

	// ClkFreq/ClkPeriod describe the real, drift-affected oscillator: how
	// often rising edges actually occur.
	ClkFreq   float64
	ClkPeriod float64 // seconds between rising edges

	// IInc is the count of rising edges accrued so far; monotone
	// non-decreasing by construction.
	IInc uint64

	// SecCnt/NsCnt is the syntonized (frequency-aligned, not time-aligned)
	// counter. NsCnt is kept in [0, 1e9).
	SecCnt uint64
	NsCnt  float64

	// IncValNs is the nominal nanosecond value credited per rising edge;
	// this is the register the increment-value tuner adjusts.
	IncValNs float64

	// TimeOffset is added on top of the syntonized counter to produce the
	// synchronized view of time.
	TimeOffset Offset
}

// New builds an RTC from cfg.
func New(cfg Config) *RTC {
	freq := cfg.NominalFreqHz * (1 + cfg.FreqOffsetPPB*1e-9)
	return &RTC{
		cfg:       cfg,
		ClkFreq:   freq,
		ClkPeriod: 1 / freq,
		SecCnt:    cfg.InitTimeSec,
		NsCnt:     float64(cfg.InitTimeNs),
		IncValNs:  1e9 / cfg.NominalFreqHz,
	}
}

// Accrue advances the syntonized counter to reflect every rising edge that
// has occurred by tSimSec (simulated time, seconds). It is idempotent for a
// tSimSec that has already been accrued past.
func (r *RTC) Accrue(tSimSec float64) {
	edgeSec := r.cfg.InitRisingEdgeNs * 1e-9
	nIncsF := math.Floor((tSimSec - edgeSec) / r.ClkPeriod)
	if nIncsF < 0 {
		nIncsF = 0
	}
	nIncs := uint64(nIncsF)
	if nIncs <= r.IInc {
		return
	}
	newIncs := nIncs - r.IInc
	r.NsCnt += float64(newIncs) * r.IncValNs
	r.IInc = nIncs
	r.normalize()
}

func (r *RTC) normalize() {
	for r.NsCnt >= 1e9 {
		r.NsCnt -= 1e9
		r.SecCnt++
	}
}

// SetIncVal updates the per-edge increment register. Future accruals alone
// are affected; edges already counted keep their old contribution.
func (r *RTC) SetIncVal(ns float64) error {
	if math.IsNaN(ns) || math.IsInf(ns, 0) || ns <= 0 {
		return diag.Newf(diag.InvariantViolation, "invalid rtc increment value %v", ns)
	}
	r.IncValNs = ns
	return nil
}

// Now returns the syntonized timestamp: the floor of the current counter,
// discarding any sub-ns fraction.
func (r *RTC) Now() Timestamp {
	return Timestamp{Sec: r.SecCnt, Ns: uint32(math.Floor(r.NsCnt))}
}

// AddOffsetNs adds a signed nanosecond delta to the time-offset register,
// renormalizing ns into range. Used by the slope corrector (incremental
// application); the DELAY_EST and CONST_TOFF overwrites go through
// SetOffset instead.
func (r *RTC) AddOffsetNs(deltaNs int64) {
	r.TimeOffset = NormalizeOffset(r.TimeOffset.Sec, r.TimeOffset.Ns+deltaNs)
}

// SetOffset overwrites the time-offset register outright.
func (r *RTC) SetOffset(o Offset) {
	r.TimeOffset = NormalizeOffset(o.Sec, o.Ns)
}

// Synchronized returns the synchronized view of time: the syntonized
// counter plus the time-offset register, normalized.
func (r *RTC) Synchronized() (sec int64, ns int64) {
	o := NormalizeOffset(int64(r.SecCnt)+r.TimeOffset.Sec, int64(math.Floor(r.NsCnt))+r.TimeOffset.Ns)
	return o.Sec, o.Ns
}

// CheckInvariants reports a fatal diag.Error if the RTC state has become
// corrupted (NaN counters, an ns component out of range).
func (r *RTC) CheckInvariants() error {
	if math.IsNaN(r.NsCnt) || math.IsInf(r.NsCnt, 0) {
		return diag.Newf(diag.InvariantViolation, "ns_cnt is %v", r.NsCnt)
	}
	if r.NsCnt < 0 || r.NsCnt >= 1e9 {
		return diag.Newf(diag.InvariantViolation, "ns_cnt %v out of [0, 1e9) after normalize", r.NsCnt)
	}
	return nil
}
