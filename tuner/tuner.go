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

// Package tuner computes the increment-value register adjustment that
// syntonizes the slave RTC to the master's frequency, using the interval
// ratio between two selected SYNC instants bracketing an estimation period.
package tuner

import (
	"math"

	"github.com/facebookincubator/ptpsim/fixedpoint"
	"github.com/facebookincubator/ptpsim/smoother"
)

// Config parameterizes a Tuner.
type Config struct {
	NominalFreqHz    float64
	FoffsetThreshPPB float64
	Quantizer        fixedpoint.Quantizer
	// FilterEnabled/FilterLen configure the post-quantization moving
	// average over committed increment values (rtc_inc_filt_len). When
	// disabled, the window length is forced to 1 so every estimate is
	// reported post-transient immediately.
	FilterEnabled bool
	FilterLen     int
}

// Tuner computes the next increment-value register setting.
type Tuner struct {
	cfg             Config
	nominalPeriodNs float64
	filt            *smoother.Smoother[float64]
}

// New builds a Tuner.
func New(cfg Config) *Tuner {
	length := cfg.FilterLen
	if !cfg.FilterEnabled || length < 1 {
		length = 1
	}
	return &Tuner{cfg: cfg, nominalPeriodNs: 1e9 / cfg.NominalFreqHz, filt: smoother.New[float64](length)}
}

// Result is the outcome of one tuning step.
type Result struct {
	NewIncValNs       float64
	NormFreqOffsetPPB float64
	ResPPB            float64
	Saturated         bool
	Discarded         bool
}

// Update computes the tuning adjustment from two bracketing SYNC instants'
// master-side and slave-estimated times in ns. A negative interval is
// corrected once by adding 1e9 (a single ns wrap); the stage controller
// passes full sec*1e9+ns totals, so its intervals are never negative.
// currentIncValNs is the RTC's present increment register value, the
// baseline this step adjusts.
func (t *Tuner) Update(masterNsCur, masterNsPrev, slaveNsCur, slaveNsPrev int64, currentIncValNs float64) Result {
	masterInterval := float64(masterNsCur - masterNsPrev)
	if masterInterval < 0 {
		masterInterval += 1e9
	}
	slaveInterval := float64(slaveNsCur - slaveNsPrev)
	if slaveInterval < 0 {
		slaveInterval += 1e9
	}

	if masterInterval == 0 {
		return Result{NewIncValNs: currentIncValNs, Discarded: true}
	}

	slaveErrorNs := slaveInterval - masterInterval
	normFreqOffset := slaveErrorNs / masterInterval
	normFreqOffsetPPB := normFreqOffset * 1e9

	resPPB := t.resPPB()

	if math.Abs(normFreqOffsetPPB) > t.cfg.FoffsetThreshPPB {
		return Result{
			NormFreqOffsetPPB: normFreqOffsetPPB,
			ResPPB:            resPPB,
			NewIncValNs:       currentIncValNs,
			Discarded:         true,
		}
	}

	candidate := currentIncValNs * (masterInterval / slaveInterval)
	quantized, saturated := t.cfg.Quantizer.Quantize(candidate)

	filtered, post := t.filt.Push(quantized)
	newIncValNs := quantized
	if post {
		newIncValNs = filtered
	}

	return Result{
		NewIncValNs:       newIncValNs,
		NormFreqOffsetPPB: normFreqOffsetPPB,
		ResPPB:            resPPB,
		Saturated:         saturated,
	}
}

// resPPB is the minimum frequency step the quantizer can express, in ppb:
// the ppb difference between the nominal frequency and the frequency one
// quantization step away from it.
func (t *Tuner) resPPB() float64 {
	resolution := t.cfg.Quantizer.Resolution()
	if resolution == 0 {
		return 0
	}
	closerPeriodNs := t.nominalPeriodNs + resolution
	closerFreqHz := 1e9 / closerPeriodNs
	return (t.cfg.NominalFreqHz - closerFreqHz) / t.cfg.NominalFreqHz * 1e9
}
