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

// Package delayest computes the one-way delay estimate from a completed
// peer-delay exchange and smooths it with a moving average, mirroring the
// (ClientToServerDiff+ServerToClientDiff)/2 structure of
// ptp/simpleclient/measurements.go's latest().
package delayest

import (
	"math"

	"github.com/facebookincubator/ptpsim/ptpmsg"
	"github.com/facebookincubator/ptpsim/smoother"
)

// Estimator filters successive raw delay samples.
type Estimator struct {
	filt *smoother.Smoother[float64]
}

// New builds an Estimator. When filterEnabled is false the window length is
// forced to 1, so the filter reports post-transient immediately and the
// filtered value equals the raw sample.
func New(filterEnabled bool, length int) *Estimator {
	if !filterEnabled {
		length = 1
	}
	return &Estimator{filt: smoother.New[float64](length)}
}

// Update folds in one completed Pdelay exchange. It returns both the raw
// (unfiltered) sample and the filter's current window average (floored to
// whole ns), plus whether the filter's transient has completed (the window
// is full at least once). rawNs is always the bare sample; filteredNs is a
// partial-window average before the transient completes and the full-window
// average after.
func (e *Estimator) Update(s ptpmsg.PdelaySample) (rawNs, filteredNs float64, postTransient bool) {
	dms := float64(int64(s.T4.Ns) - int64(s.T1.Ns))
	if dms < 0 {
		dms += 1e9
	}
	dsm := float64(int64(s.T3.Ns) - int64(s.T2.Ns))
	if dsm < 0 {
		dsm += 1e9
	}
	raw := (dms - dsm) / 2

	filtered, post := e.filt.Push(raw)
	return math.Floor(raw), math.Floor(filtered), post
}
