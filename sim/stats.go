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

package sim

import "github.com/eclesh/welford"

// RunStats is the running mean/variance/stddev of one signal across a run,
// the same online-variance idiom fbclock/daemon/math.go uses welford for,
// repurposed here from a CLI formula helper into a first-class simulator
// diagnostic.
type RunStats struct {
	w     *welford.Stats
	count int
}

func newRunStats() *RunStats {
	return &RunStats{w: welford.New()}
}

func (r *RunStats) add(v float64) {
	r.w.Add(v)
	r.count++
}

// Mean is the running arithmetic mean.
func (r *RunStats) Mean() float64 { return r.w.Mean() }

// Variance is the running sample variance.
func (r *RunStats) Variance() float64 { return r.w.Variance() }

// Stddev is the running sample standard deviation.
func (r *RunStats) Stddev() float64 { return r.w.Stddev() }

// Count is the number of samples folded in so far.
func (r *RunStats) Count() int { return r.count }

// Stats bundles the three signals a convergence test typically asserts on.
type Stats struct {
	ActualNsError  *RunStats
	RawDelayNs     *RunStats
	FilteredDelayNs *RunStats
}

func newStats() Stats {
	return Stats{
		ActualNsError:   newRunStats(),
		RawDelayNs:      newRunStats(),
		FilteredDelayNs: newRunStats(),
	}
}
