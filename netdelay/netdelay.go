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

// Package netdelay generates per-frame one-way network delay samples for the
// simulator. Delays follow an Erlang-K distribution (a sum of K i.i.d.
// exponential stages), a common queueing-delay model: K controls how
// "peaky" vs. "smooth" the tail is while the mean stays fixed.
package netdelay

import "math/rand"

// Source produces one-way network delay samples, in nanoseconds.
type Source interface {
	NextDelayNs() float64
}

// Erlang draws delays from an Erlang-K distribution with a fixed mean. It is
// seeded explicitly so a run is reproducible given the same seed, matching
// the discrete-event simulator convention of a single owned *rand.Rand
// rather than the package-level global source.
type Erlang struct {
	rng    *rand.Rand
	meanNs float64
	k      int
}

// NewErlang builds a Source. k must be >= 1; k == 1 degenerates to a plain
// exponential distribution.
func NewErlang(seed int64, meanNs float64, k int) *Erlang {
	if k < 1 {
		k = 1
	}
	return &Erlang{
		rng:    rand.New(rand.NewSource(seed)),
		meanNs: meanNs,
		k:      k,
	}
}

// NextDelayNs returns the next sampled one-way delay, the sum of k
// exponential draws each with mean meanNs/k, so the overall mean stays
// meanNs regardless of k.
func (e *Erlang) NextDelayNs() float64 {
	stageMean := e.meanNs / float64(e.k)
	var sum float64
	for i := 0; i < e.k; i++ {
		sum += e.rng.ExpFloat64() * stageMean
	}
	return sum
}

// Fixed is a zero-variance Source, used for deterministic tests and for the
// "perfect delay estimation" debug mode where the true delay must be known
// exactly rather than sampled.
type Fixed struct {
	DelayNs float64
}

// NextDelayNs always returns DelayNs.
func (f Fixed) NextDelayNs() float64 { return f.DelayNs }
