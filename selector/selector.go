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

// Package selector reduces a window of raw offset samples into a single
// selected (sec, ns, slope) estimate, either by arithmetic mean or by
// ordinary least squares. Samples carry a sec component that is a plain,
// never-wrapping integer throughout a run (rtc.Timestamp.Sec is not modular
// arithmetic), so a window spanning multiple seconds reduces correctly
// without extra unwrap logic: see DESIGN.md for why this sidesteps the
// multi-second-window caveat entirely at this layer.
package selector

import "math"

// Strategy picks the reduction function applied to a full window.
type Strategy uint8

const (
	Mean Strategy = iota
	LS
)

// Config configures one window of selection.
type Config struct {
	WindowLen int
	Strategy  Strategy
}

// Result is the selected estimate for one completed window: a (sec, ns)
// offset sample and a slope B expressed in nanoseconds of drift per elapsed
// SYNC sample.
type Result struct {
	Sec int64
	Ns  int64
	B   float64
}

type sample struct {
	total float64 // unwrapped signed ns relative to the window's base sec
	t     float64 // elapsed master-side ns since the window's first sample
}

// Selector accumulates samples for the active window and reduces once full.
type Selector struct {
	syncPeriodNs float64
	cfg          Config
	buf          []sample
	baseSec      int64
	tStart       float64
}

// New builds a Selector. syncPeriodNs is the nominal SYNC interval in
// nanoseconds (1e9 / sync_rate), used to convert the LS strategy's raw
// per-ns slope into the shared "per sample" unit both strategies report.
func New(syncPeriodNs float64) *Selector {
	return &Selector{syncPeriodNs: syncPeriodNs}
}

// Reconfigure switches window length/strategy (e.g. on a stage transition)
// and discards any partial window.
func (s *Selector) Reconfigure(cfg Config) {
	s.cfg = cfg
	s.buf = s.buf[:0]
}

// WindowIndex reports how many samples are buffered in the active window,
// i.e. the index the next Push will occupy (0 means the window is empty, so
// the next Push is the first sample of a new window).
func (s *Selector) WindowIndex() int { return len(s.buf) }

// Push adds one offset sample. masterTotalNs is the master-side elapsed
// time (in ns, unwrapped) used as the LS regression's time axis. When
// applySlope is set, toffsetSlope*index is subtracted from the sample
// before it is buffered (the CONST_TOFF pre-subtraction step). It returns
// the window's Result and true once the window fills, resetting internally
// for the next window.
func (s *Selector) Push(sec, ns int64, masterTotalNs float64, applySlope bool, toffsetSlope float64) (Result, bool) {
	if len(s.buf) == 0 {
		s.baseSec = sec
		s.tStart = masterTotalNs
	}
	idx := len(s.buf) + 1
	adjNs := ns
	if applySlope {
		adjNs -= int64(math.Round(toffsetSlope * float64(idx)))
	}

	total := float64(sec-s.baseSec)*1e9 + float64(adjNs)
	t := masterTotalNs - s.tStart
	s.buf = append(s.buf, sample{total: total, t: t})

	if len(s.buf) < s.cfg.WindowLen {
		return Result{}, false
	}

	var res Result
	switch s.cfg.Strategy {
	case LS:
		res = s.reduceLS()
	default:
		res = s.reduceMean()
	}
	s.buf = s.buf[:0]
	return res, true
}

// reduceMean returns the window's arithmetic mean as the offset; its slope B
// is the mean of the first differences of successive samples (ns per sample).
func (s *Selector) reduceMean() Result {
	n := len(s.buf)
	var sum float64
	for _, e := range s.buf {
		sum += e.total
	}
	meanTotal := sum / float64(n)

	var bSum float64
	for i := 1; i < n; i++ {
		bSum += s.buf[i].total - s.buf[i-1].total
	}
	var b float64
	if n > 1 {
		b = bSum / float64(n-1)
	}

	sec, ns := splitTotal(meanTotal)
	return Result{Sec: s.baseSec + sec, Ns: ns, B: b}
}

func (s *Selector) reduceLS() Result {
	n := float64(len(s.buf))
	var sumT, sumX, sumTX, sumTT float64
	for _, e := range s.buf {
		sumT += e.t
		sumX += e.total
		sumTX += e.t * e.total
		sumTT += e.t * e.t
	}

	denom := n*sumTT - sumT*sumT
	var bPerNs float64
	if denom != 0 {
		bPerNs = (n*sumTX - sumT*sumX) / denom
	}
	a := (sumX - bPerNs*sumT) / n

	sec, ns := splitTotal(a)
	return Result{Sec: s.baseSec + sec, Ns: ns, B: bPerNs * s.syncPeriodNs}
}

func splitTotal(v float64) (sec, ns int64) {
	sec = int64(math.Floor(v / 1e9))
	ns = int64(math.Round(v - float64(sec)*1e9))
	if ns >= 1_000_000_000 {
		ns -= 1_000_000_000
		sec++
	}
	return sec, ns
}
