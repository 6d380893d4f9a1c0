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

// Package smoother implements the length-N moving-average filter reused by
// the delay estimator and the increment-value tuner: push a sample, get the
// filtered value back plus whether the filter's transient has completed
// (the ring is full at least once). The ring-buffer technique mirrors
// servo/pi.go's PiServoFilter, generalized to any numeric sample type.
package smoother

import (
	"container/ring"

	"golang.org/x/exp/constraints"
)

// Number is anything a running mean can be computed over.
type Number interface {
	constraints.Integer | constraints.Float
}

// Smoother is a fixed-length moving average over samples of type T.
type Smoother[T Number] struct {
	length int
	buf    *ring.Ring
	count  int
	sum    T
}

// New builds a Smoother with the given window length. Lengths below 1 are
// clamped to 1, which makes Push report the raw sample back immediately
// with post-transient true on every call (the filter-disabled case).
func New[T Number](length int) *Smoother[T] {
	if length < 1 {
		length = 1
	}
	return &Smoother[T]{length: length, buf: ring.New(length)}
}

// Push adds a sample and returns the current window average along with
// whether the window has been filled at least once (the transient is over).
func (s *Smoother[T]) Push(x T) (value T, postTransient bool) {
	if s.buf.Value != nil {
		s.sum -= s.buf.Value.(T)
	} else {
		s.count++
	}
	s.buf.Value = x
	s.sum += x
	s.buf = s.buf.Next()

	postTransient = s.count >= s.length
	if postTransient {
		return s.sum / T(s.length), true
	}
	return s.sum / T(s.count), false
}

// Len returns the configured window length.
func (s *Smoother[T]) Len() int { return s.length }
