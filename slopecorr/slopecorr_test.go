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

package slopecorr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepAccumulatesFractionalSlope(t *testing.T) {
	c := New(0.3)
	require.Equal(t, int64(0), c.Step()) // accum 0.3, floor 0
	require.Equal(t, int64(0), c.Step()) // accum 0.6, floor 0
	require.Equal(t, int64(0), c.Step()) // accum 0.9, floor 0
	require.Equal(t, int64(1), c.Step()) // accum 1.2, floor 1
}

func TestAppliedNeverDriftsMoreThanOneNsFromTrueAccumulator(t *testing.T) {
	c := New(0.37)
	var totalApplied int64
	for i := 0; i < 500; i++ {
		totalApplied += c.Step()
		require.Less(t, math.Abs(c.Unapplied()), 1.0)
	}
}

func TestNegativeSlopeAccumulatesNegativeCorrections(t *testing.T) {
	c := New(-0.6)
	d1 := c.Step() // accum -0.6, floor -1
	d2 := c.Step() // accum -1.2, floor -2
	require.Equal(t, int64(-1), d1)
	require.Equal(t, int64(-1), d2)
}
