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

package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityQuantizerPassesThrough(t *testing.T) {
	q := New(false, 26, 20)
	v, sat := q.Quantize(123.456789)
	require.Equal(t, 123.456789, v)
	require.False(t, sat)
	require.Zero(t, q.Resolution())
}

func TestUQRoundsToNearestTiesToEven(t *testing.T) {
	q := New(true, 8, 1) // resolution 0.5
	cases := []struct {
		in   float64
		want float64
	}{
		{0.24, 0.0},
		{0.26, 0.5},
		{0.25, 0.0}, // tie rounds to even level (0)
		{0.75, 1.0}, // tie rounds to even level (raw count 1.5 -> even count 2 -> 1.0)
	}
	for _, c := range cases {
		v, sat := q.Quantize(c.in)
		require.False(t, sat)
		require.InDelta(t, c.want, v, 1e-9)
	}
}

func TestUQClampsAndReportsSaturation(t *testing.T) {
	q := New(true, 2, 0) // max representable level 3
	v, sat := q.Quantize(-1)
	require.True(t, sat)
	require.Equal(t, 0.0, v)

	v, sat = q.Quantize(100)
	require.True(t, sat)
	require.Equal(t, 3.0, v)
}

func TestResolutionMatchesFractionalBits(t *testing.T) {
	q := New(true, 26, 20).(UQ)
	require.InDelta(t, 1.0/1048576.0, q.Resolution(), 1e-15)
}
