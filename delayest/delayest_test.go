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

package delayest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ptpsim/ptpmsg"
	"github.com/facebookincubator/ptpsim/rtc"
)

func sampleFor(delayNs int64) ptpmsg.PdelaySample {
	// t2-t1 = delay, t4-t3 = delay: d_ms = 100000+delay, d_sm = 100000-delay,
	// so raw = (d_ms-d_sm)/2 = delay.
	return ptpmsg.PdelaySample{
		T1: rtc.Timestamp{Sec: 0, Ns: 0},
		T2: rtc.Timestamp{Sec: 0, Ns: uint32(delayNs)},
		T3: rtc.Timestamp{Sec: 0, Ns: 100000},
		T4: rtc.Timestamp{Sec: 0, Ns: uint32(100000 + delayNs)},
	}
}

func TestFilterDisabledReportsRawImmediately(t *testing.T) {
	e := New(false, 8)
	raw, filtered, post := e.Update(sampleFor(3000))
	require.True(t, post)
	require.Equal(t, 3000.0, raw)
	require.Equal(t, 3000.0, filtered)
}

func TestFilterReportsPartialAverageUntilTransientCompletes(t *testing.T) {
	e := New(true, 3)
	raw, filtered, post := e.Update(sampleFor(1000))
	require.False(t, post)
	require.Equal(t, 1000.0, raw)
	require.InDelta(t, 1000.0, filtered, 1e-9)

	raw, filtered, post = e.Update(sampleFor(2000))
	require.False(t, post)
	require.Equal(t, 2000.0, raw)
	require.InDelta(t, 1500.0, filtered, 1e-9)

	raw, filtered, post = e.Update(sampleFor(3000))
	require.True(t, post)
	require.Equal(t, 3000.0, raw)
	require.InDelta(t, 2000.0, filtered, 1e-9)
}

func TestDmsWrapsNegativeDifference(t *testing.T) {
	e := New(false, 1)
	s := ptpmsg.PdelaySample{
		T1: rtc.Timestamp{Sec: 0, Ns: 999_999_900},
		T2: rtc.Timestamp{Sec: 1, Ns: 100},
		T3: rtc.Timestamp{Sec: 1, Ns: 500},
		T4: rtc.Timestamp{Sec: 1, Ns: 500},
	}
	// dms = t4.Ns-t1.Ns = 500-999999900, wraps to 600; dsm = t3.Ns-t2.Ns = 400
	raw, filtered, _ := e.Update(s)
	require.Equal(t, 100.0, raw)
	require.Equal(t, 100.0, filtered)
}
