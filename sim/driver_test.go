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

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ptpsim/diag"
	"github.com/facebookincubator/ptpsim/rtc"
	"github.com/facebookincubator/ptpsim/selector"
	"github.com/facebookincubator/ptpsim/stage"
)

func baseConfig() Config {
	return Config{
		Master: rtc.Config{NominalFreqHz: 125e6},
		Slave:  rtc.Config{NominalFreqHz: 125e6},

		SyncRateHz:      1000,
		PdelayReqRateHz: 1000,

		NetDelayK:    1,
		NetDelaySeed: 1,

		DelayFilterEnabled: true,
		DelayFilterLen:     4,

		Stages: [5]stage.StageConfig{
			stage.CoarseSynt: {WindowLen: 4, Strategy: selector.Mean},
			stage.FineSynt:   {WindowLen: 8, Strategy: selector.LS},
			stage.ConstToff:  {WindowLen: 8, Strategy: selector.Mean},
		},
		RTCIncEstPeriod:  1,
		FoffsetThreshPPB: 1000,

		PacketSelection: true,
		TStep:           1e-9,
	}
}

// requireOutput fails t with a go-spew dump of the mismatched Output, the
// same pairing sim tests use go-spew for alongside a plain require check.
func requireOutput(t *testing.T, cond bool, out Output, msgAndArgs ...any) {
	t.Helper()
	if !cond {
		t.Fatalf("assertion failed on output: %s\n%v", spew.Sdump(out), msgAndArgs)
	}
}

func TestZeroPPBZeroDelayConvergesWithinOneTransient(t *testing.T) {
	cfg := baseConfig()
	cfg.NetDelayMeanNs = 0
	cfg.DelayFilterEnabled = false
	cfg.DelayFilterLen = 1
	cfg.PacketSelection = false
	// Slave starts five whole seconds ahead of the master; DELAY_EST must
	// correct this step offset on its very first sample.
	cfg.Slave.InitTimeSec = 5

	d, err := NewDriver(cfg)
	require.NoError(t, err)

	outputs, err := d.Run(500)
	require.NoError(t, err)
	require.NotEmpty(t, outputs)

	last := outputs[len(outputs)-1]
	requireOutput(t, math.Abs(float64(last.ActualNsError)) < 1000, last,
		"synchronized error should be within ~1us of zero once the multi-second step offset is corrected")
}

func TestStochasticDelayAdvancesPastDelayEstimation(t *testing.T) {
	cfg := baseConfig()
	cfg.NetDelayMeanNs = 5000
	cfg.NetDelayK = 2

	d, err := NewDriver(cfg)
	require.NoError(t, err)

	outputs, err := d.Run(5000)
	require.NoError(t, err)

	last := outputs[len(outputs)-1]
	requireOutput(t, last.Stage >= stage.CoarseSynt, last, "stage should advance past DELAY_EST once the delay filter completes its transient")

	for _, diagEvt := range d.Diagnostics {
		require.NotEqual(t, diag.InvariantViolation, diagEvt.Kind, "no invariant violation should occur for a well-formed config")
	}
}

func TestExcessiveFrequencyOffsetSticksAtCoarseSyntAndWarns(t *testing.T) {
	cfg := baseConfig()
	cfg.NetDelayMeanNs = 0
	cfg.DelayFilterEnabled = false
	cfg.DelayFilterLen = 1
	cfg.Slave.FreqOffsetPPB = 5_000_000 // far beyond FoffsetThreshPPB
	cfg.FoffsetThreshPPB = 1000

	d, err := NewDriver(cfg)
	require.NoError(t, err)

	outputs, err := d.Run(4000)
	require.NoError(t, err)

	last := outputs[len(outputs)-1]
	requireOutput(t, last.Stage == stage.CoarseSynt, last, "an offset this far past threshold is discarded every time, so the controller never advances to FINE_SYNT")

	var sawDiscard bool
	for _, diagEvt := range d.Diagnostics {
		if diagEvt.Kind == diag.TransientDiscard {
			sawDiscard = true
		}
	}
	require.True(t, sawDiscard, "the increment tuner should have reported at least one discard")
}

func TestFixedPointEnabledRunsWithoutInvariantViolation(t *testing.T) {
	cfg := baseConfig()
	cfg.NetDelayMeanNs = 2000
	cfg.NetDelayK = 1
	cfg.Slave.FreqOffsetPPB = 50
	cfg.FixedPointEnabled = true
	cfg.FPIntBits = 26
	cfg.FPFrcBits = 20
	cfg.RTCIncFilterEnabled = true
	cfg.RTCIncFilterLen = 2

	d, err := NewDriver(cfg)
	require.NoError(t, err)

	outputs, err := d.Run(3000)
	require.NoError(t, err)
	require.NotEmpty(t, outputs)

	for _, diagEvt := range d.Diagnostics {
		require.NotEqual(t, diag.InvariantViolation, diagEvt.Kind)
	}
}

func TestInvalidConfigRejectedAtConstruction(t *testing.T) {
	cfg := baseConfig()
	cfg.SyncRateHz = 0
	_, err := NewDriver(cfg)
	require.Error(t, err)
}

func TestRunStatsAccumulateAcrossIterations(t *testing.T) {
	cfg := baseConfig()
	cfg.NetDelayMeanNs = 1000

	d, err := NewDriver(cfg)
	require.NoError(t, err)

	_, err = d.Run(200)
	require.NoError(t, err)

	stats := d.ErrorStats()
	require.Greater(t, stats.ActualNsError.Count(), 0)
	require.Greater(t, stats.RawDelayNs.Count(), 0)
}
