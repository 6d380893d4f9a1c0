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
	"github.com/facebookincubator/ptpsim/diag"
	"github.com/facebookincubator/ptpsim/rtc"
	"github.com/facebookincubator/ptpsim/stage"
)

// Config is the simulation's external interface: every knob an operator or
// test harness sets before a run, as a plain struct per the teacher's
// ptp4u/server/config.go convention (config-file parsing is out of scope,
// so there is no loader here, only validation).
type Config struct {
	Master rtc.Config
	Slave  rtc.Config

	SyncRateHz      float64
	PdelayReqRateHz float64

	NetDelayMeanNs float64
	NetDelayK      int
	NetDelaySeed   int64

	DelayFilterEnabled bool
	DelayFilterLen     int

	FixedPointEnabled bool
	FPIntBits         uint
	FPFrcBits         uint

	RTCIncFilterEnabled bool
	RTCIncFilterLen     int

	// Stages is indexed by stage.Stage; index 0 is unused. Stages[DelayEst]
	// configures DELAY_EST's own (W1,S1) selector window, applied on the
	// toffset_corr_strobe cadence; leaving it at the zero value selects on
	// every SYNC RX (W1=1), matching the common case of a step correction
	// that should land as soon as possible.
	Stages           [5]stage.StageConfig
	RTCIncEstPeriod  int
	FoffsetThreshPPB float64

	PacketSelection bool
	SampleWinDelay  bool
	PerfectDelayEst bool

	// TStep is the fixed advance applied when the event queue runs dry,
	// which should not happen in a correctly configured run; it exists so
	// a misconfiguration is a logged anomaly rather than a deadlock.
	TStep float64
}

// Validate rejects illegal configuration up front, matching the teacher's
// ptp4u/server/config.go fail-fast convention.
func (c Config) Validate() error {
	if c.Master.NominalFreqHz <= 0 || c.Slave.NominalFreqHz <= 0 {
		return diag.Newf(diag.ConfigError, "nominal frequency must be positive")
	}
	if c.SyncRateHz <= 0 || c.PdelayReqRateHz <= 0 {
		return diag.Newf(diag.ConfigError, "sync and pdelay_req rates must be positive")
	}
	if c.NetDelayMeanNs < 0 {
		return diag.Newf(diag.ConfigError, "network delay mean must be non-negative")
	}
	if c.NetDelayK < 1 {
		return diag.Newf(diag.ConfigError, "network delay erlang k must be >= 1")
	}
	if c.DelayFilterEnabled && c.DelayFilterLen < 1 {
		return diag.Newf(diag.ConfigError, "delay filter length must be >= 1 when enabled")
	}
	if c.RTCIncFilterEnabled && c.RTCIncFilterLen < 1 {
		return diag.Newf(diag.ConfigError, "rtc increment filter length must be >= 1 when enabled")
	}
	if c.FixedPointEnabled && c.FPIntBits+c.FPFrcBits == 0 {
		return diag.Newf(diag.ConfigError, "fixed point bit width must be > 0 when enabled")
	}
	if c.RTCIncEstPeriod < 1 {
		return diag.Newf(diag.ConfigError, "rtc_inc_est_period must be >= 1")
	}
	if c.TStep <= 0 {
		return diag.Newf(diag.ConfigError, "t_step must be positive")
	}
	for s := stage.CoarseSynt; s <= stage.ConstToff; s++ {
		if c.Stages[s].WindowLen < 1 {
			return diag.Newf(diag.ConfigError, "stage %s window length must be >= 1", s)
		}
	}
	return nil
}
