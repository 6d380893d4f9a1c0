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

// Package stage is the sync-stage controller: the orchestrator that wires
// the delay estimator, offset estimator, packet selector, increment tuner
// and slope corrector together into the four-stage DELAY_EST -> COARSE_SYNT
// -> FINE_SYNT -> CONST_TOFF state machine. Stage configuration lives in an
// array indexed by the Stage enum rather than four parallel named fields.
package stage

import (
	"fmt"
	"math"

	"github.com/facebookincubator/ptpsim/diag"
	"github.com/facebookincubator/ptpsim/offsetest"
	"github.com/facebookincubator/ptpsim/ptpmsg"
	"github.com/facebookincubator/ptpsim/rtc"
	"github.com/facebookincubator/ptpsim/selector"
	"github.com/facebookincubator/ptpsim/slopecorr"
	"github.com/facebookincubator/ptpsim/tuner"
)

// Stage is the sync/syntonization state, strictly monotone over a run.
type Stage uint8

const (
	DelayEst Stage = iota + 1
	CoarseSynt
	FineSynt
	ConstToff
)

func (s Stage) String() string {
	switch s {
	case DelayEst:
		return "DELAY_EST"
	case CoarseSynt:
		return "COARSE_SYNT"
	case FineSynt:
		return "FINE_SYNT"
	case ConstToff:
		return "CONST_TOFF"
	default:
		return "UNKNOWN"
	}
}

// StageConfig is one stage's packet-selection window/strategy.
type StageConfig struct {
	WindowLen int
	Strategy  selector.Strategy
}

// Config parameterizes a Controller. Stages is indexed by the Stage enum;
// index 0 is unused.
type Config struct {
	Stages          [5]StageConfig
	RTCIncEstPeriod int
	SyncPeriodNs    float64
	PacketSelection bool
	SampleWinDelay  bool
	PerfectDelayEst bool
}

// DelayEstimator is the subset of delayest.Estimator the controller needs;
// accepting it as an interface lets controller tests substitute a mock.
type DelayEstimator interface {
	Update(s ptpmsg.PdelaySample) (rawNs, filteredNs float64, postTransient bool)
}

// IncrementTuner is the subset of tuner.Tuner the controller needs.
type IncrementTuner interface {
	Update(masterNsCur, masterNsPrev, slaveNsCur, slaveNsPrev int64, currentIncValNs float64) tuner.Result
}

// Controller drives the four-stage state machine from completed SYNC and
// Pdelay exchanges.
type Controller struct {
	cfg       Config
	stage     Stage
	sel       *selector.Selector
	offsetEst *offsetest.Estimator
	delayEst  DelayEstimator
	tun       IncrementTuner
	slope     *slopecorr.Corrector

	master *rtc.RTC
	slave  *rtc.RTC

	lastDelayNs            float64
	lastRawDelayNs         float64
	lastFilteredDelayNs    float64
	lastTrueDelayNs        float64
	lastDelayPostTransient bool

	lastNormFreqOffsetPPB float64

	haveIncBaseline       bool
	baselineMasterNs      int64
	baselineSlaveNs       int64
	selectionsSinceIncEst int

	toffsetSlope float64

	Diagnostics []diag.Event
	iteration   uint64
}

// New builds a Controller starting in DELAY_EST. DELAY_EST runs packet
// selection the same as every other stage, keyed off cfg.Stages[DelayEst];
// a caller that leaves that entry at its zero value gets WindowLen 0, which
// degenerates to selecting on every single SYNC RX (the W1=1 default).
func New(cfg Config, master, slave *rtc.RTC, delayEst DelayEstimator, tun IncrementTuner) *Controller {
	c := &Controller{
		cfg:       cfg,
		stage:     DelayEst,
		sel:       selector.New(cfg.SyncPeriodNs),
		offsetEst: &offsetest.Estimator{},
		delayEst:  delayEst,
		tun:       tun,
		master:    master,
		slave:     slave,
	}
	c.sel.Reconfigure(selector.Config{WindowLen: cfg.Stages[DelayEst].WindowLen, Strategy: cfg.Stages[DelayEst].Strategy})
	return c
}

// Stage returns the current stage.
func (c *Controller) Stage() Stage { return c.stage }

// LastDelayNs returns the one-way delay estimate currently used to
// compensate offset samples: raw before the delay filter's transient
// completes, filtered after.
func (c *Controller) LastDelayNs() float64 { return c.lastDelayNs }

// LastRawDelayNs returns the most recent unfiltered one-way delay sample.
func (c *Controller) LastRawDelayNs() float64 { return c.lastRawDelayNs }

// LastFilteredDelayNs returns the delay filter's current window average.
func (c *Controller) LastFilteredDelayNs() float64 { return c.lastFilteredDelayNs }

// LastDelayPostTransient reports whether the delay estimator's filter has
// completed its transient.
func (c *Controller) LastDelayPostTransient() bool { return c.lastDelayPostTransient }

// LastNormFreqOffsetPPB returns the most recently computed normalized
// frequency offset from the increment tuner's last estimation period
// (zero until the first COARSE_SYNT period completes).
func (c *Controller) LastNormFreqOffsetPPB() float64 { return c.lastNormFreqOffsetPPB }

// HandlePdelayComplete folds in a finished peer-delay exchange. The
// resulting estimate is cached and used by every SYNC RX until the next one
// completes; SYNC and Pdelay exchanges run at independent, asynchronous
// rates.
func (c *Controller) HandlePdelayComplete(s ptpmsg.PdelaySample) {
	raw, filtered, post := c.delayEst.Update(s)
	c.lastRawDelayNs = raw
	c.lastFilteredDelayNs = filtered
	c.lastDelayPostTransient = post
	c.lastDelayNs = raw
	if post {
		c.lastDelayNs = filtered
	}
}

// HandleSyncRx folds in one completed SYNC exchange and advances the state
// machine as appropriate. iteration is recorded on any diagnostic emitted.
func (c *Controller) HandleSyncRx(iteration uint64, s ptpmsg.SyncSample) error {
	c.iteration = iteration
	c.lastTrueDelayNs = s.TrueDelayNs
	masterTotalNs := float64(s.T1.Sec)*1e9 + float64(s.T1.Ns)

	switch c.stage {
	case DelayEst:
		return c.handleDelayEst(s, masterTotalNs)
	case CoarseSynt, FineSynt:
		return c.handleWindowed(s, masterTotalNs)
	case ConstToff:
		return c.handleConstToff(s, masterTotalNs)
	default:
		return nil
	}
}

// handleDelayEst writes the offset register on the toffset_corr_strobe
// cadence: every W1 SYNC RXs through the (W1,S1) selector window, the same
// selectSample path the windowed stages use (W1=1, the zero-value default,
// degenerates to every SYNC RX).
func (c *Controller) handleDelayEst(s ptpmsg.SyncSample, masterTotalNs float64) error {
	firstOfWindow := c.cfg.PacketSelection && c.sel.WindowIndex() == 0
	os := c.offsetEst.Update(s, c.lastDelayNs, s.TrueDelayNs, c.cfg.PerfectDelayEst, c.cfg.SampleWinDelay, firstOfWindow)

	res, full := c.selectSample(os, masterTotalNs, false)
	if full {
		c.slave.SetOffset(rtc.Offset{Sec: res.Sec, Ns: res.Ns})
	}

	if c.lastDelayPostTransient {
		c.advanceTo(CoarseSynt)
	}
	return nil
}

// selectSample folds one raw offset sample into the active window, or, when
// packet selection is disabled, treats every sample as its own window of
// size 1 (the toffset_corr_strobe/rtc_inc_est_strobe-every-SYNC-RX mode).
func (c *Controller) selectSample(os offsetest.Sample, masterTotalNs float64, applySlope bool) (selector.Result, bool) {
	if !c.cfg.PacketSelection {
		return selector.Result{Sec: os.Sec, Ns: os.Ns, B: 0}, true
	}
	return c.sel.Push(os.Sec, os.Ns, masterTotalNs, applySlope, c.toffsetSlope)
}

func (c *Controller) handleWindowed(s ptpmsg.SyncSample, masterTotalNs float64) error {
	firstOfWindow := c.cfg.PacketSelection && c.sel.WindowIndex() == 0
	os := c.offsetEst.Update(s, c.lastDelayNs, s.TrueDelayNs, c.cfg.PerfectDelayEst, c.cfg.SampleWinDelay, firstOfWindow)

	res, full := c.selectSample(os, masterTotalNs, false)
	if !full {
		return nil
	}

	// Full sec*1e9+ns totals, so the tuner's intervals stay unwrapped across
	// seconds even when a selection baseline spans more than one second.
	masterNs := int64(s.T1.Sec)*1_000_000_000 + int64(s.T1.Ns)
	slaveNs := masterNs - (res.Sec*1_000_000_000 + res.Ns)

	if c.stage == FineSynt {
		c.toffsetSlope = res.B
		c.advanceTo(ConstToff)
		return nil
	}

	return c.handleCoarseSelection(masterNs, slaveNs)
}

// handleCoarseSelection drives the increment tuner over a baseline spanning
// rtc_inc_est_period selections (not rtc_inc_est_period SYNC RXs), so a
// longer estimation period gives the frequency estimate a longer baseline.
func (c *Controller) handleCoarseSelection(masterNs, slaveNs int64) error {
	if !c.haveIncBaseline {
		c.baselineMasterNs, c.baselineSlaveNs = masterNs, slaveNs
		c.haveIncBaseline = true
		c.selectionsSinceIncEst = 0
		return nil
	}
	c.selectionsSinceIncEst++
	if c.selectionsSinceIncEst < c.cfg.RTCIncEstPeriod {
		return nil
	}

	tr := c.tun.Update(masterNs, c.baselineMasterNs, slaveNs, c.baselineSlaveNs, c.slave.IncValNs)
	c.lastNormFreqOffsetPPB = tr.NormFreqOffsetPPB
	c.baselineMasterNs, c.baselineSlaveNs = masterNs, slaveNs
	c.selectionsSinceIncEst = 0

	if tr.Discarded {
		c.diagf(diag.TransientDiscard, "increment tuner discarded frequency offset %.3f ppb", tr.NormFreqOffsetPPB)
		return nil
	}
	if tr.Saturated {
		c.diagf(diag.FixedPointSaturation, "increment value saturated at %v ns", tr.NewIncValNs)
	}
	if err := c.slave.SetIncVal(tr.NewIncValNs); err != nil {
		return err
	}

	if math.Abs(tr.NormFreqOffsetPPB) < tr.ResPPB/2 {
		c.advanceTo(FineSynt)
	}
	return nil
}

func (c *Controller) handleConstToff(s ptpmsg.SyncSample, masterTotalNs float64) error {
	firstOfWindow := c.cfg.PacketSelection && c.sel.WindowIndex() == 0
	os := c.offsetEst.Update(s, c.lastDelayNs, s.TrueDelayNs, c.cfg.PerfectDelayEst, c.cfg.SampleWinDelay, firstOfWindow)

	res, full := c.selectSample(os, masterTotalNs, true)
	if full {
		c.slave.SetOffset(rtc.Offset{Sec: res.Sec, Ns: res.Ns})
	}

	if c.slope != nil {
		c.slave.AddOffsetNs(c.slope.Step())
	}
	return nil
}

func (c *Controller) advanceTo(next Stage) {
	if next <= c.stage {
		return
	}
	c.stage = next
	sc := c.cfg.Stages[next]
	c.sel.Reconfigure(selector.Config{WindowLen: sc.WindowLen, Strategy: sc.Strategy})
	c.selectionsSinceIncEst = 0
	c.haveIncBaseline = false
	c.offsetEst.ResetHold()
	if next == ConstToff {
		c.slope = slopecorr.New(c.toffsetSlope)
	}
}

func (c *Controller) diagf(kind diag.Kind, format string, args ...any) {
	c.Diagnostics = append(c.Diagnostics, diag.Event{Kind: kind, Iteration: c.iteration, Detail: fmt.Sprintf(format, args...)})
}
