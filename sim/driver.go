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

// Package sim is the top-level discrete-event simulation driver: the single
// owning struct for both RTCs, the event queue, the message engine and the
// sync-stage controller, per the "bundle global mutable state into one
// owning struct" design. Nothing here is goroutine-safe by intent; the
// driver runs one iteration at a time on the caller's goroutine, matching
// the cooperative, single-threaded concurrency model.
package sim

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/ptpsim/delayest"
	"github.com/facebookincubator/ptpsim/diag"
	"github.com/facebookincubator/ptpsim/eventqueue"
	"github.com/facebookincubator/ptpsim/fixedpoint"
	"github.com/facebookincubator/ptpsim/netdelay"
	"github.com/facebookincubator/ptpsim/ptpmsg"
	"github.com/facebookincubator/ptpsim/rtc"
	"github.com/facebookincubator/ptpsim/stage"
	"github.com/facebookincubator/ptpsim/tuner"
)

// Output is one iteration's external-interface sample: the
// (t_sim, actual_ns_error, norm_freq_offset_to_nominal, raw_delay_est,
// filtered_delay_est, stage) tuple from the EXTERNAL INTERFACES output
// tuple, plus Iteration/IncValNs as additive bookkeeping.
type Output struct {
	Iteration         uint64
	TSim              float64
	Stage             stage.Stage
	ActualNsError     int64
	NormFreqOffsetPPB float64
	RawDelayNs        float64
	FilteredDelayNs   float64
	IncValNs          float64
}

// Driver owns every piece of mutable simulation state.
type Driver struct {
	cfg Config

	master *rtc.RTC
	slave  *rtc.RTC
	queue  *eventqueue.Queue
	engine *ptpmsg.Engine
	ctrl   *stage.Controller

	tSim      float64
	iteration uint64

	stats       Stats
	Diagnostics []diag.Event

	log *log.Entry
}

// NewDriver validates cfg and builds a ready-to-run Driver.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	master := rtc.New(cfg.Master)
	slave := rtc.New(cfg.Slave)

	var delaySource netdelay.Source = netdelay.NewErlang(cfg.NetDelaySeed, cfg.NetDelayMeanNs, cfg.NetDelayK)
	engine := ptpmsg.NewEngine(ptpmsg.Config{
		SyncRateHz:      cfg.SyncRateHz,
		PdelayReqRateHz: cfg.PdelayReqRateHz,
	}, master, slave, delaySource)

	queue := eventqueue.New()
	engine.Init(queue, 0)

	quant := fixedpoint.New(cfg.FixedPointEnabled, cfg.FPIntBits, cfg.FPFrcBits)
	tun := tuner.New(tuner.Config{
		NominalFreqHz:    cfg.Slave.NominalFreqHz,
		FoffsetThreshPPB: cfg.FoffsetThreshPPB,
		Quantizer:        quant,
		FilterEnabled:    cfg.RTCIncFilterEnabled,
		FilterLen:        cfg.RTCIncFilterLen,
	})
	delayEst := delayest.New(cfg.DelayFilterEnabled, cfg.DelayFilterLen)

	ctrl := stage.New(stage.Config{
		Stages:          cfg.Stages,
		RTCIncEstPeriod: cfg.RTCIncEstPeriod,
		SyncPeriodNs:    1e9 / cfg.SyncRateHz,
		PacketSelection: cfg.PacketSelection,
		SampleWinDelay:  cfg.SampleWinDelay,
		PerfectDelayEst: cfg.PerfectDelayEst,
	}, master, slave, delayEst, tun)

	return &Driver{
		cfg:    cfg,
		master: master,
		slave:  slave,
		queue:  queue,
		engine: engine,
		ctrl:   ctrl,
		stats:  newStats(),
		log:    log.WithField("component", "sim"),
	}, nil
}

// Run advances the simulation by up to maxIterations event-queue cycles and
// returns one Output per iteration. It stops early only on a fatal error
// (a *diag.Error with Kind.Fatal() true); recoverable conditions are
// appended to Diagnostics and the run continues. Cancellation beyond this
// bound is the caller's responsibility, as the driver itself runs until an
// external stop.
func (d *Driver) Run(maxIterations int) ([]Output, error) {
	outputs := make([]Output, 0, maxIterations)

	for i := 0; i < maxIterations; i++ {
		d.iteration++
		d.master.Accrue(d.tSim)
		d.slave.Accrue(d.tSim)

		for {
			evt, ok := d.queue.Peek()
			if !ok || evt.TimeSec > d.tSim {
				break
			}
			d.queue.Poll()

			sync, pdelay := d.engine.Dispatch(d.queue, evt, d.tSim)
			if pdelay != nil {
				d.ctrl.HandlePdelayComplete(*pdelay)
			}
			if sync != nil {
				if err := d.ctrl.HandleSyncRx(d.iteration, *sync); err != nil {
					return outputs, d.fail(err)
				}
			}
		}

		if next, ok := d.queue.Peek(); ok {
			d.tSim = next.TimeSec
		} else {
			d.warnf(diag.SchedulingAnomaly, "event queue empty at t_sim=%.9f, advancing by fixed step", d.tSim)
			d.tSim += d.cfg.TStep
		}

		if err := d.master.CheckInvariants(); err != nil {
			return outputs, d.fail(err)
		}
		if err := d.slave.CheckInvariants(); err != nil {
			return outputs, d.fail(err)
		}

		out := d.sample()
		outputs = append(outputs, out)
		d.stats.ActualNsError.add(float64(out.ActualNsError))
		d.stats.RawDelayNs.add(out.RawDelayNs)
		if d.ctrl.LastDelayPostTransient() {
			d.stats.FilteredDelayNs.add(out.FilteredDelayNs)
		}
	}

	d.Diagnostics = append(d.Diagnostics, d.ctrl.Diagnostics...)
	return outputs, nil
}

func (d *Driver) sample() Output {
	masterSec, masterNs := d.master.Synchronized()
	slaveSec, slaveNs := d.slave.Synchronized()
	errNs := (slaveSec-masterSec)*1_000_000_000 + (slaveNs - masterNs)

	return Output{
		Iteration:         d.iteration,
		TSim:              d.tSim,
		Stage:             d.ctrl.Stage(),
		ActualNsError:     errNs,
		NormFreqOffsetPPB: d.ctrl.LastNormFreqOffsetPPB(),
		RawDelayNs:        d.ctrl.LastRawDelayNs(),
		FilteredDelayNs:   d.ctrl.LastFilteredDelayNs(),
		IncValNs:          d.slave.IncValNs,
	}
}

func (d *Driver) warnf(kind diag.Kind, format string, args ...any) {
	evt := diag.Event{Kind: kind, Iteration: d.iteration, Detail: fmt.Sprintf(format, args...)}
	d.Diagnostics = append(d.Diagnostics, evt)
	d.log.Warn(evt.String())
}

func (d *Driver) fail(err error) error {
	d.log.WithError(err).Error("fatal simulation error")
	return err
}

// ErrorStats returns the running statistics of the synchronized time error
// across the run so far.
func (d *Driver) ErrorStats() Stats { return d.stats }

// Stage returns the controller's current stage.
func (d *Driver) Stage() stage.Stage { return d.ctrl.Stage() }
