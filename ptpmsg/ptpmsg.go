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

// Package ptpmsg drives the SYNC and Pdelay_req/Pdelay_resp message
// exchanges between a master and slave rtc.RTC. It owns the on_way guards
// (a frame in flight cannot be re-sent until it lands) and latches the t1-t4
// timestamps each exchange needs. The handler-per-message-kind dispatch
// mirrors ptp/simpleclient's handleSync/handleDelay/handleFollowUp style,
// rewritten for a discrete-event scheduler instead of real sockets.
package ptpmsg

import (
	"github.com/facebookincubator/ptpsim/eventqueue"
	"github.com/facebookincubator/ptpsim/netdelay"
	"github.com/facebookincubator/ptpsim/rtc"
)

// Config fixes the two message cadences.
type Config struct {
	SyncRateHz       float64
	PdelayReqRateHz  float64
}

// SyncSample is a completed SYNC exchange: master transmitted at T1, slave
// received at T2, and the true (driver-known) one-way delay that carried it.
type SyncSample struct {
	T1          rtc.Timestamp
	T2          rtc.Timestamp
	TrueDelayNs float64
}

// PdelaySample is a completed peer-delay exchange.
type PdelaySample struct {
	T1, T2, T3, T4 rtc.Timestamp
}

// Engine holds the in-flight state of both message exchanges. It does not
// own the event queue; callers pass it in explicitly on every Dispatch so
// the driver remains the queue's single owner.
type Engine struct {
	cfg    Config
	master *rtc.RTC
	slave  *rtc.RTC
	delay  netdelay.Source

	syncOnWay  bool
	syncNextTx float64
	syncT1     rtc.Timestamp
	syncDelay  float64

	pdelayReqOnWay  bool
	pdelayRespOnWay bool
	pdelayNextTx    float64
	pdelayT1        rtc.Timestamp
	pdelayT2        rtc.Timestamp
	pdelayT3        rtc.Timestamp
}

// NewEngine builds a message engine wired to master and slave RTCs and a
// shared network delay source.
func NewEngine(cfg Config, master, slave *rtc.RTC, delay netdelay.Source) *Engine {
	return &Engine{cfg: cfg, master: master, slave: slave, delay: delay}
}

// Init seeds the queue with the first SYNC and Pdelay_req transmissions.
func (e *Engine) Init(q *eventqueue.Queue, tSim0 float64) {
	e.syncNextTx = tSim0
	e.pdelayNextTx = tSim0
	q.Add(e.syncNextTx, eventqueue.SyncTx)
	q.Add(e.pdelayNextTx, eventqueue.PdelayReqTx)
}

// Dispatch handles one popped event. It returns a non-nil SyncSample or
// PdelaySample when the event completed an exchange; both are nil for a
// transmission event, which only schedules follow-on events.
func (e *Engine) Dispatch(q *eventqueue.Queue, evt eventqueue.Event, tSim float64) (*SyncSample, *PdelaySample) {
	switch evt.Kind {
	case eventqueue.SyncTx:
		return e.onSyncTx(q, tSim)
	case eventqueue.SyncRx:
		return e.onSyncRx()
	case eventqueue.PdelayReqTx:
		return e.onPdelayReqTx(q, tSim)
	case eventqueue.PdelayReqRx:
		return e.onPdelayReqRx(q, tSim)
	case eventqueue.PdelayRespRx:
		return e.onPdelayRespRx()
	default:
		return nil, nil
	}
}

func (e *Engine) onSyncTx(q *eventqueue.Queue, tSim float64) (*SyncSample, *PdelaySample) {
	if !e.syncOnWay {
		e.syncT1 = e.master.Now()
		e.syncDelay = e.delay.NextDelayNs()
		e.syncOnWay = true
		q.Add(tSim+e.syncDelay*1e-9, eventqueue.SyncRx)
	}
	e.syncNextTx += 1 / e.cfg.SyncRateHz
	q.Add(e.syncNextTx, eventqueue.SyncTx)
	return nil, nil
}

func (e *Engine) onSyncRx() (*SyncSample, *PdelaySample) {
	t2 := e.slave.Now()
	e.syncOnWay = false
	return &SyncSample{T1: e.syncT1, T2: t2, TrueDelayNs: e.syncDelay}, nil
}

func (e *Engine) onPdelayReqTx(q *eventqueue.Queue, tSim float64) (*SyncSample, *PdelaySample) {
	if !e.pdelayReqOnWay {
		e.pdelayT1 = e.slave.Now()
		d := e.delay.NextDelayNs()
		e.pdelayReqOnWay = true
		q.Add(tSim+d*1e-9, eventqueue.PdelayReqRx)
	}
	e.pdelayNextTx += 1 / e.cfg.PdelayReqRateHz
	q.Add(e.pdelayNextTx, eventqueue.PdelayReqTx)
	return nil, nil
}

func (e *Engine) onPdelayReqRx(q *eventqueue.Queue, tSim float64) (*SyncSample, *PdelaySample) {
	// t2 and t3 are read from the master at the same instant: the request
	// arrival and response departure are modeled as simultaneous.
	t2 := e.master.Now()
	e.pdelayReqOnWay = false
	e.pdelayT2, e.pdelayT3 = t2, t2

	d := e.delay.NextDelayNs()
	e.pdelayRespOnWay = true
	q.Add(tSim+d*1e-9, eventqueue.PdelayRespRx)
	return nil, nil
}

func (e *Engine) onPdelayRespRx() (*SyncSample, *PdelaySample) {
	t4 := e.slave.Now()
	e.pdelayRespOnWay = false
	return nil, &PdelaySample{T1: e.pdelayT1, T2: e.pdelayT2, T3: e.pdelayT3, T4: t4}
}
