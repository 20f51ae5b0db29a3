// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package phy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

const testNumRbs = 4

type recordingObserver struct {
	dataOk     []Packet
	ctrlOk     [][]ControlMessage
	ctrlErrors int
	dlFeedback []DlHarqFeedback
	ulFeedback []UlHarqFeedback
	pss        []CellId
	slss       []SlssId
}

func (o *recordingObserver) RxDataOk(p Packet) {
	o.dataOk = append(o.dataOk, p)
}

func (o *recordingObserver) RxCtrlOk(msgs []ControlMessage) {
	o.ctrlOk = append(o.ctrlOk, msgs)
}

func (o *recordingObserver) RxCtrlError() {
	o.ctrlErrors++
}

func (o *recordingObserver) DlHarqFeedback(fb DlHarqFeedback) {
	o.dlFeedback = append(o.dlFeedback, fb)
}

func (o *recordingObserver) UlHarqFeedback(fb UlHarqFeedback) {
	o.ulFeedback = append(o.ulFeedback, fb)
}

func (o *recordingObserver) RxPss(cellId CellId, psd spectrum.Value) {
	o.pss = append(o.pss, cellId)
}

func (o *recordingObserver) RxSlss(slssId SlssId, psd spectrum.Value) {
	o.slss = append(o.slss, slssId)
}

type recordingTracer struct {
	rxOk     []Packet
	rxError  []Packet
	states   []State
	dl       []ReceptionStat
	ul       []ReceptionStat
	sl       []ReceptionStat
	pscch    []SlCtrlStat
	txStarts int
	txEnds   int
}

func (t *recordingTracer) PhyTxStart(id NodeId, packets []Packet) { t.txStarts++ }
func (t *recordingTracer) PhyTxEnd(id NodeId, packets []Packet)   { t.txEnds++ }
func (t *recordingTracer) PhyRxStart(id NodeId, packets []Packet) {}
func (t *recordingTracer) PhyRxEndOk(id NodeId, p Packet)         { t.rxOk = append(t.rxOk, p) }
func (t *recordingTracer) PhyRxEndError(id NodeId, p Packet)      { t.rxError = append(t.rxError, p) }
func (t *recordingTracer) StateChanged(id NodeId, old, new State) { t.states = append(t.states, new) }
func (t *recordingTracer) DlPhyReception(id NodeId, stat ReceptionStat) {
	t.dl = append(t.dl, stat)
}
func (t *recordingTracer) UlPhyReception(id NodeId, stat ReceptionStat) {
	t.ul = append(t.ul, stat)
}
func (t *recordingTracer) SlPhyReception(id NodeId, stat ReceptionStat) {
	t.sl = append(t.sl, stat)
}
func (t *recordingTracer) SlPscchReception(id NodeId, stat SlCtrlStat) {
	t.pscch = append(t.pscch, stat)
}

// directChannel delivers every transmission unchanged to its receivers.
type directChannel struct {
	receivers []*SpectrumPhy
}

func (c *directChannel) StartTx(sig *Signal) {
	for _, r := range c.receivers {
		if r.Id() != sig.Origin {
			r.StartRx(sig)
		}
	}
}

type testNode struct {
	phy      *SpectrumPhy
	observer *recordingObserver
	tracer   *recordingTracer
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.NumRbs = testNumRbs
	cfg.RbPerSubChannel = 2
	cfg.SensingWindow = 10
	cfg.Seed = 17
	return cfg
}

func newTestNode(t *testing.T, sched *event.Scheduler, id NodeId, cfg *Config, model errormodel.Model) *testNode {
	n := &testNode{
		observer: &recordingObserver{},
		tracer:   &recordingTracer{},
	}
	n.phy = NewSpectrumPhy(id, sched, cfg, model, n.observer)
	n.phy.SetTracer(n.tracer)
	n.phy.SetNoisePsd(spectrum.Value{1, 1, 1, 1})
	require.Equal(t, StateIdle, n.phy.State())
	return n
}

func runAll(t *testing.T, sched *event.Scheduler) {
	require.Nil(t, sched.Run(context.Background()))
}

// constantBler is a model with a fixed BLER: 0 never fails (a draw of exactly 0 aside) and 1 always
// fails.
func constantBler(bler float64) errormodel.Model {
	return errormodel.Constant{Bler: bler}
}

// thresholdModel decodes whenever the mean SINR of the request is above 1 (0 dB).
var thresholdModel = errormodel.Func(func(req errormodel.Request) errormodel.Stats {
	mean := errormodel.MeanSinr(req.Sinr, req.RbMap)
	bler := 0.0
	if mean <= 1 {
		bler = 1.0
	}
	return errormodel.Stats{Bler: bler, Sinr: mean}
})
