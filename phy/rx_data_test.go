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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

func TestEndRxData_SinrIsSignalOverNoise(t *testing.T) {
	sched := event.NewScheduler()
	enb := newTestNode(t, sched, 1, testConfig(), nil)
	ue := newTestNode(t, sched, 2, testConfig(), constantBler(0))
	enb.phy.SetTxPsd(spectrum.Value{2, 2, 0, 0})
	enb.phy.SetChannel(&directChannel{receivers: []*SpectrumPhy{ue.phy}})

	ue.phy.AddExpectedTb(7, true, 100, 5, []int{0, 1}, 0, 2, 0, true)
	pkt := Packet{Rnti: 7, Size: 100}
	enb.phy.StartTxDataFrame([]Packet{pkt}, nil, Millisecond)
	runAll(t, sched)

	assert.Equal(t, []Packet{pkt}, ue.observer.dataOk)
	assert.Len(t, ue.tracer.dl, 1)
	assert.InDelta(t, 2.0, ue.tracer.dl[0].SinrPerRb, 1e-12)
	assert.True(t, ue.tracer.dl[0].Correct)
	assert.Equal(t, []DlHarqFeedback{{Rnti: 7, HarqProcessId: 2, Status: []HarqStatus{Ack}}}, ue.observer.dlFeedback)
	assert.Equal(t, StateIdle, ue.phy.State())
	assert.Equal(t, StateIdle, enb.phy.State())
}

func TestEndRxData_TxModeGain(t *testing.T) {
	sched := event.NewScheduler()
	ue := newTestNode(t, sched, 2, testConfig(), constantBler(0))
	ue.phy.SetTransmissionMode(1)
	ue.phy.SetTxModeGain(2, 3.0103) // index 1, used by transmission mode 1

	ue.phy.AddExpectedTb(7, true, 100, 5, []int{0}, 0, 0, 0, true)
	ue.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 7}))
	runAll(t, sched)
	assert.InDelta(t, 2.0, ue.tracer.dl[0].SinrPerRb, 1e-4)
}

func TestEndRxData_Deterministic(t *testing.T) {
	run := func() []bool {
		sched := event.NewScheduler()
		ue := newTestNode(t, sched, 2, testConfig(), errormodel.MiModel{})
		for sf := 0; sf < 50; sf++ {
			ue.phy.AddExpectedTb(7, true, 200, 12, []int{0, 1, 2, 3}, 0, 0, 0, true)
			ue.phy.StartRx(dataSignal(0, spectrum.Value{3, 3, 3, 3}, Millisecond-1, Packet{Rnti: 7}))
			runAll(t, sched)
			sched.Schedule(1, func() {})
			runAll(t, sched)
		}
		var outcomes []bool
		for _, stat := range ue.tracer.dl {
			outcomes = append(outcomes, stat.Correct)
		}
		return outcomes
	}
	first := run()
	assert.Len(t, first, 50)
	assert.Equal(t, first, run())
}

func TestEndRxData_UlNackUpdatesHarq(t *testing.T) {
	sched := event.NewScheduler()
	enb := newTestNode(t, sched, 1, testConfig(), constantBler(1))
	enb.phy.AddExpectedTb(5, true, 80, 4, []int{0, 1}, 0, 3, 0, false)
	enb.phy.StartRx(dataSignal(0, spectrum.Value{1, 1, 0, 0}, Millisecond, Packet{Rnti: 5}))
	runAll(t, sched)

	assert.Empty(t, enb.observer.dataOk)
	assert.Len(t, enb.tracer.rxError, 1)
	assert.Equal(t, []UlHarqFeedback{{Rnti: 5, HarqProcessId: 3, Status: Nack}}, enb.observer.ulFeedback)
	ringSize := enb.phy.HarqTable().Config().UlRingSize
	h := enb.phy.HarqTable().UlHistory(5, uint8(ringSize-1))
	assert.Len(t, h, 1)
	assert.Equal(t, uint16(80), h[0].InfoBytes)
	assert.Equal(t, errormodel.CodedBytes(80, 4), h[0].CodeBytes)
	assert.Equal(t, uint8(0), enb.tracer.ul[0].Rv)
}

func TestEndRxData_UlAckResetsHarq(t *testing.T) {
	sched := event.NewScheduler()
	enb := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	table := enb.phy.HarqTable()
	table.UpdateUl(5, 0.2, 80, 100)
	enb.phy.AddExpectedTb(5, false, 80, 4, []int{0, 1}, 0, 7, 1, false)
	enb.phy.StartRx(dataSignal(0, spectrum.Value{1, 1, 0, 0}, Millisecond, Packet{Rnti: 5}))
	runAll(t, sched)

	assert.Equal(t, []UlHarqFeedback{{Rnti: 5, HarqProcessId: 7, Status: Ack}}, enb.observer.ulFeedback)
	assert.Empty(t, table.UlHistory(5, 7))
}

func TestEndRxData_FeedbackOncePerTb(t *testing.T) {
	sched := event.NewScheduler()
	enb := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	enb.phy.AddExpectedTb(5, true, 80, 4, []int{0, 1}, 0, 0, 0, false)
	packets := []Packet{{Rnti: 5, Size: 20}, {Rnti: 5, Size: 30}, {Rnti: 5, Size: 30}}
	enb.phy.StartRx(dataSignal(0, spectrum.Value{1, 1, 0, 0}, Millisecond, packets...))
	runAll(t, sched)

	assert.Equal(t, packets, enb.observer.dataOk)
	assert.Len(t, enb.observer.ulFeedback, 1)
}

func TestEndRxData_UnexpectedPacketDropped(t *testing.T) {
	sched := event.NewScheduler()
	ue := newTestNode(t, sched, 2, testConfig(), constantBler(0))
	ue.phy.StartRx(dataSignal(0, spectrum.Value{1, 1, 0, 0}, Millisecond, Packet{Rnti: 5}))
	runAll(t, sched)
	assert.Empty(t, ue.observer.dataOk)
	assert.Empty(t, ue.observer.dlFeedback)
	assert.Empty(t, ue.tracer.dl)
}

func TestEndRxData_DlLayersAggregated(t *testing.T) {
	sched := event.NewScheduler()
	// layer 1 on RB 1 always fails
	model := errormodel.Func(func(req errormodel.Request) errormodel.Stats {
		if req.RbMap[0] == 1 {
			return errormodel.Stats{Bler: 1, Mi: 0.4}
		}
		return errormodel.Stats{Bler: 0}
	})
	ue := newTestNode(t, sched, 2, testConfig(), model)
	ue.phy.SetTransmissionMode(2)

	ue.phy.AddExpectedTb(9, true, 50, 3, []int{2}, 0, 1, 0, true)
	ue.phy.AddExpectedTb(7, true, 100, 5, []int{0}, 0, 3, 0, true)
	ue.phy.AddExpectedTb(7, true, 100, 5, []int{1}, 1, 3, 0, true)
	ue.phy.StartRx(dataSignal(0, spectrum.Value{1, 1, 1, 0}, Millisecond,
		Packet{Rnti: 9}, Packet{Rnti: 7, Layer: 0}, Packet{Rnti: 7, Layer: 1}))
	runAll(t, sched)

	assert.Equal(t, []Packet{{Rnti: 9}, {Rnti: 7, Layer: 0}}, ue.observer.dataOk)
	assert.Equal(t, []DlHarqFeedback{
		{Rnti: 7, HarqProcessId: 3, Status: []HarqStatus{Ack, Nack}},
		{Rnti: 9, HarqProcessId: 1, Status: []HarqStatus{Ack, Ack}},
	}, ue.observer.dlFeedback)

	table := ue.phy.HarqTable()
	assert.Empty(t, table.DlHistory(3, 0))
	h := table.DlHistory(3, 1)
	assert.Len(t, h, 1)
	assert.Equal(t, 0.4, h[0].Mi)
}

func TestEndRxData_CtrlMessagesDelivered(t *testing.T) {
	sched := event.NewScheduler()
	ue := newTestNode(t, sched, 2, testConfig(), constantBler(0))
	dci := NewDciMessage([]byte{0xaa})
	ue.phy.StartRx(&Signal{Kind: KindData, Psd: spectrum.Value{1, 0, 0, 0}, Duration: Millisecond, Origin: 1,
		Data: &DataFrame{CtrlMsgs: []ControlMessage{dci}}})
	assert.Equal(t, StateRxData, ue.phy.State())
	runAll(t, sched)
	assert.Equal(t, [][]ControlMessage{{dci}}, ue.observer.ctrlOk)
	assert.Equal(t, StateIdle, ue.phy.State())
}

func TestEndRxData_ErrorModelDisabled(t *testing.T) {
	sched := event.NewScheduler()
	cfg := testConfig()
	cfg.DataErrorModelEnabled = false
	ue := newTestNode(t, sched, 2, cfg, constantBler(1))
	ue.phy.AddExpectedTb(7, true, 100, 5, []int{0}, 0, 0, 0, true)
	ue.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 7}))
	runAll(t, sched)
	assert.Len(t, ue.observer.dataOk, 1)
	assert.Empty(t, ue.tracer.dl)
}
