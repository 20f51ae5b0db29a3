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

	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

func dataSignal(cellId CellId, psd spectrum.Value, duration SimTime, packets ...Packet) *Signal {
	return &Signal{
		Kind:     KindData,
		Psd:      psd,
		Duration: duration,
		Origin:   99,
		Data:     &DataFrame{CellId: cellId, Packets: packets},
	}
}

func TestSpectrumPhy_TxStateTransitions(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetTxPsd(spectrum.Value{1, 1, 0, 0})
	n.phy.SetChannel(&directChannel{})

	n.phy.StartTxDataFrame([]Packet{{Rnti: 1}}, nil, Millisecond)
	assert.Equal(t, StateTxData, n.phy.State())
	assert.Panics(t, func() {
		n.phy.StartTxDlCtrlFrame(nil, false)
	})
	runAll(t, sched)
	assert.Equal(t, StateIdle, n.phy.State())

	n.phy.StartTxDlCtrlFrame(nil, true)
	assert.Equal(t, StateTxDlCtrl, n.phy.State())
	runAll(t, sched)
	assert.Equal(t, Millisecond+DlCtrlDuration, sched.Now())

	n.phy.StartTxUlSrsFrame()
	assert.Equal(t, StateTxUlSrs, n.phy.State())
	runAll(t, sched)
	assert.Equal(t, StateIdle, n.phy.State())

	assert.Equal(t, []State{StateTxData, StateIdle, StateTxDlCtrl, StateIdle, StateTxUlSrs, StateIdle}, n.tracer.states)
	assert.Equal(t, 1, n.tracer.txStarts)
	assert.Equal(t, 1, n.tracer.txEnds)
}

func TestSpectrumPhy_TxWithoutPsdPanics(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), nil)
	n.phy.SetChannel(&directChannel{})
	assert.Panics(t, func() {
		n.phy.StartTxUlSrsFrame()
	})
}

func TestSpectrumPhy_RxWhileTxPanics(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetTxPsd(spectrum.Value{1, 1, 0, 0})
	n.phy.SetChannel(&directChannel{})
	n.phy.StartTxDataFrame(nil, nil, Millisecond)

	assert.Panics(t, func() {
		n.phy.StartRx(dataSignal(0, spectrum.Value{0, 0, 1, 1}, Millisecond, Packet{Rnti: 3}))
	})
}

func TestSpectrumPhy_TxWhileRxPanics(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetTxPsd(spectrum.Value{1, 1, 0, 0})
	n.phy.SetChannel(&directChannel{})
	n.phy.StartRx(dataSignal(0, spectrum.Value{0, 0, 1, 1}, Millisecond, Packet{Rnti: 3}))
	assert.Equal(t, StateRxData, n.phy.State())

	assert.Panics(t, func() {
		n.phy.StartTxDataFrame(nil, nil, Millisecond)
	})
	assert.Panics(t, func() {
		n.phy.StartTxSlDataFrame(nil, nil, Millisecond, NoGroup)
	})
	assert.Equal(t, 0, n.tracer.txStarts, "rejected transmissions are not traced")
}

func TestSpectrumPhy_OtherCellIgnored(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetCellId(1)
	n.phy.AddExpectedTb(3, true, 100, 5, []int{2, 3}, 0, 0, 0, true)

	n.phy.StartRx(dataSignal(2, spectrum.Value{0, 0, 4, 4}, Millisecond, Packet{Rnti: 3}))
	assert.Equal(t, StateIdle, n.phy.State())
	runAll(t, sched)
	assert.Empty(t, n.observer.dataOk)
	assert.Empty(t, n.observer.dlFeedback)
}

func TestSpectrumPhy_WindowMismatchPanics(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 3}))

	assert.Panics(t, func() {
		n.phy.StartRx(dataSignal(0, spectrum.Value{0, 1, 0, 0}, 2*Millisecond, Packet{Rnti: 4}))
	})
}

func TestSpectrumPhy_ConcurrentDataJoinsWindow(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.AddExpectedTb(3, true, 100, 5, []int{0}, 0, 0, 0, true)
	n.phy.AddExpectedTb(4, true, 100, 5, []int{1}, 0, 1, 0, true)

	n.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 3}))
	n.phy.StartRx(dataSignal(0, spectrum.Value{0, 1, 0, 0}, Millisecond, Packet{Rnti: 4}))
	runAll(t, sched)

	assert.Len(t, n.observer.dataOk, 2)
	assert.Len(t, n.observer.dlFeedback, 2)
	assert.Equal(t, StateIdle, n.phy.State())
}

func TestSpectrumPhy_DlCtrl(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetCellId(1)
	psd := spectrum.Value{2, 2, 2, 2}
	dci := NewDciMessage([]byte{0x01})

	n.phy.StartRx(&Signal{Kind: KindDlCtrl, Psd: psd, Duration: DlCtrlDuration, Origin: 10,
		DlCtrl: &DlCtrlFrame{CellId: 1, Pss: true, CtrlMsgs: []ControlMessage{dci}}})
	assert.Equal(t, StateRxDlCtrl, n.phy.State())

	// a neighbour cell is heard as PSS and interference only
	n.phy.StartRx(&Signal{Kind: KindDlCtrl, Psd: psd, Duration: DlCtrlDuration, Origin: 11,
		DlCtrl: &DlCtrlFrame{CellId: 2, Pss: true}})
	assert.Panics(t, func() {
		n.phy.StartRx(&Signal{Kind: KindDlCtrl, Psd: psd, Duration: DlCtrlDuration, Origin: 12,
			DlCtrl: &DlCtrlFrame{CellId: 1}})
	})

	runAll(t, sched)
	assert.Equal(t, []CellId{1, 2}, n.observer.pss)
	assert.Equal(t, [][]ControlMessage{{dci}}, n.observer.ctrlOk)
	assert.Equal(t, StateIdle, n.phy.State())
}

func TestSpectrumPhy_DlCtrlError(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(1))
	n.phy.StartRx(&Signal{Kind: KindDlCtrl, Psd: spectrum.Value{1, 1, 1, 1}, Duration: DlCtrlDuration, Origin: 10,
		DlCtrl: &DlCtrlFrame{CellId: 0, CtrlMsgs: []ControlMessage{NewDciMessage(nil)}}})
	runAll(t, sched)
	assert.Empty(t, n.observer.ctrlOk)
	assert.Equal(t, 1, n.observer.ctrlErrors)
}

func TestSpectrumPhy_UlSrs(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), nil)
	srs := &Signal{Kind: KindUlSrs, Psd: spectrum.Value{1, 1, 1, 1}, Duration: UlSrsDuration, Origin: 5,
		UlSrs: &UlSrsFrame{CellId: 0}}
	n.phy.StartRx(srs)
	n.phy.StartRx(srs.WithPsd(spectrum.Value{2, 2, 2, 2}))
	assert.Equal(t, StateRxUlSrs, n.phy.State())
	assert.Panics(t, func() {
		n.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, UlSrsDuration))
	})
	runAll(t, sched)
	assert.Equal(t, StateIdle, n.phy.State())
}

func TestSpectrumPhy_OtherSignalOnlyInterferes(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.StartRx(&Signal{Kind: KindOther, Psd: spectrum.Value{3, 3, 3, 3}, Duration: Millisecond, Origin: 77})
	assert.Equal(t, StateIdle, n.phy.State())
	runAll(t, sched)
	assert.Empty(t, n.tracer.states)
}

func TestSpectrumPhy_Reset(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), constantBler(0))
	n.phy.SetCellId(4)
	n.phy.SetSlssId(9)
	n.phy.SetTransmissionMode(2)
	n.phy.AddExpectedTb(3, true, 100, 5, []int{0}, 0, 0, 0, true)
	n.phy.AddExpectedSlTb(3, 1, true, 100, 5, []int{0}, 0)
	n.phy.StartRx(dataSignal(4, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 3}))
	assert.Equal(t, StateRxData, n.phy.State())

	n.phy.Reset()
	assert.Equal(t, StateIdle, n.phy.State())
	assert.Equal(t, CellId(0), n.phy.CellId())
	dataTbs, slTbs, discTbs := n.phy.NumExpectedTbs()
	assert.Equal(t, 0, dataTbs+slTbs+discTbs)
	assert.False(t, sched.IsPending(n.phy.endRxDataEvent))

	runAll(t, sched)
	assert.Empty(t, n.observer.dataOk)
	assert.Empty(t, n.observer.dlFeedback)

	// the phy is usable again after a reset in the middle of a window
	n.phy.StartRx(dataSignal(0, spectrum.Value{1, 0, 0, 0}, Millisecond, Packet{Rnti: 3}))
	assert.Equal(t, StateRxData, n.phy.State())
}

func TestSpectrumPhy_TransmissionModes(t *testing.T) {
	sched := event.NewScheduler()
	n := newTestNode(t, sched, 1, testConfig(), nil)
	n.phy.SetTransmissionMode(2)
	assert.Equal(t, uint8(2), n.phy.layersNum)
	n.phy.SetTransmissionMode(4)
	assert.Equal(t, uint8(1), n.phy.layersNum)
	assert.Panics(t, func() {
		n.phy.SetTransmissionMode(7)
	})

	n.phy.SetTxModeGain(1, 10)
	assert.InDelta(t, 10.0, n.phy.txModeGain[0], 1e-9)
	assert.Panics(t, func() {
		n.phy.SetTxModeGain(0, 3)
	})
	n.phy.SetSlRxGain(3)
	assert.InDelta(t, 1.995, n.phy.slRxGain, 1e-3)
}
