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

// Package phy implements the reception engine of an LTE radio: the transmit/receive state machine of one
// spectrum phy, the registry of expected transport blocks, the decode pipeline with HARQ and the collision
// resolver of the sidelink broadcast channels.
package phy

import (
	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/harq"
	"github.com/ltesim/ltephy/interference"
	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/prng"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// Channel carries the transmissions of a phy to the other phys attached to it.
type Channel interface {
	StartTx(sig *Signal)
}

// layers per transmission mode: SISO, Tx diversity, open loop SM, closed loop SM, MU-MIMO,
// closed loop rank 1, single layer beamforming
var txModeLayers = [NumTxModes]uint8{1, 1, 2, 2, 1, 1, 1}

type dataRxEntry struct {
	index   int // rx index in the data accumulator
	packets []Packet
}

type slRxEntry struct {
	packets []Packet
	ctrl    *ControlMessage
	rbMap   []int
}

type SpectrumPhy struct {
	id     NodeId
	cfg    *Config
	sched  *event.Scheduler
	log    *logger.DeviceLogger
	random *prng.Stream
	model  errormodel.Model
	harq   *harq.Table

	observer     Observer
	pssObserver  PssObserver
	slssObserver SlssObserver
	tracer       Tracer
	channel      Channel

	state          State
	cellId         CellId
	slssId         SlssId
	l1GroupIds     map[GroupId]struct{}
	txMode         uint8
	layersNum      uint8
	txModeGain     [NumTxModes]float64
	slRxGain       float64
	txPsd          spectrum.Value
	noisePsd       spectrum.Value
	txPackets      []Packet
	halfDuplexPeer *SpectrumPhy
	ulDataSlCheck  bool
	nextTxTime     uint64 // ms
	nextTxTimeSet  bool

	interfData *interference.Accumulator
	interfCtrl *interference.Accumulator
	interfSl   *interference.Accumulator

	dataSinr []spectrum.Value
	ctrlSinr []spectrum.Value
	slSinr   []spectrum.Value
	slSnr    []spectrum.Value
	slSignal []spectrum.Value
	slInterf []spectrum.Value

	firstRxStart     SimTime
	firstRxDuration  SimTime
	endTxEvent       event.Id
	endRxDataEvent   event.Id
	endRxDlCtrlEvent event.Id
	endRxUlSrsEvent  event.Id

	rxData     []dataRxEntry
	rxCtrlMsgs []ControlMessage
	rxSl       []slRxEntry

	expectedTbs     map[tbId]*tbInfo
	expectedSlTbs   map[slTbId]*slTbInfo
	expectedDiscTbs map[discTbId]*discTbInfo

	discRxPools []DiscoveryPool
	discRxApps  map[uint32]struct{}
	discTxApps  []uint32
	discTxCount map[Rnti]int

	sensing          *sensingMaps
	lastSciReception map[Rnti]uint64
}

// NewSpectrumPhy creates a phy of device id. A nil cfg uses DefaultConfig, a nil model uses
// errormodel.MiModel. The observer may be nil; if it also implements PssObserver or SlssObserver, it
// receives the synchronization signals.
func NewSpectrumPhy(id NodeId, sched *event.Scheduler, cfg *Config, model errormodel.Model, observer Observer) *SpectrumPhy {
	logger.AssertNotNil(sched)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger.AssertNil(cfg.Validate())
	if model == nil {
		model = errormodel.MiModel{}
	}

	seed := prng.NewPhyRandomSeed()
	if cfg.Seed != 0 {
		seed = prng.RandomSeed(cfg.Seed) + prng.RandomSeed(id)
	}

	p := &SpectrumPhy{
		id:               id,
		cfg:              cfg,
		sched:            sched,
		log:              logger.GetDeviceLogger(id, "phy", sched),
		random:           prng.NewStream(seed),
		model:            model,
		harq:             harq.NewTable(cfg.Harq),
		layersNum:        1,
		slRxGain:         DbToLinear(cfg.SlRxGainDb),
		l1GroupIds:       map[GroupId]struct{}{},
		expectedTbs:      map[tbId]*tbInfo{},
		expectedSlTbs:    map[slTbId]*slTbInfo{},
		expectedDiscTbs:  map[discTbId]*discTbInfo{},
		discRxApps:       map[uint32]struct{}{},
		discTxCount:      map[Rnti]int{},
		sensing:          newSensingMaps(cfg.NumSubChannels(), cfg.SensingWindow),
		lastSciReception: map[Rnti]uint64{},
	}
	for i := range p.txModeGain {
		p.txModeGain[i] = 1.0
		if i < len(cfg.TxModeGainsDb) {
			p.txModeGain[i] = DbToLinear(cfg.TxModeGainsDb[i])
		}
	}
	p.SetObserver(observer)

	p.interfData = interference.NewAccumulator(sched, "data")
	p.interfCtrl = interference.NewAccumulator(sched, "ctrl")
	p.interfSl = interference.NewAccumulator(sched, "sl")
	p.interfData.AddSinrProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.dataSinr = v }))
	p.interfCtrl.AddSinrProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.ctrlSinr = v }))
	p.interfSl.AddSinrProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.slSinr = v }))
	p.interfSl.AddSnrProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.slSnr = v }))
	p.interfSl.AddSignalProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.slSignal = v }))
	p.interfSl.AddInterferenceProcessor(interference.NewAveragingProcessor(func(v []spectrum.Value) { p.slInterf = v }))
	return p
}

func (p *SpectrumPhy) Id() NodeId {
	return p.id
}

func (p *SpectrumPhy) Config() *Config {
	return p.cfg
}

func (p *SpectrumPhy) State() State {
	return p.state
}

func (p *SpectrumPhy) CellId() CellId {
	return p.cellId
}

func (p *SpectrumPhy) HarqTable() *harq.Table {
	return p.harq
}

// RandomStream returns the stream used for decode draws.
func (p *SpectrumPhy) RandomStream() *prng.Stream {
	return p.random
}

func (p *SpectrumPhy) SetObserver(o Observer) {
	p.observer = o
	p.pssObserver, _ = o.(PssObserver)
	p.slssObserver, _ = o.(SlssObserver)
}

func (p *SpectrumPhy) SetTracer(t Tracer) {
	p.tracer = t
}

func (p *SpectrumPhy) SetChannel(c Channel) {
	p.channel = c
}

// SetHarqTable replaces the HARQ table, which is owned by the MAC of the device.
func (p *SpectrumPhy) SetHarqTable(t *harq.Table) {
	logger.AssertNotNil(t)
	p.harq = t
}

// SetRandomStream replaces the decode stream, e.g. with a stream resumed by prng.Resume.
func (p *SpectrumPhy) SetRandomStream(s *prng.Stream) {
	logger.AssertNotNil(s)
	p.random = s
}

func (p *SpectrumPhy) SetTxPsd(psd spectrum.Value) {
	logger.AssertNotNil(psd)
	p.txPsd = psd
}

// SetNoisePsd sets the noise floor of the data, control and sidelink accumulators.
func (p *SpectrumPhy) SetNoisePsd(psd spectrum.Value) {
	logger.AssertNotNil(psd)
	p.noisePsd = psd
	p.interfData.SetNoise(psd)
	p.interfCtrl.SetNoise(psd)
	p.interfSl.SetNoise(psd)
}

func (p *SpectrumPhy) SetCellId(cellId CellId) {
	p.cellId = cellId
}

func (p *SpectrumPhy) AddL1GroupId(groupId GroupId) {
	p.l1GroupIds[groupId] = struct{}{}
}

func (p *SpectrumPhy) RemoveL1GroupId(groupId GroupId) {
	delete(p.l1GroupIds, groupId)
}

func (p *SpectrumPhy) SetSlssId(slssId SlssId) {
	p.slssId = slssId
}

// SetHalfDuplexPeer sets the uplink phy of the same device. Sidelink data is not received while the
// peer is busy transmitting data.
func (p *SpectrumPhy) SetHalfDuplexPeer(peer *SpectrumPhy) {
	p.halfDuplexPeer = peer
}

func (p *SpectrumPhy) SetTransmissionMode(txMode uint8) {
	logger.AssertTruef(int(txMode) < NumTxModes, "transmission mode %d not available: 0..%d", txMode, NumTxModes-1)
	p.txMode = txMode
	p.layersNum = txModeLayers[txMode]
}

// SetTxModeGain sets the SINR gain of transmission mode txMode (1-based) in dB.
func (p *SpectrumPhy) SetTxModeGain(txMode uint8, gainDb DbValue) {
	logger.AssertTruef(txMode >= 1 && int(txMode) <= NumTxModes, "transmission mode %d not available: 1..%d", txMode, NumTxModes)
	p.txModeGain[txMode-1] = DbToLinear(gainDb)
}

func (p *SpectrumPhy) SetSlRxGain(gainDb DbValue) {
	p.slRxGain = DbToLinear(gainDb)
}

// SetNextTxTime records the subframe (ms) of the next own sidelink transmission. Control received in
// that subframe is reported as lost to half duplex.
func (p *SpectrumPhy) SetNextTxTime(ms uint64) {
	p.nextTxTime = ms
	p.nextTxTimeSet = true
}

// Reset returns the phy to its initial idle state, e.g. at handover. Pending end-of-window events are
// cancelled, a reception in progress is dropped.
func (p *SpectrumPhy) Reset() {
	p.sched.Cancel(p.endTxEvent)
	p.sched.Cancel(p.endRxDataEvent)
	p.sched.Cancel(p.endRxDlCtrlEvent)
	p.sched.Cancel(p.endRxUlSrsEvent)
	if p.noisePsd != nil && (p.interfData.IsReceiving() || p.interfCtrl.IsReceiving() || p.interfSl.IsReceiving()) {
		p.SetNoisePsd(p.noisePsd)
	}

	p.cellId = 0
	p.changeState(StateIdle)
	p.txMode = 0
	p.layersNum = 1
	p.rxData = nil
	p.rxCtrlMsgs = nil
	p.rxSl = nil
	p.txPackets = nil
	p.clearExpectedTbs()
	p.ClearExpectedSlTb()
	p.clearExpectedDiscTbs()
	p.slssId = 0
	p.halfDuplexPeer = nil
	p.ulDataSlCheck = false
}

func (p *SpectrumPhy) changeState(s State) {
	if s == p.state {
		return
	}
	p.log.Tracef("state %v -> %v", p.state, s)
	old := p.state
	p.state = s
	if p.tracer != nil {
		p.tracer.StateChanged(p.id, old, s)
	}
}

// rxSubframe returns the subframe (ms) in which the current reception window started. A window that
// lasts exactly one subframe ends on the next subframe boundary but still belongs to its own.
func (p *SpectrumPhy) rxSubframe() uint64 {
	return p.firstRxStart.Milliseconds()
}

func (p *SpectrumPhy) checkTxAllowed(allowRxData bool) {
	switch {
	case p.state.IsTx():
		p.log.Panicf("cannot TX while already TX (state %v): the MAC should avoid this", p.state)
	case p.state == StateRxData && allowRxData:
	case p.state.IsRx():
		p.log.Panicf("cannot TX while RX (state %v): with FDD channel access the phy cannot transmit and receive", p.state)
	}
	logger.AssertNotNil(p.txPsd, "tx PSD not set")
	logger.AssertNotNil(p.channel, "channel not set")
}

func (p *SpectrumPhy) StartTxDataFrame(packets []Packet, ctrl []ControlMessage, duration SimTime) {
	p.checkTxAllowed(false)
	if p.tracer != nil {
		p.tracer.PhyTxStart(p.id, packets)
	}
	p.txPackets = packets
	p.changeState(StateTxData)
	if len(packets) > 0 {
		p.ulDataSlCheck = true
	}
	p.channel.StartTx(&Signal{
		Kind:     KindData,
		Psd:      p.txPsd.Copy(),
		Duration: duration,
		Origin:   p.id,
		Data: &DataFrame{
			CellId:   p.cellId,
			Packets:  packets,
			CtrlMsgs: ctrl,
		},
	})
	p.endTxEvent = p.sched.Schedule(duration, p.endTxData)
}

// StartTxSlDataFrame transmits a sidelink frame to groupId. With CtrlFullDuplexEnabled, it may start
// while a sidelink reception is in progress.
func (p *SpectrumPhy) StartTxSlDataFrame(packets []Packet, ctrl []ControlMessage, duration SimTime, groupId GroupId) {
	p.checkTxAllowed(p.cfg.CtrlFullDuplexEnabled)
	if p.tracer != nil {
		p.tracer.PhyTxStart(p.id, packets)
	}
	p.txPackets = packets
	p.changeState(StateTxData)
	p.ulDataSlCheck = true
	p.channel.StartTx(&Signal{
		Kind:     KindSidelink,
		Psd:      p.txPsd.Copy(),
		Duration: duration,
		Origin:   p.id,
		Sidelink: &SlFrame{
			NodeId:   p.id,
			GroupId:  groupId,
			SlssId:   p.slssId,
			Packets:  packets,
			CtrlMsgs: ctrl,
		},
	})
	p.endTxEvent = p.sched.Schedule(duration, p.endTxData)
}

func (p *SpectrumPhy) StartTxDlCtrlFrame(ctrl []ControlMessage, pss bool) {
	p.checkTxAllowed(false)
	p.changeState(StateTxDlCtrl)
	p.channel.StartTx(&Signal{
		Kind:     KindDlCtrl,
		Psd:      p.txPsd.Copy(),
		Duration: DlCtrlDuration,
		Origin:   p.id,
		DlCtrl: &DlCtrlFrame{
			CellId:   p.cellId,
			Pss:      pss,
			CtrlMsgs: ctrl,
		},
	})
	p.endTxEvent = p.sched.Schedule(DlCtrlDuration, p.endTxDlCtrl)
}

func (p *SpectrumPhy) StartTxUlSrsFrame() {
	p.checkTxAllowed(false)
	p.changeState(StateTxUlSrs)
	p.channel.StartTx(&Signal{
		Kind:     KindUlSrs,
		Psd:      p.txPsd.Copy(),
		Duration: UlSrsDuration,
		Origin:   p.id,
		UlSrs:    &UlSrsFrame{CellId: p.cellId},
	})
	p.endTxEvent = p.sched.Schedule(UlSrsDuration, p.endTxUlSrs)
}

func (p *SpectrumPhy) endTxData() {
	if p.tracer != nil {
		p.tracer.PhyTxEnd(p.id, p.txPackets)
	}
	p.txPackets = nil
	if p.sched.IsPending(p.endRxDataEvent) {
		// full duplex: a sidelink reception is still open
		p.changeState(StateRxData)
	} else {
		p.changeState(StateIdle)
	}
}

func (p *SpectrumPhy) endTxDlCtrl() {
	logger.AssertEqual(StateTxDlCtrl, p.state)
	p.changeState(StateIdle)
}

func (p *SpectrumPhy) endTxUlSrs() {
	logger.AssertEqual(StateTxUlSrs, p.state)
	p.changeState(StateIdle)
}

// StartRx delivers the start of a received signal. The signal is added to the accumulators it
// interferes with, then handled according to its kind.
func (p *SpectrumPhy) StartRx(sig *Signal) {
	logger.AssertNotNil(sig)
	p.log.Tracef("StartRx %v from %d, state %v", sig.Kind, sig.Origin, p.state)

	switch sig.Kind {
	case KindData:
		logger.AssertNotNil(sig.Data)
		p.interfData.AddSignal(sig.Psd, sig.Duration)
		p.startRxData(sig)
	case KindDlCtrl:
		logger.AssertNotNil(sig.DlCtrl)
		p.interfCtrl.AddSignal(sig.Psd, sig.Duration)
		p.startRxDlCtrl(sig)
	case KindUlSrs:
		logger.AssertNotNil(sig.UlSrs)
		p.interfCtrl.AddSignal(sig.Psd, sig.Duration)
		p.startRxUlSrs(sig)
	case KindSidelink:
		logger.AssertNotNil(sig.Sidelink)
		p.interfSl.AddSignal(sig.Psd, sig.Duration)
		p.interfData.AddSignal(sig.Psd, sig.Duration)
		peer := p.halfDuplexPeer
		if (p.cfg.CtrlFullDuplexEnabled && len(sig.Sidelink.CtrlMsgs) > 0) ||
			peer == nil || peer.state == StateIdle || !peer.ulDataSlCheck {
			p.startRxSlData(sig)
		} else {
			p.log.Debugf("half duplex: peer in state %v, sidelink signal from %d not received", peer.state, sig.Origin)
		}
	default:
		p.interfData.AddSignal(sig.Psd, sig.Duration)
		p.interfCtrl.AddSignal(sig.Psd, sig.Duration)
		p.interfSl.AddSignal(sig.Psd, sig.Duration)
	}
}

// openWindow records the start and duration of a new reception window and schedules its end.
func (p *SpectrumPhy) openWindow(duration SimTime, end func()) event.Id {
	p.firstRxStart = p.sched.Now()
	p.firstRxDuration = duration
	return p.sched.Schedule(duration, end)
}

// checkWindow verifies that a signal joining the open window starts and ends with it.
func (p *SpectrumPhy) checkWindow(duration SimTime) {
	now := p.sched.Now()
	if p.firstRxStart != now || p.firstRxDuration != duration {
		p.log.Panicf("concurrent reception out of sync: window start %v duration %v, signal start %v duration %v",
			p.firstRxStart, p.firstRxDuration, now, duration)
	}
}

func (p *SpectrumPhy) startRxData(sig *Signal) {
	switch p.state {
	case StateTxData, StateTxDlCtrl, StateTxUlSrs:
		p.log.Panicf("cannot RX while TX: with FDD channel access the phy cannot transmit and receive")
	case StateRxDlCtrl:
		p.log.Panicf("cannot RX data while receiving control")
	case StateRxUlSrs:
		p.log.Panicf("cannot RX data while receiving SRS")
	}

	frame := sig.Data
	if frame.CellId != p.cellId {
		p.log.Tracef("not in sync with data signal (cellId=%d, own=%d)", frame.CellId, p.cellId)
		return
	}

	if len(p.rxData) == 0 && len(p.rxCtrlMsgs) == 0 {
		logger.AssertEqual(StateIdle, p.state)
		p.dataSinr = nil
		p.endRxDataEvent = p.openWindow(sig.Duration, p.endRxData)
	} else {
		logger.AssertEqual(StateRxData, p.state)
		p.checkWindow(sig.Duration)
	}

	p.changeState(StateRxData)
	if len(frame.Packets) > 0 {
		idx := p.interfData.StartRx(sig.Psd)
		p.rxData = append(p.rxData, dataRxEntry{index: idx, packets: frame.Packets})
		if p.tracer != nil {
			p.tracer.PhyRxStart(p.id, frame.Packets)
		}
	}
	p.rxCtrlMsgs = append(p.rxCtrlMsgs, frame.CtrlMsgs...)
}

func (p *SpectrumPhy) startRxDlCtrl(sig *Signal) {
	switch p.state {
	case StateTxData, StateTxDlCtrl, StateTxUlSrs, StateRxData, StateRxUlSrs:
		p.log.Panicf("unexpected DL control in state %v", p.state)
	}

	frame := sig.DlCtrl
	if frame.Pss && p.pssObserver != nil {
		p.pssObserver.RxPss(frame.CellId, sig.Psd)
	}

	if p.state == StateRxDlCtrl {
		logger.AssertTruef(frame.CellId != p.cellId, "any other DL control should be from a different cell")
		p.log.Tracef("ignoring DL control of cell %d", frame.CellId)
		return
	}

	if frame.CellId != p.cellId {
		p.log.Tracef("not in sync with DL control (cellId=%d, own=%d)", frame.CellId, p.cellId)
		return
	}
	logger.AssertTrue(len(p.rxCtrlMsgs) == 0)
	p.ctrlSinr = nil
	p.endRxDlCtrlEvent = p.openWindow(sig.Duration, p.endRxDlCtrl)
	p.rxCtrlMsgs = append([]ControlMessage(nil), frame.CtrlMsgs...)
	p.changeState(StateRxDlCtrl)
	p.interfCtrl.StartRx(sig.Psd)
}

func (p *SpectrumPhy) startRxUlSrs(sig *Signal) {
	switch p.state {
	case StateTxData, StateTxDlCtrl, StateTxUlSrs:
		p.log.Panicf("cannot RX while TX: with FDD channel access the phy cannot transmit and receive")
	case StateRxData, StateRxDlCtrl:
		p.log.Panicf("cannot RX SRS while receiving something else (state %v)", p.state)
	}

	frame := sig.UlSrs
	if frame.CellId != p.cellId {
		p.log.Tracef("not in sync with SRS (cellId=%d, own=%d)", frame.CellId, p.cellId)
		return
	}
	if p.state == StateIdle {
		logger.AssertTrue(len(p.rxCtrlMsgs) == 0)
		p.ctrlSinr = nil
		p.endRxUlSrsEvent = p.openWindow(sig.Duration, p.endRxUlSrs)
	} else {
		p.checkWindow(sig.Duration)
	}
	p.changeState(StateRxUlSrs)
	p.interfCtrl.StartRx(sig.Psd)
}

func (p *SpectrumPhy) startRxSlData(sig *Signal) {
	switch p.state {
	case StateTxDlCtrl, StateTxUlSrs:
		p.log.Panicf("cannot RX while TX: with FDD channel access the phy cannot transmit and receive")
	case StateRxDlCtrl:
		p.log.Panicf("cannot RX sidelink data while receiving control")
	case StateRxUlSrs:
		p.log.Panicf("cannot RX sidelink data while receiving SRS")
	case StateTxData:
		if !p.cfg.CtrlFullDuplexEnabled {
			p.log.Tracef("transmitting, sidelink signal from %d not received", sig.Origin)
			return
		}
	}

	frame := sig.Sidelink
	if p.cellId != 0 || frame.NodeId == p.id {
		p.log.Tracef("sidelink signal from eNB or from this UE ignored (cellId=%d, node=%d)", p.cellId, frame.NodeId)
		return
	}

	ctrl := frame.CtrlMsgs
	for i, msg := range ctrl {
		if msg.Type != CtrlMibSl {
			continue
		}
		// a SLSS is received by every UE, synchronized or not
		logger.AssertNotNil(msg.MibSl)
		if p.slssObserver != nil {
			p.slssObserver.RxSlss(msg.MibSl.SlssId, sig.Psd)
		}
		mib := msg
		p.addSlRxEntry(sig, slRxEntry{ctrl: &mib, rbMap: sig.Psd.RbMap()})
		ctrl = append(append([]ControlMessage(nil), ctrl[:i]...), ctrl[i+1:]...)
		break
	}

	_, subscribed := p.l1GroupIds[frame.GroupId]
	if frame.SlssId != p.slssId || (frame.GroupId != NoGroup && !subscribed) {
		p.log.Tracef("not in sync with sidelink signal (slss=%d group=%d)", frame.SlssId, frame.GroupId)
		return
	}
	if len(frame.Packets) == 0 && len(ctrl) == 0 {
		return
	}

	entry := slRxEntry{packets: frame.Packets, rbMap: sig.Psd.RbMap()}
	if len(ctrl) > 0 {
		logger.AssertTruef(len(ctrl) == 1, "a sidelink frame carries one control message, got %d", len(ctrl))
		c := ctrl[0]
		entry.ctrl = &c
	}
	p.addSlRxEntry(sig, entry)
	if len(frame.Packets) > 0 && p.tracer != nil {
		p.tracer.PhyRxStart(p.id, frame.Packets)
	}
}

func (p *SpectrumPhy) addSlRxEntry(sig *Signal, entry slRxEntry) {
	if len(p.rxSl) == 0 {
		p.slSinr, p.slSnr, p.slSignal, p.slInterf = nil, nil, nil, nil
		p.endRxDataEvent = p.openWindow(sig.Duration, p.endRxSlData)
	} else {
		p.checkWindow(sig.Duration)
	}
	if p.state != StateTxData {
		p.changeState(StateRxData)
	}
	idx := p.interfSl.StartRx(sig.Psd)
	logger.AssertEqual(len(p.rxSl), idx)
	p.rxSl = append(p.rxSl, entry)
}

// valueAt returns the averaged value of rx index i, or a zero vector if none was reported.
func valueAt(values []spectrum.Value, i int, numRbs int) spectrum.Value {
	if i < len(values) && values[i] != nil {
		return values[i]
	}
	return spectrum.NewValue(numRbs)
}
