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
	"sort"

	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/logger"
	. "github.com/ltesim/ltephy/types"
)

func (p *SpectrumPhy) rxDataOk(pkt Packet) {
	if p.tracer != nil {
		p.tracer.PhyRxEndOk(p.id, pkt)
	}
	if p.observer != nil {
		p.observer.RxDataOk(pkt)
	}
}

func (p *SpectrumPhy) rxDataError(pkt Packet) {
	if p.tracer != nil {
		p.tracer.PhyRxEndError(p.id, pkt)
	}
}

func (p *SpectrumPhy) rxCtrlOk(msgs []ControlMessage) {
	if p.observer != nil {
		p.observer.RxCtrlOk(msgs)
	}
}

func (p *SpectrumPhy) rxCtrlError() {
	if p.observer != nil {
		p.observer.RxCtrlError()
	}
}

func sortedTbIds(m map[tbId]*tbInfo) []tbId {
	ids := make([]tbId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].rnti != ids[j].rnti {
			return ids[i].rnti < ids[j].rnti
		}
		return ids[i].layer < ids[j].layer
	})
	return ids
}

// endRxData decodes the expected downlink/uplink blocks of the window and reports HARQ feedback.
func (p *SpectrumPhy) endRxData() {
	logger.AssertEqual(StateRxData, p.state)
	p.interfData.EndRx()

	gain := p.txModeGain[p.txMode]
	now := p.rxSubframe()

	// each block is decoded on the SINR of the burst that carried it
	tbIndex := map[tbId]int{}
	for _, e := range p.rxData {
		for _, pkt := range e.packets {
			id := tbId{pkt.Rnti, pkt.Layer}
			if _, ok := tbIndex[id]; !ok {
				tbIndex[id] = e.index
			}
		}
	}

	if p.cfg.DataErrorModelEnabled && len(p.rxData) > 0 {
		for _, id := range sortedTbIds(p.expectedTbs) {
			idx, ok := tbIndex[id]
			if !ok {
				continue
			}
			tb := p.expectedTbs[id]
			sinr := valueAt(p.dataSinr, idx, p.cfg.NumRbs).Scaled(gain)

			var history errormodel.History
			if !tb.ndi {
				if tb.downlink {
					history = p.harq.DlHistory(tb.harqProcessId, id.layer)
				} else {
					history = p.harq.UlHistory(id.rnti, 0)
				}
			}
			stats := p.model.TbStats(errormodel.Request{
				Channel: errormodel.ChannelData,
				Fading:  p.cfg.FadingModel,
				Sinr:    sinr,
				RbMap:   tb.rbMap,
				Size:    tb.size,
				Mcs:     tb.mcs,
				History: history,
			})
			tb.corrupt = p.random.UnitRandom() <= stats.Bler
			tb.mi = stats.Mi
			p.log.Debugf("data TB rnti=%d layer=%d size=%d mcs=%d bler=%.4f corrupt=%v", id.rnti, id.layer, tb.size, tb.mcs, stats.Bler, tb.corrupt)

			if p.tracer != nil {
				stat := ReceptionStat{
					Timestamp: now,
					CellId:    p.cellId,
					Rnti:      id.rnti,
					TxMode:    p.txMode,
					Layer:     id.layer,
					Mcs:       tb.mcs,
					Size:      tb.size,
					Rv:        tb.rv,
					Ndi:       tb.ndi,
					Correct:   !tb.corrupt,
					SinrPerRb: sinr.Mean(tb.rbMap),
					NumRetx:   len(history),
				}
				if tb.downlink {
					p.tracer.DlPhyReception(p.id, stat)
				} else {
					stat.Rv = uint8(len(history))
					p.tracer.UlPhyReception(p.id, stat)
				}
			}
		}
	}

	dlFeedback := map[Rnti]*DlHarqFeedback{}
	for _, e := range p.rxData {
		for _, pkt := range e.packets {
			tb, ok := p.expectedTbs[tbId{pkt.Rnti, pkt.Layer}]
			if !ok {
				continue
			}
			if !tb.corrupt {
				p.rxDataOk(pkt)
			} else {
				p.rxDataError(pkt)
			}

			if tb.harqFeedbackSent {
				continue
			}
			tb.harqFeedbackSent = true
			if tb.downlink {
				p.collectDlFeedback(dlFeedback, pkt, tb)
			} else {
				p.sendUlFeedback(pkt.Rnti, tb)
			}
		}
	}

	rntis := make([]Rnti, 0, len(dlFeedback))
	for rnti := range dlFeedback {
		rntis = append(rntis, rnti)
	}
	sort.Slice(rntis, func(i, j int) bool { return rntis[i] < rntis[j] })
	for _, rnti := range rntis {
		fb := dlFeedback[rnti]
		nack := false
		for _, s := range fb.Status {
			nack = nack || s == Nack
		}
		if !nack {
			p.harq.ResetDl(fb.HarqProcessId)
		}
		if p.observer != nil {
			p.observer.DlHarqFeedback(*fb)
		}
	}

	if len(p.rxCtrlMsgs) > 0 {
		p.rxCtrlOk(p.rxCtrlMsgs)
	}

	p.changeState(StateIdle)
	p.rxData = nil
	p.rxCtrlMsgs = nil
	p.clearExpectedTbs()
}

func (p *SpectrumPhy) sendUlFeedback(rnti Rnti, tb *tbInfo) {
	fb := UlHarqFeedback{
		Rnti:          rnti,
		HarqProcessId: tb.harqProcessId,
		Status:        Ack,
	}
	if tb.corrupt {
		fb.Status = Nack
		p.harq.UpdateUl(rnti, tb.mi, tb.size, errormodel.CodedBytes(tb.size, tb.mcs))
	} else {
		p.harq.ResetUl(rnti, tb.harqProcessId)
	}
	if p.observer != nil {
		p.observer.UlHarqFeedback(fb)
	}
}

// collectDlFeedback merges the outcome of one layer into the feedback of its rnti. Layers without a
// block report ACK. The process is reset once all layers are known to be ACK.
func (p *SpectrumPhy) collectDlFeedback(feedback map[Rnti]*DlHarqFeedback, pkt Packet, tb *tbInfo) {
	fb, ok := feedback[pkt.Rnti]
	if !ok {
		fb = &DlHarqFeedback{
			Rnti:          pkt.Rnti,
			HarqProcessId: tb.harqProcessId,
			Status:        make([]HarqStatus, p.layersNum),
		}
		feedback[pkt.Rnti] = fb
	}
	logger.AssertTruef(int(pkt.Layer) < len(fb.Status), "layer %d out of range for %d layers", pkt.Layer, len(fb.Status))
	if tb.corrupt {
		fb.Status[pkt.Layer] = Nack
		p.harq.UpdateDl(tb.harqProcessId, pkt.Layer, tb.mi, tb.size, errormodel.CodedBytes(tb.size, tb.mcs))
	} else {
		fb.Status[pkt.Layer] = Ack
	}
}

// endRxDlCtrl decodes the PCFICH/PDCCH of the window.
func (p *SpectrumPhy) endRxDlCtrl() {
	logger.AssertEqual(StateRxDlCtrl, p.state)
	p.interfCtrl.EndRx()

	ok := true
	if p.cfg.CtrlErrorModelEnabled {
		sinr := valueAt(p.ctrlSinr, 0, p.cfg.NumRbs)
		if p.txMode > 0 {
			// transmit diversity
			sinr = sinr.Scaled(p.txModeGain[1])
		}
		stats := p.model.TbStats(errormodel.Request{
			Channel: errormodel.ChannelPdcch,
			Fading:  p.cfg.FadingModel,
			Sinr:    sinr,
		})
		ok = p.random.UnitRandom() > stats.Bler
		p.log.Debugf("PCFICH+PDCCH bler=%.4f ok=%v", stats.Bler, ok)
	}

	if ok {
		p.rxCtrlOk(p.rxCtrlMsgs)
	} else {
		p.rxCtrlError()
	}
	p.changeState(StateIdle)
	p.rxCtrlMsgs = nil
}

func (p *SpectrumPhy) endRxUlSrs() {
	logger.AssertEqual(StateRxUlSrs, p.state)
	p.changeState(StateIdle)
	p.interfCtrl.EndRx()
	p.rxCtrlMsgs = nil
}
