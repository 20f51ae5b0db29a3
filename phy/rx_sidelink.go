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
)

func sortedSlTbIds(m map[slTbId]*slTbInfo) []slTbId {
	ids := make([]slTbId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].rnti != ids[j].rnti {
			return ids[i].rnti < ids[j].rnti
		}
		return ids[i].l1dst < ids[j].l1dst
	})
	return ids
}

// endRxSlData closes a sidelink window: PSSCH data first, then the control messages, then discovery.
func (p *SpectrumPhy) endRxSlData() {
	logger.AssertTruef(p.state == StateRxData || p.state == StateTxData, "unexpected state %v at end of sidelink window", p.state)
	p.interfSl.EndRx()

	p.decodePssch()
	p.resolveSlCtrl()
	p.rxDiscovery()

	if p.state == StateRxData {
		p.changeState(StateIdle)
	}
	p.rxSl = nil
	p.ClearExpectedSlTb()
	p.clearExpectedDiscTbs()
}

func (p *SpectrumPhy) decodePssch() {
	tbIndex := map[slTbId]int{}
	for i, e := range p.rxSl {
		for _, pkt := range e.packets {
			id := slTbId{pkt.Rnti, pkt.L1Dst()}
			if _, ok := tbIndex[id]; !ok {
				tbIndex[id] = i
			}
		}
	}
	if len(tbIndex) == 0 {
		return
	}

	ids := sortedSlTbIds(p.expectedSlTbs)
	collided := rbSet{}
	if p.cfg.DropRbOnCollisionEnabled {
		rbMaps := make([][]int, len(ids))
		for n, id := range ids {
			rbMaps[n] = p.expectedSlTbs[id].rbMap
		}
		collided = overlappingRbs(rbMaps)
	}

	now := p.rxSubframe()
	for _, id := range ids {
		idx, ok := tbIndex[id]
		if !ok {
			continue
		}
		tb := p.expectedSlTbs[id]
		collision := collided.touches(tb.rbMap)
		sinr := valueAt(p.slSinr, idx, p.cfg.NumRbs).Scaled(p.slRxGain)
		tb.sinr = sinr.Mean(tb.rbMap)
		tb.corrupt = collision

		var history errormodel.History
		if p.cfg.SlDataErrorModelEnabled {
			if !tb.ndi {
				history = p.harq.SlHistory(id.rnti, id.l1dst)
			}
			stats := p.model.TbStats(errormodel.Request{
				Channel: errormodel.ChannelPssch,
				Fading:  p.cfg.FadingModel,
				Sinr:    sinr,
				RbMap:   tb.rbMap,
				Size:    tb.size,
				Mcs:     tb.mcs,
				History: history,
			})
			tb.sinr = stats.Sinr
			if !collision {
				if p.harq.IsPrevDecoded(id.rnti, id.l1dst) {
					tb.corrupt = false
				} else {
					tb.corrupt = p.random.UnitRandom() <= stats.Bler
				}
			}
			p.log.Debugf("PSSCH TB rnti=%d dst=%d bler=%.4f collision=%v corrupt=%v", id.rnti, id.l1dst, stats.Bler, collision, tb.corrupt)
		}

		if p.tracer != nil {
			p.tracer.SlPhyReception(p.id, ReceptionStat{
				Timestamp: now,
				CellId:    p.cellId,
				Rnti:      id.rnti,
				TxMode:    p.txMode,
				Mcs:       tb.mcs,
				Size:      tb.size,
				Rv:        uint8(len(history)),
				Ndi:       tb.ndi,
				Correct:   !tb.corrupt,
				SinrPerRb: tb.sinr,
				NumRetx:   len(history),
			})
		}
	}

	// the HARQ process of a block advances once per window, whatever the number of packets
	delivered := map[slTbId]bool{}
	for _, e := range p.rxSl {
		for _, pkt := range e.packets {
			id := slTbId{pkt.Rnti, pkt.L1Dst()}
			tb, ok := p.expectedSlTbs[id]
			if !ok {
				continue
			}
			deliver, seen := delivered[id]
			if !seen {
				p.harq.IncreaseTbIdx(id.rnti, id.l1dst)
				deliver = !tb.corrupt && !p.harq.IsPrevDecoded(id.rnti, id.l1dst)
				if deliver {
					p.harq.IndicatePrevDecoded(id.rnti, id.l1dst)
				}
				p.harq.UpdateSl(id.rnti, id.l1dst, tb.sinr)
				delivered[id] = deliver
			}
			if deliver {
				p.rxDataOk(pkt)
			} else {
				p.rxDataError(pkt)
			}
		}
	}
}
