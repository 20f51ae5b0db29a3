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
	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/spectrum"
)

const (
	discoveryMcs  = 0
	discoverySize = 232 // bytes
)

// TransmissionInfo is one scheduled PSDCH transmission of a discovery resource.
type TransmissionInfo struct {
	Subframe uint32
	RbStart  int
	NbRb     int
}

func (t TransmissionInfo) RbMap() []int {
	return spectrum.Rbs(t.RbStart, t.NbRb)
}

// DiscoveryPool gives the PSDCH transmissions (first transmission then retransmissions) of a
// discovery resource.
type DiscoveryPool interface {
	PsdchTransmissions(resPsdch uint32) []TransmissionInfo
}

// StaticPool is a DiscoveryPool with a fixed table of transmissions per resource.
type StaticPool map[uint32][]TransmissionInfo

func (sp StaticPool) PsdchTransmissions(resPsdch uint32) []TransmissionInfo {
	return sp[resPsdch]
}

// SetDiscRxPool adds discovery reception pools.
func (p *SpectrumPhy) SetDiscRxPool(pools ...DiscoveryPool) {
	p.discRxPools = append(p.discRxPools, pools...)
}

// AddDiscRxApps replaces the list of application codes this device listens to.
func (p *SpectrumPhy) AddDiscRxApps(appCodes []uint32) {
	p.discRxApps = map[uint32]struct{}{}
	for _, c := range appCodes {
		p.discRxApps[c] = struct{}{}
	}
}

// AddDiscTxApps replaces the list of application codes this device announces.
func (p *SpectrumPhy) AddDiscTxApps(appCodes []uint32) {
	p.discTxApps = append([]uint32(nil), appCodes...)
}

func (p *SpectrumPhy) DiscTxApps() []uint32 {
	return p.discTxApps
}

func (p *SpectrumPhy) SetDiscNumRetx(retx uint8) {
	p.harq.SetDiscNumRetx(int(retx))
}

// FilterRxApps returns whether the application code of msg is subscribed.
func (p *SpectrumPhy) FilterRxApps(msg *DiscMsg) bool {
	_, ok := p.discRxApps[msg.AppCode]
	return ok
}

func sameRbs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// registerDiscovery registers the expected discovery block of a subscribed message received in rx
// entry index.
func (p *SpectrumPhy) registerDiscovery(index int, msg *DiscMsg) {
	for _, pool := range p.discRxPools {
		txs := pool.PsdchTransmissions(msg.ResPsdch)
		if len(txs) == 0 {
			continue
		}

		txCount := 0
		var rbMap []int
		for _, tx := range txs {
			if sameRbs(tx.RbMap(), p.rxSl[index].rbMap) {
				// first and retransmissions may share RBs in different subframes; the counter
				// below tells them apart
				txCount = 1
				rbMap = tx.RbMap()
				break
			}
		}
		if txCount == 0 {
			p.log.Panicf("discovery from rnti %d does not match any PSDCH transmission of resource %d", msg.Rnti, msg.ResPsdch)
		}

		if len(txs) > 1 {
			count := p.discTxCount[msg.Rnti] + 1
			txCount = count
			if count == len(txs) {
				count = 0
			}
			p.discTxCount[msg.Rnti] = count
		}
		logger.AssertTruef(txCount <= len(txs), "transmission count %d above %d transmissions", txCount, len(txs))
		p.addExpectedDiscTb(msg.Rnti, msg.ResPsdch, index, txCount == 1, rbMap, uint8(txCount-1))
	}
}

// rxDiscovery decodes the discovery messages of the window, strongest first.
func (p *SpectrumPhy) rxDiscovery() {
	found := false
	for i, e := range p.rxSl {
		if e.ctrl == nil || e.ctrl.Type != CtrlDisc {
			continue
		}
		if len(e.packets) > 0 {
			p.log.Panicf("discovery message should not carry data packets")
		}
		found = true
		logger.AssertNotNil(e.ctrl.Disc)
		if p.FilterRxApps(e.ctrl.Disc) {
			p.registerDiscovery(i, e.ctrl.Disc)
		}
	}
	if !found {
		return
	}

	var ranked []rankedEntry
	rbMaps := make([][]int, 0, len(p.expectedDiscTbs))
	byIndex := map[int]discTbId{}
	for id, tb := range p.expectedDiscTbs {
		ranked = append(ranked, rankedEntry{tb.index, valueAt(p.slSinr, tb.index, p.cfg.NumRbs).Mean(tb.rbMap)})
		byIndex[tb.index] = id
	}
	rankBySinr(ranked)
	for _, r := range ranked {
		rbMaps = append(rbMaps, p.expectedDiscTbs[byIndex[r.index]].rbMap)
	}

	collided := rbSet{}
	if p.cfg.DropRbOnCollisionEnabled {
		collided = overlappingRbs(rbMaps)
	}

	now := p.rxSubframe()
	decodedRbs := rbSet{}
	var okList []ControlMessage
	for _, r := range ranked {
		id := byIndex[r.index]
		tb := p.expectedDiscTbs[id]
		prevDecoded := p.harq.IsDiscPrevDecoded(id.rnti, id.resPsdch)

		sinr := valueAt(p.slSinr, tb.index, p.cfg.NumRbs).Scaled(p.slRxGain)
		tb.sinr = sinr.Mean(tb.rbMap)

		var history errormodel.History
		if p.cfg.SlDiscoveryErrorModelEnabled {
			if !tb.ndi {
				history = p.harq.DiscHistory(id.rnti, id.resPsdch)
			}
			tb.corrupt = collided.touches(tb.rbMap) || decodedRbs.touches(tb.rbMap)
			stats := p.model.TbStats(errormodel.Request{
				Channel: errormodel.ChannelPsdch,
				Fading:  p.cfg.FadingModel,
				Sinr:    sinr,
				RbMap:   tb.rbMap,
				History: history,
			})
			tb.sinr = stats.Sinr
			if !tb.corrupt {
				if prevDecoded {
					tb.corrupt = false
				} else {
					tb.corrupt = p.random.UnitRandom() <= stats.Bler
				}
			}
			p.log.Debugf("PSDCH rnti=%d res=%d bler=%.4f corrupt=%v", id.rnti, id.resPsdch, stats.Bler, tb.corrupt)

			if !tb.corrupt {
				if !prevDecoded {
					p.harq.IndicateDiscPrevDecoded(id.rnti, id.resPsdch)
					okList = append(okList, *p.rxSl[tb.index].ctrl)
				}
				decodedRbs.add(tb.rbMap)
			}
			p.harq.UpdateDisc(id.rnti, id.resPsdch, tb.sinr)
		} else {
			tb.corrupt = collided.touches(tb.rbMap)
			if !tb.corrupt && !prevDecoded {
				p.harq.IndicateDiscPrevDecoded(id.rnti, id.resPsdch)
				okList = append(okList, *p.rxSl[tb.index].ctrl)
			}
		}

		if p.tracer != nil {
			p.tracer.SlPhyReception(p.id, ReceptionStat{
				Timestamp: now,
				CellId:    p.cellId,
				Rnti:      id.rnti,
				TxMode:    p.txMode,
				Mcs:       discoveryMcs,
				Size:      discoverySize,
				Rv:        uint8(len(history)),
				Ndi:       tb.ndi,
				Correct:   !tb.corrupt,
				SinrPerRb: tb.sinr,
				NumRetx:   len(history),
			})
		}
	}

	if len(okList) > 0 {
		if p.observer == nil {
			p.log.Panicf("discovery decoded without an observer")
		}
		p.rxCtrlOk(okList)
	} else {
		p.rxCtrlError()
	}
}
