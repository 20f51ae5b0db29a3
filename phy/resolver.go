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
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// rankedEntry is a sidelink rx entry ordered by its mean SINR.
type rankedEntry struct {
	index int
	sinr  float64
}

// rankBySinr sorts by descending SINR; ties keep the lower rx index first.
func rankBySinr(entries []rankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sinr != entries[j].sinr {
			return entries[i].sinr > entries[j].sinr
		}
		return entries[i].index < entries[j].index
	})
}

type rbSet map[int]struct{}

func (s rbSet) add(rbMap []int) {
	for _, rb := range rbMap {
		s[rb] = struct{}{}
	}
}

// touches returns whether any RB of rbMap is in s.
func (s rbSet) touches(rbMap []int) bool {
	for _, rb := range rbMap {
		if _, ok := s[rb]; ok {
			return true
		}
	}
	return false
}

// overlappingRbs returns every RB used by two or more of the given maps.
func overlappingRbs(rbMaps [][]int) rbSet {
	seen, collided := rbSet{}, rbSet{}
	for _, rbMap := range rbMaps {
		for _, rb := range rbMap {
			if _, ok := seen[rb]; ok {
				collided[rb] = struct{}{}
			} else {
				seen[rb] = struct{}{}
			}
		}
	}
	return collided
}

// resolveSlCtrl decodes the SCI and MIB-SL messages of the window, strongest first. A message on a
// resource block claimed by an already decoded message is lost.
func (p *SpectrumPhy) resolveSlCtrl() {
	var candidates []rankedEntry
	for i, e := range p.rxSl {
		if e.ctrl == nil || e.ctrl.Type == CtrlDisc {
			continue
		}
		candidates = append(candidates, rankedEntry{i, valueAt(p.slSinr, i, p.cfg.NumRbs).Mean(e.rbMap)})
	}
	if len(candidates) == 0 {
		return
	}
	rankBySinr(candidates)

	collided := rbSet{}
	if p.cfg.DropRbOnCollisionEnabled {
		rbMaps := make([][]int, len(candidates))
		for n, c := range candidates {
			rbMaps[n] = p.rxSl[c.index].rbMap
		}
		collided = overlappingRbs(rbMaps)
	}

	now := p.rxSubframe()
	isTx := p.state == StateTxData || (p.nextTxTimeSet && p.nextTxTime == now)
	decodedRbs := rbSet{}
	var okList []ControlMessage

	for _, c := range candidates {
		e := p.rxSl[c.index]
		var corrupt, collision, weak, conflict bool
		first := true

		if p.cfg.SlCtrlErrorModelEnabled {
			for _, rb := range e.rbMap {
				if _, ok := collided[rb]; ok {
					corrupt, collision = true, true
					break
				}
				if _, ok := decodedRbs[rb]; ok {
					corrupt, conflict, first = true, true, false
					break
				}
			}
			if !corrupt {
				sinr := valueAt(p.slSinr, c.index, p.cfg.NumRbs).Scaled(p.slRxGain)
				switch e.ctrl.Type {
				case CtrlSci:
					// the signal must first stand out of the noise, then survive the interference
					snr := valueAt(p.slSnr, c.index, p.cfg.NumRbs).Scaled(p.slRxGain)
					weak = p.random.UnitRandom() <= p.ctrlBler(errormodel.ChannelPscch, snr, e.rbMap)
					if !weak {
						conflict = p.random.UnitRandom() <= p.ctrlBler(errormodel.ChannelPscch, sinr, e.rbMap)
					}
				case CtrlMibSl:
					corrupt = p.random.UnitRandom() <= p.ctrlBler(errormodel.ChannelPsbch, sinr, e.rbMap)
				}
			}
		} else {
			collision = collided.touches(e.rbMap)
			corrupt = collision
		}

		decoded := !weak && !conflict && !corrupt
		if decoded {
			okList = append(okList, *e.ctrl)
			decodedRbs.add(e.rbMap)
		}
		p.log.Debugf("SL ctrl %v index=%d sinr=%.3f decoded=%v weak=%v conflict=%v collision=%v",
			e.ctrl.Type, c.index, c.sinr, decoded, weak, conflict, collision)

		if e.ctrl.Type == CtrlSci {
			p.traceSci(e, c.sinr, now, decoded, weak, conflict, isTx)
		}
		if first && !isTx {
			p.updateRssiRsrp(c.index, decoded)
		}
	}

	if len(okList) > 0 {
		p.rxCtrlOk(okList)
	} else {
		p.rxCtrlError()
	}
}

func (p *SpectrumPhy) ctrlBler(ch errormodel.Channel, sinr spectrum.Value, rbMap []int) float64 {
	return p.model.TbStats(errormodel.Request{
		Channel: ch,
		Fading:  p.cfg.FadingModel,
		Sinr:    sinr,
		RbMap:   rbMap,
	}).Bler
}

func (p *SpectrumPhy) traceSci(e slRxEntry, meanSinr float64, now uint64, decoded, weak, conflict, isTx bool) {
	sci := e.ctrl.Sci
	if sci == nil {
		p.log.Warnf("SCI message without content")
		return
	}

	stat := SlCtrlStat{
		Timestamp:  now,
		CellId:     p.cellId,
		Sci:        *sci,
		Correct:    decoded && !isTx,
		WeakSignal: weak,
		Conflict:   conflict,
		HalfDuplex: isTx,
		MeanSinr:   meanSinr,
	}
	switch {
	case isTx:
		stat.Outcome = SlCtrlHalfDuplex
	case decoded:
		stat.Outcome = SlCtrlOk
	case weak:
		stat.Outcome = SlCtrlWeakSignal
	case conflict:
		stat.Outcome = SlCtrlConflict
	default:
		stat.Outcome = SlCtrlCollision
	}

	if stat.Correct {
		if last, ok := p.lastSciReception[sci.Rnti]; ok {
			stat.MsgInterval = now - last
		}
		p.lastSciReception[sci.Rnti] = now
	}

	if p.tracer != nil {
		p.tracer.SlPscchReception(p.id, stat)
	}
}

// LastSciReception returns the subframe (ms) of the last correct SCI received from rnti.
func (p *SpectrumPhy) LastSciReception(rnti Rnti) (uint64, bool) {
	ms, ok := p.lastSciReception[rnti]
	return ms, ok
}
