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
	. "github.com/ltesim/ltephy/types"
)

type tbId struct {
	rnti  Rnti
	layer uint8
}

type tbInfo struct {
	ndi              bool
	size             uint16
	mcs              uint8
	rbMap            []int
	harqProcessId    uint8
	rv               uint8
	mi               float64
	downlink         bool
	corrupt          bool
	harqFeedbackSent bool
}

type slTbId struct {
	rnti  Rnti
	l1dst GroupId
}

type slTbInfo struct {
	ndi     bool
	size    uint16
	mcs     uint8
	rbMap   []int
	rv      uint8
	sinr    float64
	corrupt bool
}

type discTbId struct {
	rnti     Rnti
	resPsdch uint32
}

type discTbInfo struct {
	index   int // sidelink rx entry carrying the message
	ndi     bool
	rbMap   []int
	rv      uint8
	sinr    float64
	corrupt bool
}

// AddExpectedTb registers a downlink or uplink block the MAC scheduled for this window. A block
// with the same (rnti, layer) is replaced.
func (p *SpectrumPhy) AddExpectedTb(rnti Rnti, ndi bool, size uint16, mcs uint8, rbMap []int, layer uint8, harqId uint8, rv uint8, downlink bool) {
	id := tbId{rnti, layer}
	if _, ok := p.expectedTbs[id]; ok {
		p.log.Tracef("replacing expected TB rnti=%d layer=%d", rnti, layer)
	}
	p.expectedTbs[id] = &tbInfo{
		ndi:           ndi,
		size:          size,
		mcs:           mcs,
		rbMap:         rbMap,
		harqProcessId: harqId,
		rv:            rv,
		downlink:      downlink,
	}
	p.log.Tracef("expected TB rnti=%d layer=%d size=%d mcs=%d harq=%d rv=%d dl=%v", rnti, layer, size, mcs, harqId, rv, downlink)
}

// AddExpectedSlTb registers a sidelink block announced by an SCI. New data resets the HARQ process
// of (rnti, l1dst).
func (p *SpectrumPhy) AddExpectedSlTb(rnti Rnti, l1dst GroupId, ndi bool, size uint16, mcs uint8, rbMap []int, rv uint8) {
	id := slTbId{rnti, l1dst}
	p.expectedSlTbs[id] = &slTbInfo{
		ndi:   ndi,
		size:  size,
		mcs:   mcs,
		rbMap: rbMap,
		rv:    rv,
	}
	if ndi {
		p.harq.ResetSl(rnti, l1dst)
		p.harq.ResetPrevDecoded(rnti, l1dst)
		p.harq.ResetTbIdx(rnti, l1dst)
	}
	p.log.Tracef("expected SL TB rnti=%d dst=%d size=%d mcs=%d rv=%d ndi=%v", rnti, l1dst, size, mcs, rv, ndi)
}

// addExpectedDiscTb registers a discovery message of the current window.
func (p *SpectrumPhy) addExpectedDiscTb(rnti Rnti, resPsdch uint32, index int, ndi bool, rbMap []int, rv uint8) {
	p.expectedDiscTbs[discTbId{rnti, resPsdch}] = &discTbInfo{
		index: index,
		ndi:   ndi,
		rbMap: rbMap,
		rv:    rv,
	}
	if ndi {
		p.harq.ResetDisc(rnti, resPsdch)
		p.harq.ResetDiscPrevDecoded(rnti, resPsdch)
	}
	p.log.Tracef("expected discovery TB rnti=%d res=%d rv=%d ndi=%v", rnti, resPsdch, rv, ndi)
}

func (p *SpectrumPhy) clearExpectedTbs() {
	p.expectedTbs = map[tbId]*tbInfo{}
}

// ClearExpectedSlTb drops every registered sidelink block.
func (p *SpectrumPhy) ClearExpectedSlTb() {
	p.expectedSlTbs = map[slTbId]*slTbInfo{}
}

func (p *SpectrumPhy) clearExpectedDiscTbs() {
	p.expectedDiscTbs = map[discTbId]*discTbInfo{}
}

// NumExpectedTbs returns the number of registered downlink/uplink, sidelink and discovery blocks.
func (p *SpectrumPhy) NumExpectedTbs() (data, sidelink, discovery int) {
	return len(p.expectedTbs), len(p.expectedSlTbs), len(p.expectedDiscTbs)
}
