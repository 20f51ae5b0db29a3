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

package simulation

import (
	"github.com/ltesim/ltephy/phy"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// NodeCounters are the MAC-side counters of a UE.
type NodeCounters struct {
	TxTransmissions uint64
	TxTbs           uint64
	RxPackets       map[Rnti]uint64 // decoded packets per source
	RxSci           uint64
	RxCtrlErrors    uint64
	TxDiscovery     uint64
	RxDiscovery     map[uint32]uint64 // decoded announcements per application code
	Reselections    uint64
}

// Node is a sidelink UE: a phy plus a minimal MAC that sends one transport block every period.
type Node struct {
	Id       NodeId
	cfg      UeConfig
	phy      *phy.SpectrumPhy
	rbMap    []int
	numRbs   int
	txCount  int // transmissions of the current transport block
	counters NodeCounters

	rbPerSubChannel int
	sensingWindow   int
	discRes         uint32 // own PSDCH resource, when announcing
}

func newNode(cfg UeConfig, p *phy.SpectrumPhy, phyCfg *phy.Config) *Node {
	n := &Node{
		Id:              cfg.Id,
		cfg:             cfg,
		phy:             p,
		numRbs:          phyCfg.NumRbs,
		rbPerSubChannel: phyCfg.RbPerSubChannel,
		sensingWindow:   phyCfg.SensingWindow,
		counters: NodeCounters{
			RxPackets:   map[Rnti]uint64{},
			RxDiscovery: map[uint32]uint64{},
		},
	}
	if cfg.PeriodMs > 0 {
		n.rbMap = spectrum.Rbs(cfg.RbStart, cfg.RbLen)
	}
	for _, g := range append([]GroupId{cfg.Group}, cfg.Listen...) {
		if g != NoGroup {
			p.AddL1GroupId(g)
		}
	}
	p.SetObserver(n)
	return n
}

func (n *Node) Phy() *phy.SpectrumPhy {
	return n.phy
}

func (n *Node) Config() UeConfig {
	return n.cfg
}

func (n *Node) Counters() NodeCounters {
	return n.counters
}

func (n *Node) rnti() Rnti {
	return Rnti(n.Id)
}

func (n *Node) isTxSubframe(sf uint64) bool {
	if n.cfg.PeriodMs <= 0 || sf < uint64(n.cfg.OffsetMs) {
		return false
	}
	return (sf-uint64(n.cfg.OffsetMs))%uint64(n.cfg.PeriodMs) == 0
}

// listens tells if frames addressed to group reach this node's MAC.
func (n *Node) listens(group GroupId) bool {
	if group == NoGroup || group == n.cfg.Group {
		return true
	}
	for _, g := range n.cfg.Listen {
		if g == group {
			return true
		}
	}
	return false
}

// nextTransmission advances the HARQ position: a new block every Transmissions transmissions.
func (n *Node) nextTransmission() (ndi bool, rv uint8) {
	if n.txCount == n.cfg.Transmissions {
		n.txCount = 0
	}
	n.txCount++
	if n.txCount == 1 {
		n.counters.TxTbs++
	}
	return n.txCount == 1, uint8((n.txCount - 1) % 4)
}

func (n *Node) transmit(sf uint64) {
	n.counters.TxTransmissions++
	packets := []phy.Packet{{
		Rnti:    n.rnti(),
		DstL2Id: uint32(n.cfg.Group),
		Size:    n.cfg.TbSize,
	}}
	sci := phy.NewSciMessage(phy.Sci{
		Rnti:       n.rnti(),
		GroupDstId: n.cfg.Group,
		Mcs:        n.cfg.Mcs,
		TbSize:     n.cfg.TbSize,
		RbStart:    n.rbMap[0],
		RbLen:      n.cfg.RbLen,
		Priority:   n.cfg.Priority,
		ResReserve: uint16(n.cfg.PeriodMs),
		FrameNo:    uint16(sf/10) % 1024,
		SubframeNo: uint8(sf % 10),
	})
	n.phy.SetTxPsd(spectrum.NewTxPsd(n.numRbs, n.rbMap, n.cfg.TxPowerDbm))
	n.phy.StartTxSlDataFrame(packets, []phy.ControlMessage{sci}, SubframeDuration-Nanosecond, n.cfg.Group)
}

// selectResource moves the next transport block to the subchannel with the lowest RSSI sensed in the
// same subframe one sensing window ago. Candidates are visited in the order the phy provides them, the
// first one wins a tie.
func (n *Node) selectResource(sf uint64) {
	numSc := (n.numRbs + n.rbPerSubChannel - 1) / n.rbPerSubChannel
	cur := n.rbMap[0] / n.rbPerSubChannel
	sfIdx := int(sf % uint64(n.sensingWindow))
	rssi := n.phy.RssiMap()

	best, bestRssi := -1, 0.0
	for _, sc := range n.phy.FeedbackProvidedResources(cur, sfIdx, numSc, numSc) {
		if sc*n.rbPerSubChannel+n.cfg.RbLen > n.numRbs {
			continue
		}
		if best < 0 || rssi[sc][sfIdx] < bestRssi {
			best, bestRssi = sc, rssi[sc][sfIdx]
		}
	}
	if best >= 0 && best != cur {
		n.rbMap = spectrum.Rbs(best*n.rbPerSubChannel, n.cfg.RbLen)
		n.counters.Reselections++
	}
}

func (n *Node) announces() bool {
	return len(n.cfg.Announce) > 0
}

// announce sends the discovery message of the period.
func (n *Node) announce(period uint64, rbMap []int) {
	n.counters.TxDiscovery++
	msg := phy.NewDiscMessage(phy.DiscMsg{
		Rnti:     n.rnti(),
		ResPsdch: n.discRes,
		AppCode:  n.cfg.Announce[period%uint64(len(n.cfg.Announce))],
	})
	n.phy.SetTxPsd(spectrum.NewTxPsd(n.numRbs, rbMap, n.cfg.TxPowerDbm))
	n.phy.StartTxSlDataFrame(nil, []phy.ControlMessage{msg}, SubframeDuration-Nanosecond, NoGroup)
}

func (n *Node) RxDataOk(p phy.Packet) {
	n.counters.RxPackets[p.Rnti]++
}

func (n *Node) RxCtrlOk(msgs []phy.ControlMessage) {
	for _, m := range msgs {
		switch m.Type {
		case phy.CtrlSci:
			n.counters.RxSci++
		case phy.CtrlDisc:
			n.counters.RxDiscovery[m.Disc.AppCode]++
		}
	}
}

func (n *Node) RxCtrlError() {
	n.counters.RxCtrlErrors++
}

func (n *Node) DlHarqFeedback(fb phy.DlHarqFeedback) {}

func (n *Node) UlHarqFeedback(fb phy.UlHarqFeedback) {}
