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

// Package channel implements the spectrum channel connecting the PHY devices of a simulation. It applies
// path loss and fading to every transmission and hands a copy to each other attached device.
package channel

import (
	"sort"

	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/phy"
	"github.com/ltesim/ltephy/prng"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// InterfererId is the origin of signals injected with Interfere.
const InterfererId NodeId = MaxNodeId

// SpectrumChannel delivers signals between attached receivers.
type SpectrumChannel struct {
	sched  *event.Scheduler
	params *ModelParams
	fading *fadingModel
	nodes  map[NodeId]*Node
	order  []NodeId

	// MinRxPowerDbm drops deliveries whose total received power is below it. Zero disables the cut-off.
	MinRxPowerDbm DbValue

	numTx       map[phy.SignalKind]uint64
	numDelivery uint64
}

// NewSpectrumChannel creates a channel using the given propagation model.
func NewSpectrumChannel(sched *event.Scheduler, params *ModelParams) *SpectrumChannel {
	logger.AssertNotNil(params)
	return &SpectrumChannel{
		sched:  sched,
		params: params,
		fading: newFadingModel(prng.NewChannelRandomSeed()),
		nodes:  map[NodeId]*Node{},
		numTx:  map[phy.SignalKind]uint64{},
	}
}

func (c *SpectrumChannel) Params() *ModelParams {
	return c.params
}

// Attach adds a receiver at the given position. If the receiver can transmit (it has a SetChannel method),
// it is connected to this channel.
func (c *SpectrumChannel) Attach(rx Receiver, x, y float64) *Node {
	id := rx.Id()
	logger.AssertTrue(id != InterfererId, "node id reserved for interferers")
	if _, ok := c.nodes[id]; ok {
		logger.Panicf("node %d already attached", id)
	}
	node := &Node{Id: id, X: x, Y: y, rx: rx}
	c.nodes[id] = node
	c.order = append(c.order, id)
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	if tx, ok := rx.(interface{ SetChannel(phy.Channel) }); ok {
		tx.SetChannel(c)
	}
	return node
}

// Detach removes a receiver; it no longer receives signals.
func (c *SpectrumChannel) Detach(id NodeId) {
	if _, ok := c.nodes[id]; !ok {
		return
	}
	delete(c.nodes, id)
	for i, nid := range c.order {
		if nid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Move sets the position of an attached node. Signals already delivered keep their power.
func (c *SpectrumChannel) Move(id NodeId, x, y float64) {
	node, ok := c.nodes[id]
	if !ok {
		logger.Panicf("node %d not attached", id)
	}
	node.X, node.Y = x, y
}

func (c *SpectrumChannel) Node(id NodeId) *Node {
	return c.nodes[id]
}

// LinkLossDb returns the current path loss plus fading between two positions.
func (c *SpectrumChannel) LinkLossDb(src, dst *Node) DbValue {
	loss := pathlossDb(src.GetDistanceTo(dst), c.params)
	loss += c.fading.computeFading(src, dst, c.params, c.sched.Now())
	if loss < 0.0 {
		loss = 0.0
	}
	return loss
}

// StartTx implements phy.Channel. The signal reaches every other attached node in the same timestamp,
// after the transmitter finished its own state change.
func (c *SpectrumChannel) StartTx(sig *phy.Signal) {
	src, ok := c.nodes[sig.Origin]
	if !ok {
		logger.Panicf("transmission from unattached node %d", sig.Origin)
	}
	c.startTx(src, sig)
}

// Interfere injects a foreign signal with the given PSD (W per RB at the source) at a position.
func (c *SpectrumChannel) Interfere(psd spectrum.Value, duration SimTime, x, y float64) {
	src := &Node{Id: InterfererId, X: x, Y: y}
	c.startTx(src, &phy.Signal{
		Kind:     phy.KindOther,
		Psd:      psd,
		Duration: duration,
		Origin:   InterfererId,
	})
}

func (c *SpectrumChannel) startTx(src *Node, sig *phy.Signal) {
	c.numTx[sig.Kind]++
	for _, id := range c.order {
		if id == src.Id {
			continue
		}
		dst := c.nodes[id]
		rxPsd := sig.Psd.Scaled(DbToLinear(-c.LinkLossDb(src, dst)))
		if c.MinRxPowerDbm != 0 && WattToDbm(rxPsd.Sum()) < c.MinRxPowerDbm {
			continue
		}
		rxSig := sig.WithPsd(rxPsd)
		c.numDelivery++
		c.sched.Schedule(0, func() {
			// the node may have been detached meanwhile
			if c.nodes[dst.Id] == dst {
				dst.rx.StartRx(rxSig)
			}
		})
	}
}

// NumTx returns the number of transmissions of a kind.
func (c *SpectrumChannel) NumTx(kind phy.SignalKind) uint64 {
	return c.numTx[kind]
}

func (c *SpectrumChannel) NumDeliveries() uint64 {
	return c.numDelivery
}
