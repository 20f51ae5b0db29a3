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

// Package simulation runs sidelink scenarios: a set of UEs, each with a SpectrumPhy attached to a shared
// spectrum channel, driven subframe by subframe on a discrete-event scheduler.
package simulation

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/ltesim/ltephy/channel"
	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/phy"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

type Simulation struct {
	cfg      *Config
	phyCfg   *phy.Config
	sched    *event.Scheduler
	channel  *channel.SpectrumChannel
	nodes    map[NodeId]*Node
	nodeIds  []NodeId
	subframe uint64
	endTime  SimTime

	announcers []*Node // in PSDCH resource order
	discRbMap  []int
}

// NewSimulation builds the scenario's UEs. The tracer may be nil.
func NewSimulation(cfg *Config, phyCfg *phy.Config, tracer phy.Tracer) (*Simulation, error) {
	if phyCfg == nil {
		phyCfg = phy.DefaultConfig()
	}
	if err := phyCfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(phyCfg.NumRbs); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	params, err := channel.NewModelParams(cfg.Model, cfg.CarrierGHz)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:     cfg,
		phyCfg:  phyCfg,
		sched:   event.NewScheduler(),
		nodes:   map[NodeId]*Node{},
		endTime: SimTime(cfg.DurationMs) * Millisecond,
	}
	s.channel = channel.NewSpectrumChannel(s.sched, params)
	s.channel.MinRxPowerDbm = cfg.MinRxPowerDbm

	noise := spectrum.NewNoisePsd(phyCfg.NumRbs, cfg.NoiseFigureDb)
	for _, ueCfg := range cfg.Ues {
		p := phy.NewSpectrumPhy(ueCfg.Id, s.sched, phyCfg, nil, nil)
		p.SetNoisePsd(noise)
		if tracer != nil {
			p.SetTracer(tracer)
		}
		node := newNode(ueCfg, p, phyCfg)
		s.channel.Attach(p, ueCfg.X, ueCfg.Y)
		s.nodes[ueCfg.Id] = node
		s.nodeIds = append(s.nodeIds, ueCfg.Id)
	}
	sort.Slice(s.nodeIds, func(i, j int) bool { return s.nodeIds[i] < s.nodeIds[j] })
	if cfg.Discovery != nil {
		s.setupDiscovery()
	}
	logger.Infof("simulation: %d UEs, model %s, %d ms", len(s.nodeIds), params.Name, cfg.DurationMs)
	return s, nil
}

// setupDiscovery gives every announcing UE its PSDCH resource and hands the pool to the monitoring ones.
func (s *Simulation) setupDiscovery() {
	dc := s.cfg.Discovery
	s.discRbMap = spectrum.Rbs(0, dc.RbLen)
	pool := phy.StaticPool{}
	for _, id := range s.nodeIds {
		n := s.nodes[id]
		if !n.announces() {
			continue
		}
		n.discRes = uint32(len(s.announcers))
		for k := 0; k < dc.Transmissions; k++ {
			pool[n.discRes] = append(pool[n.discRes], phy.TransmissionInfo{
				Subframe: uint32(len(s.announcers)*dc.Transmissions + k),
				RbStart:  0,
				NbRb:     dc.RbLen,
			})
		}
		n.phy.AddDiscTxApps(n.cfg.Announce)
		s.announcers = append(s.announcers, n)
	}
	for _, id := range s.nodeIds {
		n := s.nodes[id]
		if len(n.cfg.Monitor) == 0 {
			continue
		}
		n.phy.SetDiscRxPool(pool)
		n.phy.AddDiscRxApps(n.cfg.Monitor)
		n.phy.SetDiscNumRetx(uint8(dc.Transmissions - 1))
	}
}

// announcerAt returns the UE announcing in subframe sf and the discovery period, if any.
func (s *Simulation) announcerAt(sf uint64) (*Node, uint64) {
	dc := s.cfg.Discovery
	if dc == nil || len(s.announcers) == 0 || sf < uint64(dc.OffsetMs) {
		return nil, 0
	}
	period := (sf - uint64(dc.OffsetMs)) / uint64(dc.PeriodMs)
	pos := int((sf - uint64(dc.OffsetMs)) % uint64(dc.PeriodMs))
	if r := pos / dc.Transmissions; r < len(s.announcers) {
		return s.announcers[r], period
	}
	return nil, 0
}

// Scheduler returns the event scheduler; it is also the simulation clock.
func (s *Simulation) Scheduler() *event.Scheduler {
	return s.sched
}

func (s *Simulation) Channel() *channel.SpectrumChannel {
	return s.channel
}

func (s *Simulation) GetNodes() []NodeId {
	return append([]NodeId(nil), s.nodeIds...)
}

func (s *Simulation) Node(id NodeId) *Node {
	return s.nodes[id]
}

// Run executes the scenario until its duration has elapsed or ctx is done.
func (s *Simulation) Run(ctx context.Context) error {
	logger.AssertTrue(s.subframe == 0, "simulation already ran")
	s.sched.Schedule(0, s.onSubframe)
	return s.sched.RunUntil(ctx, s.endTime)
}

func (s *Simulation) onSubframe() {
	sf := s.subframe
	s.subframe++

	// an announcing UE skips its data transmission in its discovery subframes
	announcer, discPeriod := s.announcerAt(sf)
	busy := map[*Node]bool{}
	if announcer != nil {
		busy[announcer] = true
	}
	var txs []*Node
	for _, id := range s.nodeIds {
		n := s.nodes[id]
		n.phy.ClearExpectedSlTb()
		n.phy.HarqTable().SubframeIndication()
		if n.isTxSubframe(sf) && n != announcer {
			txs = append(txs, n)
			busy[n] = true
		}
	}

	// every receiver learns the blocks of this subframe before the frames arrive
	for _, tx := range txs {
		ndi, rv := tx.nextTransmission()
		if ndi && tx.cfg.Reselect {
			tx.selectResource(sf)
		}
		for _, id := range s.nodeIds {
			rx := s.nodes[id]
			if busy[rx] || !rx.listens(tx.cfg.Group) {
				continue
			}
			rx.phy.AddExpectedSlTb(tx.rnti(), tx.cfg.Group, ndi, tx.cfg.TbSize, tx.cfg.Mcs, tx.rbMap, rv)
		}
	}

	// this subframe's slot of the sensing window is measured again
	for _, id := range s.nodeIds {
		s.nodes[id].phy.MoveSensingWindow(int(sf%uint64(s.phyCfg.SensingWindow)), 1)
	}

	for _, tx := range txs {
		tx.transmit(sf)
	}
	if announcer != nil {
		announcer.announce(discPeriod, s.discRbMap)
	}

	for _, intf := range s.cfg.Interferers {
		if sf >= uint64(intf.OffsetMs) && (sf-uint64(intf.OffsetMs))%uint64(intf.PeriodMs) == 0 {
			psd := spectrum.NewTxPsd(s.phyCfg.NumRbs, spectrum.Rbs(intf.RbStart, intf.RbLen), intf.PowerDbm)
			s.channel.Interfere(psd, SubframeDuration-Nanosecond, intf.X, intf.Y)
		}
	}

	if s.sched.Now()+SubframeDuration < s.endTime {
		s.sched.Schedule(SubframeDuration, s.onSubframe)
	}
}
