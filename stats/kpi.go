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

package stats

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/phy"
	. "github.com/ltesim/ltephy/types"
)

// Clock provides the current simulated time.
type Clock interface {
	Now() SimTime
}

// KpiManager keeps the KPI books of a simulation run between Start and Stop.
type KpiManager struct {
	clock     Clock
	data      *Kpi
	txStart   map[NodeId]SimTime
	isRunning bool
}

// NewKpiManager creates a new KPI manager/bookkeeper.
func NewKpiManager(clock Clock) *KpiManager {
	logger.AssertNotNil(clock)
	km := &KpiManager{clock: clock}
	km.reset()
	return km
}

func (km *KpiManager) reset() {
	km.data = &Kpi{
		Status:   "ok",
		Links:    map[string]*KpiLink{},
		Sci:      KpiSci{Outcomes: map[string]uint64{}},
		Counters: map[NodeId]*NodeCounters{},
		PdrPct:   map[NodeId]float64{},
	}
	km.txStart = map[NodeId]SimTime{}
}

// Start clears all counters and starts the KPI period.
func (km *KpiManager) Start() {
	logger.AssertFalse(km.isRunning)
	km.reset()
	km.data.TimeMs.StartTimeMs = km.clock.Now().Milliseconds()
	km.isRunning = true
}

// Stop ends the KPI period. An interrupted run is flagged in the status.
func (km *KpiManager) Stop(interrupted bool) {
	if !km.isRunning {
		return
	}
	km.calculateKpis()
	if interrupted {
		km.data.Status = "interrupted"
	}
	km.isRunning = false
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

// Data returns the current KPIs.
func (km *KpiManager) Data() *Kpi {
	if km.isRunning {
		km.calculateKpis()
	}
	return km.data
}

// SaveFile writes the KPIs as JSON.
func (km *KpiManager) SaveFile(fn string) error {
	data := km.Data()
	data.FileTime = time.Now().Format(time.RFC3339)
	js, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal KPI data")
	}
	return errors.Wrapf(os.WriteFile(fn, js, 0644), "write KPI file %s", fn)
}

func (km *KpiManager) calculateKpis() {
	km.data.TimeMs.EndTimeMs = km.clock.Now().Milliseconds()
	km.data.TimeMs.PeriodMs = km.data.TimeMs.EndTimeMs - km.data.TimeMs.StartTimeMs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeMs.StartTimeMs) / 1e3
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeMs.EndTimeMs) / 1e3
	km.data.TimeSec.PeriodSec = float64(km.data.TimeMs.PeriodMs) / 1e3

	for _, l := range km.data.Links {
		total := l.TbOk + l.TbError
		l.BlerPercentage = percentage(l.TbError, total)
		// no SINR traced (or none above zero) has no dB value; reported as 0
		l.AvgSinrDb = 0
		if avg := l.sinrSum / float64(total); total > 0 && avg > 0 {
			l.AvgSinrDb = LinearToDb(avg)
		}
	}
	if km.data.Sci.intervalsCount > 0 {
		km.data.Sci.AvgIntervalMs = float64(km.data.Sci.intervalSum) / float64(km.data.Sci.intervalsCount)
	}
	for nid, ctr := range km.data.Counters {
		km.data.PdrPct[nid] = percentage(ctr.RxOkPackets, ctr.RxOkPackets+ctr.RxErrorPackets)
	}
}

func percentage(part, total uint64) float64 {
	p := 100.0 * float64(part) / float64(total)
	if math.IsNaN(p) {
		p = 0.0
	}
	return p
}

func (km *KpiManager) counters(id NodeId) *NodeCounters {
	ctr, ok := km.data.Counters[id]
	if !ok {
		ctr = &NodeCounters{}
		km.data.Counters[id] = ctr
	}
	return ctr
}

func (km *KpiManager) link(name string) *KpiLink {
	l, ok := km.data.Links[name]
	if !ok {
		l = &KpiLink{}
		km.data.Links[name] = l
	}
	return l
}

func (km *KpiManager) PhyTxStart(id NodeId, packets []phy.Packet) {
	if km.isRunning {
		km.counters(id).TxPackets += uint64(len(packets))
	}
}

func (km *KpiManager) PhyTxEnd(id NodeId, packets []phy.Packet) {}

func (km *KpiManager) PhyRxStart(id NodeId, packets []phy.Packet) {
	if km.isRunning {
		km.counters(id).RxPackets += uint64(len(packets))
	}
}

func (km *KpiManager) PhyRxEndOk(id NodeId, p phy.Packet) {
	if km.isRunning {
		km.counters(id).RxOkPackets++
	}
}

func (km *KpiManager) PhyRxEndError(id NodeId, p phy.Packet) {
	if km.isRunning {
		km.counters(id).RxErrorPackets++
	}
}

func (km *KpiManager) StateChanged(id NodeId, old, new phy.State) {
	if !km.isRunning {
		return
	}
	now := km.clock.Now()
	if new.IsTx() {
		km.txStart[id] = now
	} else if start, ok := km.txStart[id]; ok && old.IsTx() {
		km.counters(id).TxTimeMs += (now - start).Milliseconds()
		delete(km.txStart, id)
	}
}

func (km *KpiManager) DlPhyReception(id NodeId, stat phy.ReceptionStat) {
	km.countTb("dl", stat)
}

func (km *KpiManager) UlPhyReception(id NodeId, stat phy.ReceptionStat) {
	km.countTb("ul", stat)
}

func (km *KpiManager) SlPhyReception(id NodeId, stat phy.ReceptionStat) {
	km.countTb("sl", stat)
}

func (km *KpiManager) SlPscchReception(id NodeId, stat phy.SlCtrlStat) {
	if !km.isRunning {
		return
	}
	km.data.Sci.Outcomes[stat.Outcome.String()]++
	if stat.MsgInterval > 0 {
		km.data.Sci.intervalSum += stat.MsgInterval
		km.data.Sci.intervalsCount++
	}
}

func (km *KpiManager) countTb(name string, stat phy.ReceptionStat) {
	if !km.isRunning {
		return
	}
	l := km.link(name)
	if stat.Correct {
		l.TbOk++
	} else {
		l.TbError++
	}
	if !stat.Ndi {
		l.Retransmission++
	}
	l.sinrSum += stat.SinrPerRb
}
