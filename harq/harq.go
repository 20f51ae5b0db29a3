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

// Package harq keeps the PHY-level HARQ state: the history of failed attempts that the error model
// combines with a retransmission, per downlink process, uplink subframe and sidelink/discovery flow.
package harq

import (
	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/logger"
	. "github.com/ltesim/ltephy/types"
)

type Config struct {
	NumDlProcesses int `yaml:"num_dl_processes" env:"NUM_DL_PROCESSES"`
	NumLayers      int `yaml:"num_layers" env:"NUM_LAYERS"`
	// UlRingSize is the number of subframes an uplink history is kept, i.e. the uplink HARQ RTT.
	UlRingSize  int `yaml:"ul_ring_size" env:"UL_RING_SIZE"`
	DiscNumRetx int `yaml:"disc_num_retx" env:"DISC_NUM_RETX"`
}

func DefaultConfig() Config {
	return Config{
		NumDlProcesses: 8,
		NumLayers:      2,
		UlRingSize:     8,
		DiscNumRetx:    0,
	}
}

type slKey struct {
	rnti Rnti
	dst  GroupId
}

type discKey struct {
	rnti     Rnti
	resPsdch uint32
}

// slProcess is the receive-side state of one sidelink or discovery flow.
type slProcess struct {
	history     errormodel.History
	prevDecoded bool
	tbIdx       int
}

// Table is the HARQ state of one receiver. It is not safe for concurrent use.
type Table struct {
	cfg  Config
	dl   [][]errormodel.History // [process][layer]
	ul   map[Rnti]*RingBuffer[errormodel.History]
	sl   map[slKey]*slProcess
	disc map[discKey]*slProcess
}

func NewTable(cfg Config) *Table {
	logger.AssertTrue(cfg.NumDlProcesses > 0 && cfg.NumLayers > 0 && cfg.UlRingSize > 0)
	t := &Table{
		cfg:  cfg,
		ul:   map[Rnti]*RingBuffer[errormodel.History]{},
		sl:   map[slKey]*slProcess{},
		disc: map[discKey]*slProcess{},
	}
	t.dl = make([][]errormodel.History, cfg.NumDlProcesses)
	for i := range t.dl {
		t.dl[i] = make([]errormodel.History, cfg.NumLayers)
	}
	return t
}

func (t *Table) Config() Config {
	return t.cfg
}

func (t *Table) checkDl(procId uint8, layer uint8) {
	logger.AssertTruef(int(procId) < t.cfg.NumDlProcesses && int(layer) < t.cfg.NumLayers,
		"DL HARQ process %d layer %d out of range", procId, layer)
}

// DlHistory returns a copy of the history of a downlink process on a layer.
func (t *Table) DlHistory(procId uint8, layer uint8) errormodel.History {
	t.checkDl(procId, layer)
	return append(errormodel.History(nil), t.dl[procId][layer]...)
}

func (t *Table) UpdateDl(procId uint8, layer uint8, mi float64, infoBytes uint16, codeBytes float64) {
	t.checkDl(procId, layer)
	t.dl[procId][layer] = append(t.dl[procId][layer], errormodel.HarqInfo{
		Mi:        mi,
		InfoBytes: infoBytes,
		CodeBytes: codeBytes,
	})
}

// ResetDl clears a downlink process on all layers.
func (t *Table) ResetDl(procId uint8) {
	t.checkDl(procId, 0)
	for layer := range t.dl[procId] {
		t.dl[procId][layer] = nil
	}
}

func (t *Table) ulRing(rnti Rnti) *RingBuffer[errormodel.History] {
	ring, ok := t.ul[rnti]
	if !ok {
		ring = NewRingBuffer[errormodel.History](t.cfg.UlRingSize)
		for i := 0; i < t.cfg.UlRingSize; i++ {
			ring.Push(nil)
		}
		t.ul[rnti] = ring
	}
	return ring
}

// UlHistory returns the uplink history of rnti stored harqId subframes after the oldest slot. The
// oldest slot (harqId 0) holds what was recorded one HARQ round trip ago.
func (t *Table) UlHistory(rnti Rnti, harqId uint8) errormodel.History {
	ring, ok := t.ul[rnti]
	if !ok {
		return nil
	}
	slot := ring.At(int(harqId))
	if slot == nil {
		return nil
	}
	return append(errormodel.History(nil), (*slot)...)
}

// UpdateUl records a failed uplink attempt of rnti in the current subframe.
func (t *Table) UpdateUl(rnti Rnti, mi float64, infoBytes uint16, codeBytes float64) {
	slot := t.ulRing(rnti).Newest()
	prev := t.UlHistory(rnti, 0)
	if len(*slot) == 0 && len(prev) > 0 {
		// a retransmission carries its history forward to the next round trip
		*slot = prev
	}
	*slot = append(*slot, errormodel.HarqInfo{
		Mi:        mi,
		InfoBytes: infoBytes,
		CodeBytes: codeBytes,
	})
}

func (t *Table) ResetUl(rnti Rnti, harqId uint8) {
	ring, ok := t.ul[rnti]
	if !ok {
		return
	}
	if slot := ring.At(int(harqId)); slot != nil {
		*slot = nil
	}
}

// SubframeIndication moves every uplink history one subframe forward: the oldest slot is dropped and
// an empty one becomes current.
func (t *Table) SubframeIndication() {
	for _, ring := range t.ul {
		ring.Push(nil)
	}
}

func (t *Table) slProc(rnti Rnti, dst GroupId) *slProcess {
	k := slKey{rnti, dst}
	p, ok := t.sl[k]
	if !ok {
		p = &slProcess{}
		t.sl[k] = p
	}
	return p
}

func (t *Table) SlHistory(rnti Rnti, dst GroupId) errormodel.History {
	if p, ok := t.sl[slKey{rnti, dst}]; ok {
		return append(errormodel.History(nil), p.history...)
	}
	return nil
}

func (t *Table) UpdateSl(rnti Rnti, dst GroupId, sinr float64) {
	p := t.slProc(rnti, dst)
	p.history = append(p.history, errormodel.HarqInfo{Sinr: sinr})
}

func (t *Table) ResetSl(rnti Rnti, dst GroupId) {
	if p, ok := t.sl[slKey{rnti, dst}]; ok {
		p.history = nil
	}
}

func (t *Table) IsPrevDecoded(rnti Rnti, dst GroupId) bool {
	p, ok := t.sl[slKey{rnti, dst}]
	return ok && p.prevDecoded
}

func (t *Table) IndicatePrevDecoded(rnti Rnti, dst GroupId) {
	t.slProc(rnti, dst).prevDecoded = true
}

func (t *Table) ResetPrevDecoded(rnti Rnti, dst GroupId) {
	if p, ok := t.sl[slKey{rnti, dst}]; ok {
		p.prevDecoded = false
	}
}

func (t *Table) IncreaseTbIdx(rnti Rnti, dst GroupId) {
	t.slProc(rnti, dst).tbIdx++
}

func (t *Table) ResetTbIdx(rnti Rnti, dst GroupId) {
	if p, ok := t.sl[slKey{rnti, dst}]; ok {
		p.tbIdx = 0
	}
}

// TbIdx returns how many transmissions of the current sidelink TB were received.
func (t *Table) TbIdx(rnti Rnti, dst GroupId) int {
	if p, ok := t.sl[slKey{rnti, dst}]; ok {
		return p.tbIdx
	}
	return 0
}

func (t *Table) discProc(rnti Rnti, resPsdch uint32) *slProcess {
	k := discKey{rnti, resPsdch}
	p, ok := t.disc[k]
	if !ok {
		p = &slProcess{}
		t.disc[k] = p
	}
	return p
}

func (t *Table) DiscHistory(rnti Rnti, resPsdch uint32) errormodel.History {
	if p, ok := t.disc[discKey{rnti, resPsdch}]; ok {
		return append(errormodel.History(nil), p.history...)
	}
	return nil
}

// UpdateDisc appends an attempt to the discovery history. With DiscNumRetx set, only the last
// DiscNumRetx attempts are kept, since a message is never combined with more.
func (t *Table) UpdateDisc(rnti Rnti, resPsdch uint32, sinr float64) {
	p := t.discProc(rnti, resPsdch)
	p.history = append(p.history, errormodel.HarqInfo{Sinr: sinr})
	if n := t.cfg.DiscNumRetx; n > 0 && len(p.history) > n {
		p.history = append(errormodel.History(nil), p.history[len(p.history)-n:]...)
	}
}

func (t *Table) SetDiscNumRetx(retx int) {
	logger.AssertTrue(retx >= 0)
	t.cfg.DiscNumRetx = retx
}

func (t *Table) ResetDisc(rnti Rnti, resPsdch uint32) {
	if p, ok := t.disc[discKey{rnti, resPsdch}]; ok {
		p.history = nil
	}
}

func (t *Table) IsDiscPrevDecoded(rnti Rnti, resPsdch uint32) bool {
	p, ok := t.disc[discKey{rnti, resPsdch}]
	return ok && p.prevDecoded
}

func (t *Table) IndicateDiscPrevDecoded(rnti Rnti, resPsdch uint32) {
	t.discProc(rnti, resPsdch).prevDecoded = true
}

func (t *Table) ResetDiscPrevDecoded(rnti Rnti, resPsdch uint32) {
	if p, ok := t.disc[discKey{rnti, resPsdch}]; ok {
		p.prevDecoded = false
	}
}
