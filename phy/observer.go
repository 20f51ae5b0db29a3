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
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// Observer receives the reception outcomes of a SpectrumPhy; it is the MAC side of the phy. A phy
// constructed without an Observer drops every notification, except a successfully decoded discovery
// list which is a fatal wiring error.
type Observer interface {
	RxDataOk(p Packet)
	RxCtrlOk(msgs []ControlMessage)
	RxCtrlError()
	DlHarqFeedback(fb DlHarqFeedback)
	UlHarqFeedback(fb UlHarqFeedback)
}

// PssObserver is optionally implemented by an Observer to receive primary synchronization signals.
type PssObserver interface {
	RxPss(cellId CellId, psd spectrum.Value)
}

// SlssObserver is optionally implemented by an Observer to receive sidelink synchronization signals.
type SlssObserver interface {
	RxSlss(slssId SlssId, psd spectrum.Value)
}

type HarqStatus int

const (
	Ack HarqStatus = iota
	Nack
)

func (s HarqStatus) String() string {
	if s == Ack {
		return "ACK"
	}
	return "NACK"
}

// DlHarqFeedback aggregates the per-layer outcome of the downlink blocks of one rnti in one window.
type DlHarqFeedback struct {
	Rnti          Rnti
	HarqProcessId uint8
	Status        []HarqStatus // one entry per layer
}

type UlHarqFeedback struct {
	Rnti          Rnti
	HarqProcessId uint8
	Status        HarqStatus
}

// ReceptionStat describes the decoding of one transport block.
type ReceptionStat struct {
	Timestamp uint64 // ms
	CellId    CellId
	Rnti      Rnti
	TxMode    uint8
	Layer     uint8
	Mcs       uint8
	Size      uint16
	Rv        uint8
	Ndi       bool
	Correct   bool
	SinrPerRb float64 // mean linear SINR over the block's resource blocks
	NumRetx   int     // HARQ history length
}

// SlCtrlOutcome classifies a PSCCH reception.
type SlCtrlOutcome int

const (
	SlCtrlOk SlCtrlOutcome = iota
	SlCtrlWeakSignal
	SlCtrlConflict
	SlCtrlHalfDuplex
	SlCtrlCollision
)

func (o SlCtrlOutcome) String() string {
	switch o {
	case SlCtrlOk:
		return "ok"
	case SlCtrlWeakSignal:
		return "weak-signal"
	case SlCtrlConflict:
		return "conflict"
	case SlCtrlHalfDuplex:
		return "half-duplex"
	case SlCtrlCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// SlCtrlStat describes the reception of one SCI.
type SlCtrlStat struct {
	Timestamp   uint64 // ms
	CellId      CellId
	Sci         Sci
	Correct     bool
	WeakSignal  bool
	Conflict    bool
	HalfDuplex  bool
	Outcome     SlCtrlOutcome
	MeanSinr    float64
	MsgInterval uint64 // ms since the previous correct SCI from the same rnti, 0 for the first
}

// Tracer receives the statistics of a SpectrumPhy. All methods are optional notifications.
type Tracer interface {
	PhyTxStart(id NodeId, packets []Packet)
	PhyTxEnd(id NodeId, packets []Packet)
	PhyRxStart(id NodeId, packets []Packet)
	PhyRxEndOk(id NodeId, p Packet)
	PhyRxEndError(id NodeId, p Packet)
	StateChanged(id NodeId, old, new State)
	DlPhyReception(id NodeId, stat ReceptionStat)
	UlPhyReception(id NodeId, stat ReceptionStat)
	SlPhyReception(id NodeId, stat ReceptionStat)
	SlPscchReception(id NodeId, stat SlCtrlStat)
}
