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

// SignalKind tells which payload a Signal carries.
type SignalKind int

const (
	KindData     SignalKind = iota // PDSCH/PUSCH frame
	KindDlCtrl                     // PCFICH+PDCCH frame
	KindUlSrs                      // uplink sounding reference signal
	KindSidelink                   // PSCCH/PSSCH/PSDCH/PSBCH frame
	KindOther                      // foreign signal, interference only
)

func (k SignalKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindDlCtrl:
		return "dl-ctrl"
	case KindUlSrs:
		return "ul-srs"
	case KindSidelink:
		return "sidelink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Signal is one transmission as seen by a receiver. Exactly one of the frame pointers matching Kind is
// set; KindOther signals carry none.
type Signal struct {
	Kind     SignalKind
	Psd      spectrum.Value
	Duration SimTime
	Origin   NodeId

	Data     *DataFrame
	DlCtrl   *DlCtrlFrame
	UlSrs    *UlSrsFrame
	Sidelink *SlFrame
}

// WithPsd returns a copy of the signal with another PSD. Frames are shared; receivers must not modify them.
func (s *Signal) WithPsd(psd spectrum.Value) *Signal {
	c := *s
	c.Psd = psd
	return &c
}

type DataFrame struct {
	CellId   CellId
	Packets  []Packet
	CtrlMsgs []ControlMessage
}

type DlCtrlFrame struct {
	CellId   CellId
	Pss      bool
	CtrlMsgs []ControlMessage
}

type UlSrsFrame struct {
	CellId CellId
}

type SlFrame struct {
	NodeId   NodeId
	GroupId  GroupId
	SlssId   SlssId
	Packets  []Packet
	CtrlMsgs []ControlMessage
}

// Packet is a MAC PDU carried by a transport block.
type Packet struct {
	Rnti    Rnti
	Layer   uint8
	DstL2Id uint32
	Size    uint16
	Payload []byte
}

// L1Dst is the layer-1 destination group of a sidelink packet.
func (p Packet) L1Dst() GroupId {
	return GroupId(p.DstL2Id & 0xff)
}

type CtrlType int

const (
	CtrlDci   CtrlType = iota // unicast DL/UL control, opaque to the phy
	CtrlSci                   // sidelink control information (PSCCH)
	CtrlMibSl                 // sidelink master information block (PSBCH)
	CtrlDisc                  // sidelink discovery announcement (PSDCH)
)

func (t CtrlType) String() string {
	switch t {
	case CtrlDci:
		return "DCI"
	case CtrlSci:
		return "SCI"
	case CtrlMibSl:
		return "MIB-SL"
	case CtrlDisc:
		return "SL-DISC"
	default:
		return "unknown"
	}
}

// ControlMessage is a control message; the field matching Type is set.
type ControlMessage struct {
	Type  CtrlType
	Dci   []byte
	Sci   *Sci
	MibSl *MibSl
	Disc  *DiscMsg
}

type Sci struct {
	Rnti       Rnti
	GroupDstId GroupId
	Mcs        uint8
	TbSize     uint16
	RbStart    int
	RbLen      int
	ResPscch   uint32
	Trp        uint8
	Hopping    bool
	Priority   uint8
	ResReserve uint16
	FrameNo    uint16
	SubframeNo uint8
}

type MibSl struct {
	SlssId           SlssId
	DirectFrameNo    uint16
	DirectSubframeNo uint8
	InCoverage       bool
}

type DiscMsg struct {
	Rnti     Rnti
	ResPsdch uint32
	AppCode  uint32
}

func NewSciMessage(sci Sci) ControlMessage {
	return ControlMessage{Type: CtrlSci, Sci: &sci}
}

func NewMibSlMessage(mib MibSl) ControlMessage {
	return ControlMessage{Type: CtrlMibSl, MibSl: &mib}
}

func NewDiscMessage(disc DiscMsg) ControlMessage {
	return ControlMessage{Type: CtrlDisc, Disc: &disc}
}

func NewDciMessage(payload []byte) ControlMessage {
	return ControlMessage{Type: CtrlDci, Dci: payload}
}
