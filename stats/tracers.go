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
	"github.com/ltesim/ltephy/phy"
	. "github.com/ltesim/ltephy/types"
)

// Tracers fans every notification out to a list of tracers.
type Tracers []phy.Tracer

func (ts Tracers) PhyTxStart(id NodeId, packets []phy.Packet) {
	for _, t := range ts {
		t.PhyTxStart(id, packets)
	}
}

func (ts Tracers) PhyTxEnd(id NodeId, packets []phy.Packet) {
	for _, t := range ts {
		t.PhyTxEnd(id, packets)
	}
}

func (ts Tracers) PhyRxStart(id NodeId, packets []phy.Packet) {
	for _, t := range ts {
		t.PhyRxStart(id, packets)
	}
}

func (ts Tracers) PhyRxEndOk(id NodeId, p phy.Packet) {
	for _, t := range ts {
		t.PhyRxEndOk(id, p)
	}
}

func (ts Tracers) PhyRxEndError(id NodeId, p phy.Packet) {
	for _, t := range ts {
		t.PhyRxEndError(id, p)
	}
}

func (ts Tracers) StateChanged(id NodeId, old, new phy.State) {
	for _, t := range ts {
		t.StateChanged(id, old, new)
	}
}

func (ts Tracers) DlPhyReception(id NodeId, stat phy.ReceptionStat) {
	for _, t := range ts {
		t.DlPhyReception(id, stat)
	}
}

func (ts Tracers) UlPhyReception(id NodeId, stat phy.ReceptionStat) {
	for _, t := range ts {
		t.UlPhyReception(id, stat)
	}
}

func (ts Tracers) SlPhyReception(id NodeId, stat phy.ReceptionStat) {
	for _, t := range ts {
		t.SlPhyReception(id, stat)
	}
}

func (ts Tracers) SlPscchReception(id NodeId, stat phy.SlCtrlStat) {
	for _, t := range ts {
		t.SlPscchReception(id, stat)
	}
}
