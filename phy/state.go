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

// State is the state of a SpectrumPhy. A phy is either idle, transmitting one kind of frame, or
// receiving one kind of frame.
type State int

const (
	StateIdle State = iota
	StateTxDlCtrl
	StateTxData
	StateTxUlSrs
	StateRxDlCtrl
	StateRxData
	StateRxUlSrs
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateTxDlCtrl:
		return "TX_DL_CTRL"
	case StateTxData:
		return "TX_DATA"
	case StateTxUlSrs:
		return "TX_UL_SRS"
	case StateRxDlCtrl:
		return "RX_DL_CTRL"
	case StateRxData:
		return "RX_DATA"
	case StateRxUlSrs:
		return "RX_UL_SRS"
	default:
		return "UNKNOWN"
	}
}

func (s State) IsTx() bool {
	return s == StateTxDlCtrl || s == StateTxData || s == StateTxUlSrs
}

func (s State) IsRx() bool {
	return s == StateRxDlCtrl || s == StateRxData || s == StateRxUlSrs
}
