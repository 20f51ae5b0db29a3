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

package types

import (
	"fmt"
	"math"
)

type NodeId = int
type Rnti = uint16
type CellId = uint16

// GroupId is the layer-1 destination group of a sidelink transmission (lower 8 bits of the layer-2 id).
type GroupId = uint8
type SlssId = uint64

type DbValue = float64

const (
	InvalidNodeId NodeId = 0
	MaxNodeId     NodeId = 0xffff

	// NoGroup addresses a sidelink frame to every synchronized receiver.
	NoGroup GroupId = 0
)

// SimTime is a simulated timestamp or duration in nanoseconds.
type SimTime uint64

const (
	Nanosecond  SimTime = 1
	Microsecond         = 1000 * Nanosecond
	Millisecond         = 1000 * Microsecond
	Second              = 1000 * Millisecond

	// Ever is a timestamp that is never reached.
	Ever SimTime = math.MaxUint64
)

// LTE frame timing.
const (
	SubframeDuration = Millisecond
	// DlCtrlDuration is the PCFICH+PDCCH part of a subframe (3 symbols), 1 ns shorter to avoid overlap.
	DlCtrlDuration = 214286*Nanosecond - 1
	// UlSrsDuration is the last symbol of an UL subframe, 1 ns shorter to avoid overlap.
	UlSrsDuration = 71429*Nanosecond - 1
)

// Milliseconds returns the whole number of milliseconds in t.
func (t SimTime) Milliseconds() uint64 {
	return uint64(t / Millisecond)
}

func (t SimTime) Seconds() float64 {
	return float64(t) / float64(Second)
}

func (t SimTime) String() string {
	if t == Ever {
		return "ever"
	}
	return fmt.Sprintf("%.6fms", float64(t)/float64(Millisecond))
}

// DbToLinear converts a ratio in dB to a linear ratio.
func DbToLinear(db DbValue) float64 {
	return math.Pow(10.0, db/10.0)
}

// LinearToDb converts a linear ratio to dB.
func LinearToDb(lin float64) DbValue {
	return 10.0 * math.Log10(lin)
}

// DbmToWatt converts a power in dBm to Watt.
func DbmToWatt(dbm DbValue) float64 {
	return math.Pow(10.0, (dbm-30.0)/10.0)
}

// WattToDbm converts a power in Watt to dBm.
func WattToDbm(w float64) DbValue {
	return 10.0*math.Log10(w) + 30.0
}
