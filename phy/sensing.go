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
	"github.com/ltesim/ltephy/logger"
	. "github.com/ltesim/ltephy/types"
)

const (
	rbBandwidthHz    = 180000.0
	subcarriersPerRb = 12.0
)

// sensingMaps keep, per subchannel and subframe of the sensing window, what was measured on the
// sidelink control channel.
type sensingMaps struct {
	window  int
	rssi    [][]float64 // W
	rsrp    [][]DbValue // dBm
	decoded [][]bool
}

func newSensingMaps(numSubChannels int, window int) *sensingMaps {
	m := &sensingMaps{
		window:  window,
		rssi:    make([][]float64, numSubChannels),
		rsrp:    make([][]DbValue, numSubChannels),
		decoded: make([][]bool, numSubChannels),
	}
	for sc := 0; sc < numSubChannels; sc++ {
		m.rssi[sc] = make([]float64, window)
		m.rsrp[sc] = make([]DbValue, window)
		m.decoded[sc] = make([]bool, window)
	}
	return m
}

func (m *sensingMaps) set(subChannel int, subFrame int, rssi float64, rsrp DbValue, decoded bool) {
	logger.AssertTruef(subChannel < len(m.rssi), "subchannel %d out of range", subChannel)
	m.rssi[subChannel][subFrame] = rssi
	m.rsrp[subChannel][subFrame] = rsrp
	m.decoded[subChannel][subFrame] = decoded
}

func (m *sensingMaps) clear(start int, period int) {
	for i := start; i < start+period; i++ {
		sf := i % m.window
		for sc := range m.rssi {
			m.rssi[sc][sf] = 0
			m.rsrp[sc][sf] = 0
			m.decoded[sc][sf] = false
		}
	}
}

// updateRssiRsrp stores the measurement of sidelink rx entry index in the sensing maps.
func (p *SpectrumPhy) updateRssiRsrp(index int, decoded bool) {
	e := p.rxSl[index]
	if len(e.rbMap) == 0 {
		return
	}
	interf := valueAt(p.slInterf, index, p.cfg.NumRbs)
	signal := valueAt(p.slSignal, index, p.cfg.NumRbs)

	rsrpSum, rssiSum := 0.0, 0.0
	for rb := range signal {
		sigW := signal[rb] * rbBandwidthHz / subcarriersPerRb
		interfW := 0.0
		if rb < len(interf) {
			interfW = interf[rb] * rbBandwidthHz / subcarriersPerRb
		}
		rsrpSum += sigW
		rssiSum += 2 * (interfW + sigW)
	}
	rbNum := float64(len(signal))
	subChannel := e.rbMap[0] / p.cfg.RbPerSubChannel
	subFrame := int(p.rxSubframe() % uint64(p.cfg.SensingWindow))
	rssi := rssiSum / rbNum
	rsrp := WattToDbm(rsrpSum / rbNum)
	p.log.Tracef("sensing subchannel=%d subframe=%d rssi=%g W rsrp=%.2f dBm decoded=%v", subChannel, subFrame, rssi, rsrp, decoded)
	p.sensing.set(subChannel, subFrame, rssi, rsrp, decoded)
}

// MoveSensingWindow clears the subframes [start, start+period) of the sensing window.
func (p *SpectrumPhy) MoveSensingWindow(start int, period int) {
	p.sensing.clear(start, period)
}

// RssiMap returns a copy of the RSSI map, indexed [subchannel][subframe].
func (p *SpectrumPhy) RssiMap() [][]float64 {
	out := make([][]float64, len(p.sensing.rssi))
	for sc := range out {
		out[sc] = append([]float64(nil), p.sensing.rssi[sc]...)
	}
	return out
}

func (p *SpectrumPhy) RsrpMap() [][]DbValue {
	out := make([][]DbValue, len(p.sensing.rsrp))
	for sc := range out {
		out[sc] = append([]DbValue(nil), p.sensing.rsrp[sc]...)
	}
	return out
}

func (p *SpectrumPhy) DecodingMap() [][]bool {
	out := make([][]bool, len(p.sensing.decoded))
	for sc := range out {
		out[sc] = append([]bool(nil), p.sensing.decoded[sc]...)
	}
	return out
}

// FeedbackProvidedResources lists n candidate resources out of total, starting at the resource of
// (subChannel, subFrame).
func (p *SpectrumPhy) FeedbackProvidedResources(subChannel int, subFrame int, n int, total int) []int {
	logger.AssertTrue(total > 0)
	res := make([]int, n)
	for i := range res {
		res[i] = (subChannel*subFrame + i) % total
	}
	return res
}
