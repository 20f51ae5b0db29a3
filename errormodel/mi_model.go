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

package errormodel

import (
	"math"

	. "github.com/ltesim/ltephy/types"
)

// reference: 3GPP TR 36.843 link-level abstraction; mutual-information effective SINR mapping as
// used by the LENA error model. The curves below are an analytical fit, not table lookups.
const (
	blerSlope       = 40.0 // BLER logistic slope per unit of MI margin
	ctrlSlopePerDb  = 1.5  // BLER logistic slope per dB for control channels
	tdlPenaltyDb    = 3.0  // extra SINR required under TDL fading
	maxBitsPerRbSym = 6.0  // 64QAM
)

var ctrlThresholdDb = map[Channel]DbValue{
	ChannelPdcch: -2.0,
	ChannelPscch: 0.0,
	ChannelPsbch: -1.0,
	ChannelPsdch: 2.0,
}

// MiModel is the reference Model. Data channels (PDSCH, PUSCH, PSSCH) are mapped through mutual
// information with HARQ combining; control channels use a logistic curve in dB around a per-channel
// threshold.
type MiModel struct{}

func (MiModel) TbStats(req Request) Stats {
	switch req.Channel {
	case ChannelData, ChannelPssch:
		return dataStats(req)
	default:
		return ctrlStats(req)
	}
}

func modulationOrder(mcs uint8) float64 {
	switch {
	case mcs < 10:
		return 2
	case mcs < 17:
		return 4
	default:
		return maxBitsPerRbSym
	}
}

// mutualInformation maps a linear SINR to normalized MI in [0, 1] for the modulation order qm.
func mutualInformation(sinr float64, qm float64) float64 {
	if sinr <= 0 {
		return 0
	}
	return math.Min(1.0, math.Log2(1.0+sinr)/qm)
}

func dataStats(req Request) Stats {
	mcs := clampMcs(req.Mcs)
	qm := modulationOrder(req.Mcs)
	rbs := req.RbMap
	if len(rbs) == 0 {
		rbs = req.Sinr.RbMap()
	}

	mean := MeanSinr(req.Sinr, req.RbMap)
	mi := 0.0
	if req.Channel == ChannelPssch {
		// sidelink retransmissions are combined on SINR (chase combining)
		combined := mean
		for _, h := range req.History {
			combined += h.Sinr
		}
		mi = mutualInformation(combined, qm)
	} else {
		for _, rb := range rbs {
			if rb < len(req.Sinr) {
				mi += mutualInformation(req.Sinr[rb], qm)
			}
		}
		if len(rbs) > 0 {
			mi /= float64(len(rbs))
		}
	}

	miEff := mi
	ecr := EffectiveCodingRate[mcs]
	if req.Channel == ChannelData && len(req.History) > 0 {
		// incremental redundancy: code bits add up, MI is weighted by code bits
		codeBytes := CodedBytes(req.Size, req.Mcs)
		weighted := mi * codeBytes
		total := codeBytes
		for _, h := range req.History {
			weighted += h.Mi * h.CodeBytes
			total += h.CodeBytes
		}
		if total > 0 {
			miEff = weighted / total
			ecr = math.Min(ecr, float64(req.Size)/total)
		}
	}

	return Stats{
		Bler: logistic((ecr - miEff) * blerSlope),
		Mi:   mi,
		Sinr: mean,
	}
}

func ctrlStats(req Request) Stats {
	mean := MeanSinr(req.Sinr, req.RbMap)
	if mean <= 0 {
		return Stats{Bler: 1.0}
	}
	thr := ctrlThresholdDb[req.Channel]
	if req.Fading == FadingTdl {
		thr += tdlPenaltyDb
	}
	margin := LinearToDb(mean) - thr
	return Stats{
		Bler: logistic(-margin * ctrlSlopePerDb),
		Mi:   mutualInformation(mean, 2),
		Sinr: mean,
	}
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
