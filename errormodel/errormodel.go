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

// Package errormodel defines the block-error-rate collaborator used by the PHY decode pipeline: a pure
// function from SINR, resource blocks, MCS and HARQ history to BLER, mutual information and effective SINR.
package errormodel

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ltesim/ltephy/spectrum"
)

// Channel identifies the physical channel a block is decoded on.
type Channel int

const (
	ChannelData  Channel = iota // PDSCH or PUSCH
	ChannelPdcch                // PCFICH + PDCCH
	ChannelPssch                // sidelink shared channel
	ChannelPscch                // sidelink control channel (SCI)
	ChannelPsbch                // sidelink broadcast channel (MIB-SL)
	ChannelPsdch                // sidelink discovery channel
)

func (c Channel) String() string {
	switch c {
	case ChannelData:
		return "data"
	case ChannelPdcch:
		return "pdcch"
	case ChannelPssch:
		return "pssch"
	case ChannelPscch:
		return "pscch"
	case ChannelPsbch:
		return "psbch"
	case ChannelPsdch:
		return "psdch"
	default:
		return "unknown"
	}
}

// FadingModel selects the link-level curves of the error model.
type FadingModel int

const (
	FadingAwgn FadingModel = iota
	FadingTdl
)

func (f FadingModel) String() string {
	switch f {
	case FadingAwgn:
		return "AWGN"
	case FadingTdl:
		return "TDL"
	default:
		return "unknown"
	}
}

func (f FadingModel) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FadingModel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "AWGN":
		*f = FadingAwgn
	case "TDL":
		*f = FadingTdl
	default:
		return errors.Errorf("invalid fading model: %q", string(text))
	}
	return nil
}

// HarqInfo is what one failed transmission attempt contributes to the decoding of its retransmissions.
type HarqInfo struct {
	Mi        float64 // mutual information per coded bit
	InfoBytes uint16  // transport block size
	CodeBytes float64 // coded size (size / effective coding rate)
	Sinr      float64 // effective SINR (linear), used by the sidelink channels
}

// History lists the previous attempts of a HARQ process, oldest first. Empty for new data.
type History []HarqInfo

// Request is the input of one block error evaluation.
type Request struct {
	Channel Channel
	Fading  FadingModel
	Sinr    spectrum.Value // linear SINR per resource block
	RbMap   []int          // resource blocks of the block; empty means all of Sinr
	Size    uint16         // bytes; 0 for control channels
	Mcs     uint8
	History History
}

// Stats is the outcome of an evaluation.
type Stats struct {
	Bler float64 // block error rate in [0, 1]
	Mi   float64 // mutual information of this attempt
	Sinr float64 // effective SINR (linear)
}

// Model computes block error statistics. Implementations must be pure functions of the request.
type Model interface {
	TbStats(req Request) Stats
}

// Func adapts a function to the Model interface.
type Func func(req Request) Stats

func (f Func) TbStats(req Request) Stats {
	return f(req)
}

// Constant is a Model that returns a fixed BLER, with the mean SINR over the block's resource blocks.
type Constant struct {
	Bler float64
}

func (c Constant) TbStats(req Request) Stats {
	return Stats{
		Bler: c.Bler,
		Sinr: MeanSinr(req.Sinr, req.RbMap),
	}
}

// MeanSinr averages the linear SINR over rbMap, or over all entries when rbMap is empty.
func MeanSinr(sinr spectrum.Value, rbMap []int) float64 {
	if len(rbMap) == 0 {
		if len(sinr) == 0 {
			return 0
		}
		return sinr.Sum() / float64(len(sinr))
	}
	return sinr.Mean(rbMap)
}

// EffectiveCodingRate is the effective code rate per MCS index, used to derive the coded size of a
// transport block for HARQ combining.
var EffectiveCodingRate = [29]float64{
	0.08, 0.1, 0.11, 0.15, 0.19, 0.24, 0.3, 0.37, 0.44, 0.51,
	0.3, 0.33, 0.37, 0.42, 0.48, 0.54, 0.6,
	0.43, 0.45, 0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.89, 0.92,
}

// CodedBytes returns size / EffectiveCodingRate[mcs].
func CodedBytes(size uint16, mcs uint8) float64 {
	return float64(size) / EffectiveCodingRate[clampMcs(mcs)]
}

func clampMcs(mcs uint8) int {
	if int(mcs) >= len(EffectiveCodingRate) {
		return len(EffectiveCodingRate) - 1
	}
	return int(mcs)
}
