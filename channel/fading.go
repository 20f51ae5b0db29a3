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

package channel

import (
	"math"

	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/prng"
	. "github.com/ltesim/ltephy/types"
)

const (
	initialCacheSize = 1000
	maxCacheSize     = 1000000
)

type linkFading struct {
	shadowDb     DbValue
	timeSigmaDb  DbValue
	timeDb       DbValue
	nextChangeAt SimTime
}

// fadingModel draws shadow fading (fixed per link position) and time-variant fading (redrawn at exponentially
// distributed intervals) per radio link. Shadow fading is reproducible from the link position alone; the
// time-variant part comes from the model's own stream.
type fadingModel struct {
	seed  prng.RandomSeed
	rnd   *prng.Stream
	links map[int64]*linkFading
}

func newFadingModel(seed prng.RandomSeed) *fadingModel {
	return &fadingModel{
		seed:  seed,
		rnd:   prng.NewStream(seed),
		links: make(map[int64]*linkFading, initialCacheSize),
	}
}

// computeFading returns the fading loss in dB of the link between src and dst at time now. A positive
// value attenuates the signal. Links are symmetric.
func (fm *fadingModel) computeFading(src, dst *Node, params *ModelParams, now SimTime) DbValue {
	if params.ShadowFadingSigmaDb == 0 && params.TimeFadingSigmaMaxDb == 0 {
		return 0.0
	}
	uid := calcLinkUID(src, dst, params.MeterPerUnit)
	link, ok := fm.links[uid]
	if !ok {
		if len(fm.links) >= maxCacheSize {
			fm.clearCaches()
		}
		linkRnd := prng.NewStream(fm.seed + prng.RandomSeed(uid))
		link = &linkFading{
			shadowDb:    linkRnd.NormFloat64() * params.ShadowFadingSigmaDb,
			timeSigmaDb: linkRnd.UnitRandom() * params.TimeFadingSigmaMaxDb,
		}
		fm.redraw(link, params, now)
		fm.links[uid] = link
	} else if now > link.nextChangeAt {
		fm.redraw(link, params, now)
	}
	return link.shadowDb + link.timeDb
}

func (fm *fadingModel) redraw(link *linkFading, params *ModelParams, now SimTime) {
	link.timeDb = fm.rnd.NormFloat64() * link.timeSigmaDb
	deltaSec := fm.rnd.ExpFloat64() * params.MeanTimeFadingChange
	link.nextChangeAt = now + SimTime(deltaSec*float64(Second))
}

func (fm *fadingModel) clearCaches() {
	logger.Debugf("channel fading model: purging link cache")
	fm.links = make(map[int64]*linkFading, initialCacheSize)
}

func calcLinkUID(src, dst *Node, meterPerUnit float64) int64 {
	// node positions in grid units of 5 m, using only positive values (uint16 range)
	x1 := uint16(math.Round(src.X*meterPerUnit*0.2) + 32768)
	y1 := uint16(math.Round(src.Y*meterPerUnit*0.2) + 32768)
	x2 := uint16(math.Round(dst.X*meterPerUnit*0.2) + 32768)
	y2 := uint16(math.Round(dst.Y*meterPerUnit*0.2) + 32768)
	xL, yL, xR, yR := x2, y2, x1, y1

	// left-most node first (top-most if equal), so the uid does not depend on direction
	if x1 < x2 || (x1 == x2 && y1 < y2) {
		xL, yL, xR, yR = x1, y1, x2, y2
	}
	return int64(xL) + int64(yL)<<16 + int64(xR)<<32 + int64(yR)<<48
}
