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

package interference

import (
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

// AveragingProcessor computes, for every signal of a window, the time-weighted average of the values
// reported in its chunks, and hands the averages to a callback when the window ends.
type AveragingProcessor struct {
	onEnd func([]spectrum.Value)

	sums      []spectrum.Value
	durations []SimTime
	chunks    []int
}

// NewAveragingProcessor creates a processor reporting to onEnd, which receives one vector per signal
// index. Signals that saw no chunk are reported as nil.
func NewAveragingProcessor(onEnd func([]spectrum.Value)) *AveragingProcessor {
	return &AveragingProcessor{onEnd: onEnd}
}

func (p *AveragingProcessor) Start(init bool) {
	if init {
		p.sums = p.sums[:0]
		p.durations = p.durations[:0]
		p.chunks = p.chunks[:0]
	}
	p.sums = append(p.sums, nil)
	p.durations = append(p.durations, 0)
	p.chunks = append(p.chunks, 0)
}

func (p *AveragingProcessor) EvaluateChunk(index int, value spectrum.Value, duration SimTime) {
	if index >= len(p.sums) {
		return
	}
	p.chunks[index]++
	switch p.chunks[index] {
	case 1:
		// the first chunk is kept unweighted, so a single-chunk window reports its value exactly.
		p.sums[index] = value.Copy()
	case 2:
		p.sums[index].ScaleInPlace(float64(p.durations[index]))
		fallthrough
	default:
		p.sums[index].AddInPlace(value.Scaled(float64(duration)))
	}
	p.durations[index] += duration
}

func (p *AveragingProcessor) End() {
	result := make([]spectrum.Value, len(p.sums))
	for i, s := range p.sums {
		if s == nil {
			continue
		}
		if p.chunks[i] == 1 || p.durations[i] == 0 {
			result[i] = s.Copy()
		} else {
			result[i] = s.Scaled(1.0 / float64(p.durations[i]))
		}
	}
	if p.onEnd != nil {
		p.onEnd(result)
	}
}
