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

package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var newPhyRandSeedGenerator *rand.Rand
var newChannelRandSeedGenerator *rand.Rand

func init() {
	Init(0)
}

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func Init(rootSeed int64) {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))

	newPhyRandSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	newChannelRandSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
}

// NewPhyRandomSeed generates unique random-seeds for newly created PHY receivers.
func NewPhyRandomSeed() RandomSeed {
	return RandomSeed(newPhyRandSeedGenerator.Int63())
}

// NewChannelRandomSeed generates unique random-seeds for newly created channel (fading) models.
func NewChannelRandomSeed() RandomSeed {
	return RandomSeed(newChannelRandSeedGenerator.Int63())
}

// Stream is a seeded uniform random stream. It counts the values it produced, so that a stream can be
// recreated at the same position with Resume.
type Stream struct {
	seed  RandomSeed
	draws uint64
	rnd   *rand.Rand
}

// NewStream creates a stream with the given seed.
func NewStream(seed RandomSeed) *Stream {
	return &Stream{
		seed: seed,
		rnd:  rand.New(rand.NewSource(int64(seed))),
	}
}

// Resume recreates a stream with the given seed, positioned after 'draws' values. The position is exact
// for streams that only produced UnitRandom values, such as the PHY decode streams.
func Resume(seed RandomSeed, draws uint64) *Stream {
	s := NewStream(seed)
	for s.draws < draws {
		s.UnitRandom()
	}
	return s
}

// UnitRandom returns the next value in [0, 1), which can be used as a random probability.
func (s *Stream) UnitRandom() float64 {
	s.draws++
	return s.rnd.Float64()
}

// NormFloat64 returns the next normally distributed value (mu=0, sigma=1).
func (s *Stream) NormFloat64() float64 {
	s.draws++
	return s.rnd.NormFloat64()
}

// ExpFloat64 returns the next exponentially distributed value (rate 1).
func (s *Stream) ExpFloat64() float64 {
	s.draws++
	return s.rnd.ExpFloat64()
}

func (s *Stream) Seed() RandomSeed {
	return s.seed
}

// Draws returns the number of values produced so far.
func (s *Stream) Draws() uint64 {
	return s.draws
}
