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

package spectrum

import (
	"math"

	"github.com/ltesim/ltephy/logger"
	. "github.com/ltesim/ltephy/types"
)

const (
	// RbBandwidthHz is the bandwidth of one LTE resource block.
	RbBandwidthHz = 180000.0
	// boltzmannKT is the thermal noise density at 290 K, in W/Hz.
	boltzmannKT = 1.380649e-23 * 290.0
)

// Value is a power spectral density (W/Hz) or a ratio, one entry per resource block.
type Value []float64

// NewValue creates an all-zero value for numRbs resource blocks.
func NewValue(numRbs int) Value {
	return make(Value, numRbs)
}

// NewTxPsd spreads txPowerDbm equally over the given resource blocks.
func NewTxPsd(numRbs int, rbs []int, txPowerDbm DbValue) Value {
	v := NewValue(numRbs)
	if len(rbs) == 0 {
		return v
	}
	perRb := DbmToWatt(txPowerDbm) / float64(len(rbs)) / RbBandwidthHz
	for _, rb := range rbs {
		logger.AssertTruef(rb >= 0 && rb < numRbs, "RB %d out of range", rb)
		v[rb] = perRb
	}
	return v
}

// NewNoisePsd creates a flat thermal noise PSD with the given receiver noise figure.
func NewNoisePsd(numRbs int, noiseFigureDb DbValue) Value {
	v := NewValue(numRbs)
	n := boltzmannKT * DbToLinear(noiseFigureDb)
	for i := range v {
		v[i] = n
	}
	return v
}

// Copy returns a deep copy.
func (v Value) Copy() Value {
	if v == nil {
		return nil
	}
	c := make(Value, len(v))
	copy(c, v)
	return c
}

func (v Value) checkLen(o Value) {
	if len(v) != len(o) {
		logger.Panicf("spectrum size mismatch: %d != %d", len(v), len(o))
	}
}

// AddInPlace adds o to v.
func (v Value) AddInPlace(o Value) {
	v.checkLen(o)
	for i := range v {
		v[i] += o[i]
	}
}

// SubInPlace subtracts o from v.
func (v Value) SubInPlace(o Value) {
	v.checkLen(o)
	for i := range v {
		v[i] -= o[i]
	}
}

// ScaleInPlace multiplies every entry by k.
func (v Value) ScaleInPlace(k float64) {
	for i := range v {
		v[i] *= k
	}
}

// Plus returns v + o.
func (v Value) Plus(o Value) Value {
	r := v.Copy()
	r.AddInPlace(o)
	return r
}

// Minus returns v - o.
func (v Value) Minus(o Value) Value {
	r := v.Copy()
	r.SubInPlace(o)
	return r
}

// Div returns the element-wise ratio v / o.
func (v Value) Div(o Value) Value {
	v.checkLen(o)
	r := make(Value, len(v))
	for i := range v {
		r[i] = v[i] / o[i]
	}
	return r
}

// Scaled returns v * k.
func (v Value) Scaled(k float64) Value {
	r := v.Copy()
	r.ScaleInPlace(k)
	return r
}

// Sum returns the sum of all entries.
func (v Value) Sum() float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

// Mean returns the linear average over the given resource blocks. An empty map yields 0.
func (v Value) Mean(rbMap []int) float64 {
	if len(rbMap) == 0 {
		return 0
	}
	s := 0.0
	for _, rb := range rbMap {
		s += v[rb]
	}
	return s / float64(len(rbMap))
}

// RbMap returns the indices of the nonzero entries, i.e. the resource blocks a PSD occupies.
func (v Value) RbMap() []int {
	var rbs []int
	for i, x := range v {
		if x != 0 {
			rbs = append(rbs, i)
		}
	}
	return rbs
}

// Zero sets every entry to 0.
func (v Value) Zero() {
	for i := range v {
		v[i] = 0
	}
}

// IsZero returns whether every entry is 0.
func (v Value) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// MeanDb returns the mean over rbMap in dB, or -Inf for a zero mean.
func (v Value) MeanDb(rbMap []int) DbValue {
	m := v.Mean(rbMap)
	if m <= 0 {
		return math.Inf(-1)
	}
	return LinearToDb(m)
}

// Rbs returns the contiguous resource block range [start, start+n).
func Rbs(start, n int) []int {
	rbs := make([]int, n)
	for i := range rbs {
		rbs[i] = start + i
	}
	return rbs
}
