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
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ltesim/ltephy/types"
)

func TestValueArithmetic(t *testing.T) {
	a := Value{1, 2, 3}
	b := Value{0.5, 0, 1}

	assert.Equal(t, Value{1.5, 2, 4}, a.Plus(b))
	assert.Equal(t, Value{0.5, 2, 2}, a.Minus(b))
	assert.Equal(t, Value{2, 4, 6}, a.Scaled(2))
	assert.Equal(t, Value{2, math.Inf(1), 3}, a.Div(b))
	assert.Equal(t, Value{1, 2, 3}, a, "operands are not modified")

	c := a.Copy()
	c.AddInPlace(b)
	c.SubInPlace(b)
	assert.Equal(t, a, c)
	assert.InDelta(t, 6.0, a.Sum(), 1e-12)

	assert.Panics(t, func() {
		a.Plus(Value{1})
	})
}

func TestValueRbMapAndMean(t *testing.T) {
	v := Value{0, 2, 0, 4, 0}
	assert.Equal(t, []int{1, 3}, v.RbMap())
	assert.InDelta(t, 3.0, v.Mean(v.RbMap()), 1e-12)
	assert.Equal(t, 0.0, v.Mean(nil))
	assert.True(t, math.IsInf(NewValue(3).MeanDb([]int{0}), -1))
	assert.Nil(t, NewValue(4).RbMap())
	assert.Equal(t, []int{4, 5, 6}, Rbs(4, 3))
}

func TestTxAndNoisePsd(t *testing.T) {
	psd := NewTxPsd(10, Rbs(2, 4), 23)
	assert.Equal(t, []int{2, 3, 4, 5}, psd.RbMap())
	assert.InDelta(t, DbmToWatt(23), psd.Sum()*RbBandwidthHz, 1e-12)

	noise := NewNoisePsd(10, 9)
	assert.Len(t, noise, 10)
	assert.InDelta(t, -174.0+9.0, WattToDbm(noise[0]), 0.05)
	assert.False(t, noise.IsZero())
	noise.Zero()
	assert.True(t, noise.IsZero())
}
