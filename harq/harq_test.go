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

package harq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ltesim/ltephy/errormodel"
)

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer[int](3)
	assert.Equal(t, 3, rb.Cap())
	assert.Nil(t, rb.Newest())
	for i := 1; i <= 3; i++ {
		_, dropped := rb.Push(i)
		assert.False(t, dropped)
	}
	old, dropped := rb.Push(4)
	assert.True(t, dropped)
	assert.Equal(t, 1, old)
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, 2, *rb.At(0))
	assert.Equal(t, 4, *rb.Newest())
	assert.Nil(t, rb.At(3))
	assert.Nil(t, rb.At(-1))

	*rb.At(1) = 30
	assert.Equal(t, 30, *rb.At(1))

	rb.Reset()
	assert.Equal(t, 0, rb.Len())
	rb.Push(9)
	assert.Equal(t, 9, *rb.At(0))
}

func TestTable_Dl(t *testing.T) {
	tb := NewTable(DefaultConfig())
	assert.Empty(t, tb.DlHistory(3, 1))

	tb.UpdateDl(3, 1, 0.4, 100, 250)
	tb.UpdateDl(3, 1, 0.5, 100, 250)
	tb.UpdateDl(3, 0, 0.1, 50, 125)
	h := tb.DlHistory(3, 1)
	assert.Equal(t, errormodel.History{{Mi: 0.4, InfoBytes: 100, CodeBytes: 250}, {Mi: 0.5, InfoBytes: 100, CodeBytes: 250}}, h)
	assert.Len(t, tb.DlHistory(3, 0), 1)
	assert.Empty(t, tb.DlHistory(2, 1))

	h[0].Mi = 1
	assert.Equal(t, 0.4, tb.DlHistory(3, 1)[0].Mi, "history is returned by copy")

	tb.ResetDl(3)
	assert.Empty(t, tb.DlHistory(3, 0))
	assert.Empty(t, tb.DlHistory(3, 1))

	assert.Panics(t, func() {
		tb.DlHistory(8, 0)
	})
}

func TestTable_UlRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	tb := NewTable(cfg)
	assert.Empty(t, tb.UlHistory(7, 0))

	tb.UpdateUl(7, 0.3, 80, 200)
	assert.Empty(t, tb.UlHistory(7, 0))
	assert.Len(t, tb.UlHistory(7, uint8(cfg.UlRingSize-1)), 1)

	for i := 0; i < cfg.UlRingSize-1; i++ {
		tb.SubframeIndication()
	}
	h := tb.UlHistory(7, 0)
	assert.Equal(t, errormodel.History{{Mi: 0.3, InfoBytes: 80, CodeBytes: 200}}, h)

	// second failure carries the first attempt forward
	tb.UpdateUl(7, 0.35, 80, 200)
	tb.ResetUl(7, 0)
	assert.Empty(t, tb.UlHistory(7, 0))
	for i := 0; i < cfg.UlRingSize-1; i++ {
		tb.SubframeIndication()
	}
	assert.Len(t, tb.UlHistory(7, 0), 2)

	tb.SubframeIndication()
	assert.Empty(t, tb.UlHistory(7, 0))
	tb.ResetUl(99, 0)
}

func TestTable_Sidelink(t *testing.T) {
	tb := NewTable(DefaultConfig())
	assert.False(t, tb.IsPrevDecoded(1, 5))
	assert.Equal(t, 0, tb.TbIdx(1, 5))
	assert.Empty(t, tb.SlHistory(1, 5))

	tb.UpdateSl(1, 5, 2.5)
	tb.IncreaseTbIdx(1, 5)
	tb.IncreaseTbIdx(1, 5)
	tb.IndicatePrevDecoded(1, 5)
	assert.Equal(t, errormodel.History{{Sinr: 2.5}}, tb.SlHistory(1, 5))
	assert.Equal(t, 2, tb.TbIdx(1, 5))
	assert.True(t, tb.IsPrevDecoded(1, 5))
	assert.False(t, tb.IsPrevDecoded(1, 6))

	tb.ResetSl(1, 5)
	tb.ResetPrevDecoded(1, 5)
	tb.ResetTbIdx(1, 5)
	assert.Empty(t, tb.SlHistory(1, 5))
	assert.False(t, tb.IsPrevDecoded(1, 5))
	assert.Equal(t, 0, tb.TbIdx(1, 5))
}

func TestTable_Discovery(t *testing.T) {
	tb := NewTable(DefaultConfig())
	assert.False(t, tb.IsDiscPrevDecoded(4, 2))
	tb.UpdateDisc(4, 2, 1.5)
	tb.IndicateDiscPrevDecoded(4, 2)
	assert.True(t, tb.IsDiscPrevDecoded(4, 2))
	assert.Len(t, tb.DiscHistory(4, 2), 1)
	assert.Empty(t, tb.DiscHistory(4, 3))

	tb.ResetDisc(4, 2)
	tb.ResetDiscPrevDecoded(4, 2)
	assert.Empty(t, tb.DiscHistory(4, 2))
	assert.False(t, tb.IsDiscPrevDecoded(4, 2))
}

func TestTable_DiscNumRetxCapsHistory(t *testing.T) {
	tb := NewTable(DefaultConfig())
	tb.SetDiscNumRetx(2)
	for _, sinr := range []float64{1, 2, 3, 4} {
		tb.UpdateDisc(9, 0, sinr)
	}
	h := tb.DiscHistory(9, 0)
	assert.Len(t, h, 2)
	assert.Equal(t, 3.0, h[0].Sinr)
	assert.Equal(t, 4.0, h[1].Sinr)
	assert.Equal(t, 2, tb.Config().DiscNumRetx)
}
