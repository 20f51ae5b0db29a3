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

package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltesim/ltephy/phy"
)

func TestCollector_CountsReceptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.Nil(t, err)

	c.SlPhyReception(1, phy.ReceptionStat{Correct: true, Ndi: true, SinrPerRb: 10})
	c.SlPhyReception(1, phy.ReceptionStat{Correct: false, Ndi: false, SinrPerRb: 0.5})
	c.DlPhyReception(2, phy.ReceptionStat{Correct: true, Ndi: true})
	c.UlPhyReception(2, phy.ReceptionStat{Correct: false, Ndi: true, SinrPerRb: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.TbReceptions.WithLabelValues("sl", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TbReceptions.WithLabelValues("sl", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TbReceptions.WithLabelValues("dl", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TbReceptions.WithLabelValues("ul", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HarqRetransmits.WithLabelValues("sl")))
	// the DL block had no SINR sample
	assert.Equal(t, 2, testutil.CollectAndCount(c.TbSinrDb))
}

func TestCollector_PacketsStatesAndSci(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.Nil(t, err)

	pkts := []phy.Packet{{Rnti: 1}, {Rnti: 2}}
	c.PhyTxStart(1, pkts)
	c.PhyTxEnd(1, pkts)
	c.PhyRxStart(2, pkts)
	c.PhyRxEndOk(2, pkts[0])
	c.PhyRxEndError(2, pkts[1])
	c.StateChanged(1, phy.StateIdle, phy.StateTxData)
	c.StateChanged(1, phy.StateTxData, phy.StateIdle)
	c.SlPscchReception(2, phy.SlCtrlStat{Outcome: phy.SlCtrlOk})
	c.SlPscchReception(2, phy.SlCtrlStat{Outcome: phy.SlCtrlHalfDuplex})
	c.SlPscchReception(3, phy.SlCtrlStat{Outcome: phy.SlCtrlOk})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Packets.WithLabelValues("tx_start")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Packets.WithLabelValues("rx_start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Packets.WithLabelValues("rx_ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Packets.WithLabelValues("rx_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StateChanges.WithLabelValues("TX_DATA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StateChanges.WithLabelValues("IDLE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.SciReceptions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SciReceptions.WithLabelValues("half-duplex")))
}

func TestCollector_RegisterTwiceReusesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c1, err := NewCollector(reg)
	require.Nil(t, err)
	c2, err := NewCollector(reg)
	require.Nil(t, err)
	assert.Same(t, c1.Packets, c2.Packets)
	assert.Same(t, c1.TbSinrDb, c2.TbSinrDb)
	assert.Same(t, reg, c1.Gatherer())
}

func TestCollector_WriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.Nil(t, err)
	c.PhyRxEndOk(1, phy.Packet{})

	fn := filepath.Join(t.TempDir(), "metrics.prom")
	require.Nil(t, c.WriteFile(fn))
	content, err := os.ReadFile(fn)
	require.Nil(t, err)
	assert.True(t, strings.Contains(string(content), `ltephy_packets_total{event="rx_ok"} 1`))

	assert.NotNil(t, c.WriteFile(filepath.Join(t.TempDir(), "missing", "metrics.prom")))
}

func TestTracersFanOut(t *testing.T) {
	reg1, reg2 := prometheus.NewRegistry(), prometheus.NewRegistry()
	c1, _ := NewCollector(reg1)
	c2, _ := NewCollector(reg2)
	var tracer phy.Tracer = Tracers{c1, c2}
	tracer.PhyRxEndOk(1, phy.Packet{})
	assert.Equal(t, 1.0, testutil.ToFloat64(c1.Packets.WithLabelValues("rx_ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c2.Packets.WithLabelValues("rx_ok")))
}
