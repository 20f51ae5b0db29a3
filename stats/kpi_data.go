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

import . "github.com/ltesim/ltephy/types"

type KpiTimeMs struct {
	StartTimeMs uint64 `json:"start"`
	EndTimeMs   uint64 `json:"end"`
	PeriodMs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

// KpiLink holds the transport block counters of one link direction.
type KpiLink struct {
	TbOk           uint64  `json:"tb_ok"`
	TbError        uint64  `json:"tb_error"`
	Retransmission uint64  `json:"tb_retx"`
	BlerPercentage float64 `json:"bler_percent"`
	AvgSinrDb      float64 `json:"avg_sinr_db"`

	sinrSum float64
}

type KpiSci struct {
	Outcomes       map[string]uint64 `json:"outcomes"`
	AvgIntervalMs  float64           `json:"avg_interval_ms"`
	intervalSum    uint64
	intervalsCount uint64
}

// NodeCounters are the packet counters of one node.
type NodeCounters struct {
	TxPackets      uint64 `json:"tx_packets"`
	RxPackets      uint64 `json:"rx_packets"`
	RxOkPackets    uint64 `json:"rx_ok_packets"`
	RxErrorPackets uint64 `json:"rx_error_packets"`
	TxTimeMs       uint64 `json:"tx_time_ms"`
}

type Kpi struct {
	FileTime string                   `json:"created"`
	Status   string                   `json:"status"`
	TimeMs   KpiTimeMs                `json:"time_ms"`
	TimeSec  KpiTimeSec               `json:"time_sec"`
	Links    map[string]*KpiLink      `json:"links"`
	Sci      KpiSci                   `json:"sci"`
	Counters map[NodeId]*NodeCounters `json:"counters"`
	PdrPct   map[NodeId]float64       `json:"rx_ok_percent"`
}
