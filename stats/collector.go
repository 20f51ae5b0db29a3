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

// Package stats collects the reception statistics of the PHY devices, as Prometheus metrics and as a
// JSON KPI summary. Both implement phy.Tracer.
package stats

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ltesim/ltephy/phy"
	. "github.com/ltesim/ltephy/types"
)

const namespace = "ltephy"

// Collector exposes PHY reception metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Packets         *prometheus.CounterVec
	TbReceptions    *prometheus.CounterVec
	TbSinrDb        *prometheus.HistogramVec
	SciReceptions   *prometheus.CounterVec
	StateChanges    *prometheus.CounterVec
	HarqRetransmits *prometheus.CounterVec
}

// NewCollector registers the PHY metrics against the provided registerer, nil meaning the default one.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error
	if c.Packets, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_total",
		Help:      "Packets seen by the PHY devices, by event (tx_start, tx_end, rx_start, rx_ok, rx_error).",
	}, "event"); err != nil {
		return nil, err
	}
	if c.TbReceptions, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tb_receptions_total",
		Help:      "Decoded transport blocks by link (dl, ul, sl) and result (ok, error).",
	}, "link", "result"); err != nil {
		return nil, err
	}
	if c.HarqRetransmits, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tb_retransmissions_total",
		Help:      "Decoded transport blocks that were HARQ retransmissions, by link.",
	}, "link"); err != nil {
		return nil, err
	}
	if c.SciReceptions, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sci_receptions_total",
		Help:      "Sidelink control receptions by outcome.",
	}, "outcome"); err != nil {
		return nil, err
	}
	if c.StateChanges, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_changes_total",
		Help:      "PHY state machine transitions by new state.",
	}, "state"); err != nil {
		return nil, err
	}

	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tb_sinr_db",
		Help:      "Mean SINR over the resource blocks of decoded transport blocks.",
		Buckets:   prometheus.LinearBuckets(-10, 5, 10),
	}, []string{"link"})
	if err = reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				hist = existing
			} else {
				return nil, errors.Errorf("collector %s already registered with incompatible type", "tb_sinr_db")
			}
		} else {
			return nil, errors.Wrap(err, "register tb_sinr_db")
		}
	}
	c.TbSinrDb = hist
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// WriteFile dumps all gathered metrics in the text exposition format.
func (c *Collector) WriteFile(fn string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(fn, c.gatherer), "write metrics to %s", fn)
}

func (c *Collector) PhyTxStart(id NodeId, packets []phy.Packet) {
	c.Packets.WithLabelValues("tx_start").Add(float64(len(packets)))
}

func (c *Collector) PhyTxEnd(id NodeId, packets []phy.Packet) {
	c.Packets.WithLabelValues("tx_end").Add(float64(len(packets)))
}

func (c *Collector) PhyRxStart(id NodeId, packets []phy.Packet) {
	c.Packets.WithLabelValues("rx_start").Add(float64(len(packets)))
}

func (c *Collector) PhyRxEndOk(id NodeId, p phy.Packet) {
	c.Packets.WithLabelValues("rx_ok").Inc()
}

func (c *Collector) PhyRxEndError(id NodeId, p phy.Packet) {
	c.Packets.WithLabelValues("rx_error").Inc()
}

func (c *Collector) StateChanged(id NodeId, old, new phy.State) {
	c.StateChanges.WithLabelValues(new.String()).Inc()
}

func (c *Collector) DlPhyReception(id NodeId, stat phy.ReceptionStat) {
	c.observeTb("dl", stat)
}

func (c *Collector) UlPhyReception(id NodeId, stat phy.ReceptionStat) {
	c.observeTb("ul", stat)
}

func (c *Collector) SlPhyReception(id NodeId, stat phy.ReceptionStat) {
	c.observeTb("sl", stat)
}

func (c *Collector) SlPscchReception(id NodeId, stat phy.SlCtrlStat) {
	c.SciReceptions.WithLabelValues(stat.Outcome.String()).Inc()
}

func (c *Collector) observeTb(link string, stat phy.ReceptionStat) {
	c.TbReceptions.WithLabelValues(link, resultLabel(stat.Correct)).Inc()
	if !stat.Ndi {
		c.HarqRetransmits.WithLabelValues(link).Inc()
	}
	if stat.SinrPerRb > 0 {
		c.TbSinrDb.WithLabelValues(link).Observe(LinearToDb(stat.SinrPerRb))
	}
}

func resultLabel(correct bool) string {
	if correct {
		return "ok"
	}
	return "error"
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", opts.Name)
		}
		return nil, errors.Wrapf(err, "register %s", opts.Name)
	}
	return counter, nil
}
