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

package simulation

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ltesim/ltephy/channel"
	. "github.com/ltesim/ltephy/types"
)

const (
	DefaultDurationMs    = 1000
	DefaultModel         = "3GPP"
	DefaultCarrierGHz    = 2.0
	DefaultNoiseFigureDb = 9.0
	DefaultTxPowerDbm    = 23.0
	DefaultPeriodMs      = 100
	DefaultTbSize        = 300 // bytes
	DefaultMcs           = 10
	DefaultDiscRbLen     = 2
)

// UeConfig configures one sidelink UE. A UE with PeriodMs 0 only receives.
type UeConfig struct {
	Id     NodeId    `yaml:"id"`
	X      float64   `yaml:"x"`
	Y      float64   `yaml:"y"`
	Group  GroupId   `yaml:"group"`
	Listen []GroupId `yaml:"listen"`

	PeriodMs      int     `yaml:"period_ms"`
	OffsetMs      int     `yaml:"offset_ms"`
	RbStart       int     `yaml:"rb_start"`
	RbLen         int     `yaml:"rb_len"`
	Mcs           uint8   `yaml:"mcs"`
	TbSize        uint16  `yaml:"tb_size"`
	Transmissions int     `yaml:"transmissions"` // per transport block, including HARQ retransmissions
	TxPowerDbm    DbValue `yaml:"tx_power_dbm"`
	Priority      uint8   `yaml:"priority"`
	Reselect      bool    `yaml:"reselect"` // pick the least busy subchannel for every new transport block

	Announce []uint32 `yaml:"announce"` // discovery application codes sent, one per discovery period in turn
	Monitor  []uint32 `yaml:"monitor"`  // discovery application codes listened to
}

// DiscoveryConfig is the discovery pool shared by the scenario. Every announcing UE owns one PSDCH
// resource: Transmissions consecutive subframes per period, after those of the UEs announcing before it.
type DiscoveryConfig struct {
	PeriodMs      int `yaml:"period_ms"`
	OffsetMs      int `yaml:"offset_ms"`
	Transmissions int `yaml:"transmissions"` // per announcement, including retransmissions
	RbLen         int `yaml:"rb_len"`
}

func (dc *DiscoveryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain DiscoveryConfig
	def := plain{PeriodMs: DefaultPeriodMs, Transmissions: 1, RbLen: DefaultDiscRbLen}
	if err := value.Decode(&def); err != nil {
		return err
	}
	*dc = DiscoveryConfig(def)
	return nil
}

// InterfererConfig configures a foreign transmitter that only adds interference.
type InterfererConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	PowerDbm DbValue `yaml:"power_dbm"`
	RbStart  int     `yaml:"rb_start"`
	RbLen    int     `yaml:"rb_len"`
	PeriodMs int     `yaml:"period_ms"`
	OffsetMs int     `yaml:"offset_ms"`
}

// Config is a simulation scenario.
type Config struct {
	DurationMs    int                `yaml:"duration_ms"`
	Model         string             `yaml:"model"`
	CarrierGHz    float64            `yaml:"carrier_ghz"`
	NoiseFigureDb DbValue            `yaml:"noise_figure_db"`
	MinRxPowerDbm DbValue            `yaml:"min_rx_power_dbm"`
	Ues           []UeConfig         `yaml:"ues"`
	Interferers   []InterfererConfig `yaml:"interferers"`
	Discovery     *DiscoveryConfig   `yaml:"discovery"`
}

func DefaultConfig() *Config {
	return &Config{
		DurationMs:    DefaultDurationMs,
		Model:         DefaultModel,
		CarrierGHz:    DefaultCarrierGHz,
		NoiseFigureDb: DefaultNoiseFigureDb,
	}
}

// DefaultUeConfig returns a periodic transmitter at the origin.
func DefaultUeConfig(id NodeId) UeConfig {
	return UeConfig{
		Id:            id,
		PeriodMs:      DefaultPeriodMs,
		RbLen:         10,
		Mcs:           DefaultMcs,
		TbSize:        DefaultTbSize,
		Transmissions: 1,
		TxPowerDbm:    DefaultTxPowerDbm,
	}
}

// yaml decoding of a UE starts from the defaults, so a scenario only lists what differs.
func (ue *UeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain UeConfig
	def := plain(DefaultUeConfig(0))
	if err := value.Decode(&def); err != nil {
		return err
	}
	*ue = UeConfig(def)
	return nil
}

// LoadConfig reads a YAML scenario over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse scenario %s", path)
	}
	return cfg, nil
}

// Validate checks the scenario against a resource grid of numRbs resource blocks.
func (cfg *Config) Validate(numRbs int) error {
	if cfg.DurationMs <= 0 {
		return errors.Errorf("duration_ms must be positive, got %d", cfg.DurationMs)
	}
	if _, err := channel.NewModelParams(cfg.Model, cfg.CarrierGHz); err != nil {
		return err
	}
	if len(cfg.Ues) == 0 {
		return errors.New("scenario has no UEs")
	}
	seen := map[NodeId]struct{}{}
	for _, ue := range cfg.Ues {
		if ue.Id <= 0 || ue.Id >= channel.InterfererId {
			return errors.Errorf("UE id %d out of range", ue.Id)
		}
		if _, ok := seen[ue.Id]; ok {
			return errors.Errorf("duplicate UE id %d", ue.Id)
		}
		seen[ue.Id] = struct{}{}
		if ue.PeriodMs < 0 || ue.OffsetMs < 0 {
			return errors.Errorf("UE %d: negative period or offset", ue.Id)
		}
		if ue.PeriodMs > 0 {
			if err := checkRbs(ue.RbStart, ue.RbLen, numRbs); err != nil {
				return errors.Wrapf(err, "UE %d", ue.Id)
			}
			if ue.Transmissions < 1 {
				return errors.Errorf("UE %d: transmissions must be at least 1", ue.Id)
			}
		}
	}
	if err := cfg.validateDiscovery(numRbs); err != nil {
		return err
	}
	for i, intf := range cfg.Interferers {
		if intf.PeriodMs <= 0 || intf.OffsetMs < 0 {
			return errors.Errorf("interferer %d: period_ms must be positive", i)
		}
		if err := checkRbs(intf.RbStart, intf.RbLen, numRbs); err != nil {
			return errors.Wrapf(err, "interferer %d", i)
		}
	}
	return nil
}

func (cfg *Config) validateDiscovery(numRbs int) error {
	announcers := 0
	for _, ue := range cfg.Ues {
		if len(ue.Announce) > 0 {
			announcers++
		}
		if cfg.Discovery == nil && (len(ue.Announce) > 0 || len(ue.Monitor) > 0) {
			return errors.Errorf("UE %d uses discovery but the scenario has no discovery pool", ue.Id)
		}
	}
	dc := cfg.Discovery
	if dc == nil {
		return nil
	}
	if dc.PeriodMs <= 0 || dc.OffsetMs < 0 || dc.Transmissions < 1 {
		return errors.Errorf("discovery: period_ms and transmissions must be positive")
	}
	if announcers*dc.Transmissions > dc.PeriodMs {
		return errors.Errorf("discovery: %d announcing UEs with %d transmissions do not fit a period of %d ms",
			announcers, dc.Transmissions, dc.PeriodMs)
	}
	return errors.Wrap(checkRbs(0, dc.RbLen, numRbs), "discovery")
}

func checkRbs(start, n, numRbs int) error {
	if start < 0 || n <= 0 || start+n > numRbs {
		return errors.Errorf("resource blocks [%d, %d) outside of [0, %d)", start, start+n, numRbs)
	}
	return nil
}
