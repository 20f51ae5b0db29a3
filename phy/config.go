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

package phy

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ltesim/ltephy/errormodel"
	"github.com/ltesim/ltephy/harq"
)

const (
	DefaultNumRbs          = 50
	DefaultRbPerSubChannel = 10
	DefaultSensingWindow   = 1000 // subframes
	NumTxModes             = 7
	EnvPrefix              = "LTEPHY_"
)

// Config lists every toggle of a SpectrumPhy. It is supplied at construction and not changed afterwards.
type Config struct {
	DataErrorModelEnabled        bool `yaml:"data_error_model" env:"DATA_ERROR_MODEL"`
	CtrlErrorModelEnabled        bool `yaml:"ctrl_error_model" env:"CTRL_ERROR_MODEL"`
	SlDataErrorModelEnabled      bool `yaml:"sl_data_error_model" env:"SL_DATA_ERROR_MODEL"`
	SlCtrlErrorModelEnabled      bool `yaml:"sl_ctrl_error_model" env:"SL_CTRL_ERROR_MODEL"`
	SlDiscoveryErrorModelEnabled bool `yaml:"sl_discovery_error_model" env:"SL_DISCOVERY_ERROR_MODEL"`

	// CtrlFullDuplexEnabled allows sidelink control reception while transmitting.
	CtrlFullDuplexEnabled bool `yaml:"ctrl_full_duplex" env:"CTRL_FULL_DUPLEX"`
	// DropRbOnCollisionEnabled drops every block on a resource block used by two or more
	// simultaneous sidelink transmissions, regardless of SINR.
	DropRbOnCollisionEnabled bool `yaml:"drop_rb_on_collision" env:"DROP_RB_ON_COLLISION"`

	FadingModel errormodel.FadingModel `yaml:"fading_model" env:"FADING_MODEL"`
	// TxModeGainsDb is the SINR gain per transmission mode 1..7, in dB.
	TxModeGainsDb []float64 `yaml:"tx_mode_gains_db" env:"TX_MODE_GAINS_DB" envSeparator:","`
	SlRxGainDb    float64   `yaml:"sl_rx_gain_db" env:"SL_RX_GAIN_DB"`

	NumRbs          int `yaml:"num_rbs" env:"NUM_RBS"`
	RbPerSubChannel int `yaml:"rb_per_subchannel" env:"RB_PER_SUBCHANNEL"`
	SensingWindow   int `yaml:"sensing_window" env:"SENSING_WINDOW"`

	// Seed of the decode random stream; 0 draws a seed from the prng package.
	Seed int64 `yaml:"seed" env:"SEED"`

	Harq harq.Config `yaml:"harq" envPrefix:"HARQ_"`
}

func DefaultConfig() *Config {
	return &Config{
		DataErrorModelEnabled:        true,
		CtrlErrorModelEnabled:        true,
		SlDataErrorModelEnabled:      true,
		SlCtrlErrorModelEnabled:      true,
		SlDiscoveryErrorModelEnabled: true,
		CtrlFullDuplexEnabled:        false,
		DropRbOnCollisionEnabled:     false,
		FadingModel:                  errormodel.FadingAwgn,
		TxModeGainsDb:                make([]float64, NumTxModes),
		SlRxGainDb:                   0,
		NumRbs:                       DefaultNumRbs,
		RbPerSubChannel:              DefaultRbPerSubChannel,
		SensingWindow:                DefaultSensingWindow,
		Harq:                         harq.DefaultConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults, then applies LTEPHY_* environment overrides. An empty
// path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if len(cfg.TxModeGainsDb) > NumTxModes {
		return errors.Errorf("tx_mode_gains_db: at most %d entries, got %d", NumTxModes, len(cfg.TxModeGainsDb))
	}
	if cfg.NumRbs <= 0 {
		return errors.Errorf("num_rbs must be positive, got %d", cfg.NumRbs)
	}
	if cfg.RbPerSubChannel <= 0 || cfg.RbPerSubChannel > cfg.NumRbs {
		return errors.Errorf("rb_per_subchannel must be in [1, %d], got %d", cfg.NumRbs, cfg.RbPerSubChannel)
	}
	if cfg.SensingWindow <= 0 {
		return errors.Errorf("sensing_window must be positive, got %d", cfg.SensingWindow)
	}
	if cfg.Harq.NumDlProcesses <= 0 || cfg.Harq.NumLayers <= 0 || cfg.Harq.UlRingSize <= 0 {
		return errors.Errorf("invalid harq config %+v", cfg.Harq)
	}
	return nil
}

// NumSubChannels returns ceil(NumRbs / RbPerSubChannel).
func (cfg *Config) NumSubChannels() int {
	return (cfg.NumRbs + cfg.RbPerSubChannel - 1) / cfg.RbPerSubChannel
}
