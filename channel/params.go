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

package channel

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	. "github.com/ltesim/ltephy/types"
)

// default channel parameters
const (
	defaultCarrierGHz   float64 = 2.0 // LTE band 1 region
	defaultMeterPerUnit float64 = 1.0 // scenario coordinates are in meters
)

// ModelParams stores the parameters of a propagation model.
type ModelParams struct {
	Name                 string
	CarrierGHz           float64 // carrier frequency in GHz
	MeterPerUnit         float64 // the distance in meters, equivalent to a single distance unit
	ExponentDb           DbValue // the exponent (dB) in the regular/LOS model
	FixedLossDb          DbValue // the fixed loss (dB) term in the regular/LOS model
	NlosExponentDb       DbValue // the exponent (dB) in the NLOS model, 0 if not used
	NlosFixedLossDb      DbValue // the fixed loss (dB) term in the NLOS model
	ShadowFadingSigmaDb  DbValue // sigma (stddev) parameter for Shadow Fading (SF), in dB
	TimeFadingSigmaMaxDb DbValue // max sigma (stddev) parameter for time-variant fading, in dB
	MeanTimeFadingChange float64 // mean time in sec, when TV fading value changes (mean of exponential distrib times).
}

// NewModelParams returns the parameters of a named model: "3GPP" (indoor office, TR 38.901), "ITU"
// (indoor attenuation), "Outdoor" (LOS only) or "Ideal" (no loss, no fading). Names are case-insensitive.
func NewModelParams(name string, carrierGHz float64) (*ModelParams, error) {
	if carrierGHz <= 0 {
		carrierGHz = defaultCarrierGHz
	}
	params := &ModelParams{
		CarrierGHz:   carrierGHz,
		MeterPerUnit: defaultMeterPerUnit,
	}
	switch strings.ToLower(name) {
	case "3gpp", "":
		setIndoorModelParams3gpp(params)
	case "itu":
		setIndoorModelParamsItu(params)
	case "outdoor":
		setOutdoorModelParams(params)
	case "ideal":
		params.Name = "Ideal"
	default:
		return nil, errors.Errorf("unknown propagation model: %q", name)
	}
	return params, nil
}

// paround is a custom parameter rounding function (2 digits)
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}

// ITU-R P.1238 indoor model, office floor
func setIndoorModelParamsItu(params *ModelParams) {
	params.Name = "ITU"
	params.ExponentDb = 30.0
	params.FixedLossDb = paround(20.0*math.Log10(params.CarrierGHz*1000) - 28.0)
}

// see 3GPP TR 38.901 V17.0.0, Table 7.4.1-1: Pathloss models.
func setIndoorModelParams3gpp(params *ModelParams) {
	params.Name = "3GPP"
	params.ExponentDb = 17.3
	params.FixedLossDb = paround(32.4 + 20*math.Log10(params.CarrierGHz))
	params.NlosExponentDb = 38.3
	params.NlosFixedLossDb = paround(17.3 + 24.9*math.Log10(params.CarrierGHz))
	params.ShadowFadingSigmaDb = 8.03
	params.TimeFadingSigmaMaxDb = 4.0
	params.MeanTimeFadingChange = 150
}

// outdoor model with LoS only
func setOutdoorModelParams(params *ModelParams) {
	params.Name = "Outdoor"
	params.ExponentDb = 21.0
	params.FixedLossDb = paround(32.4 + 20*math.Log10(params.CarrierGHz))
	params.ShadowFadingSigmaDb = 4.0
	params.TimeFadingSigmaMaxDb = 1.0
	params.MeanTimeFadingChange = 150
}
