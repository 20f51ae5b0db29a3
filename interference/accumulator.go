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

// Package interference keeps the additive sum of the power spectra a receiver currently sees, and reports
// per-signal SINR, SNR, interference and signal power to chunk processors whenever that sum changes
// during a reception window.
package interference

import (
	"github.com/ltesim/ltephy/event"
	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/spectrum"
	. "github.com/ltesim/ltephy/types"
)

const signalIdBoundaryStep uint32 = 0x10000000

// ChunkProcessor consumes per-signal values for each time chunk of a reception window.
type ChunkProcessor interface {
	// Start is called for each signal joining the window; init is true for the first one.
	Start(init bool)
	// EvaluateChunk reports the value for rx signal 'index' that held during 'duration'.
	EvaluateChunk(index int, value spectrum.Value, duration SimTime)
	// End closes the window.
	End()
}

type Accumulator struct {
	name  string
	sched *event.Scheduler

	receiving      bool
	rxSignals      []spectrum.Value
	allSignals     spectrum.Value
	noise          spectrum.Value
	lastChangeTime SimTime

	lastSignalId            uint32
	lastSignalIdBeforeReset uint32

	sinrProcessors   []ChunkProcessor
	snrProcessors    []ChunkProcessor
	interfProcessors []ChunkProcessor
	signalProcessors []ChunkProcessor
}

func NewAccumulator(sched *event.Scheduler, name string) *Accumulator {
	logger.AssertNotNil(sched)
	return &Accumulator{
		name:  name,
		sched: sched,
	}
}

func (a *Accumulator) AddSinrProcessor(p ChunkProcessor) {
	a.sinrProcessors = append(a.sinrProcessors, p)
}

func (a *Accumulator) AddSnrProcessor(p ChunkProcessor) {
	a.snrProcessors = append(a.snrProcessors, p)
}

func (a *Accumulator) AddInterferenceProcessor(p ChunkProcessor) {
	a.interfProcessors = append(a.interfProcessors, p)
}

// AddSignalProcessor registers a processor for the received signal power itself (RS power).
func (a *Accumulator) AddSignalProcessor(p ChunkProcessor) {
	a.signalProcessors = append(a.signalProcessors, p)
}

func (a *Accumulator) allProcessors() [][]ChunkProcessor {
	return [][]ChunkProcessor{a.signalProcessors, a.interfProcessors, a.sinrProcessors, a.snrProcessors}
}

// IsReceiving returns whether a reception window is open.
func (a *Accumulator) IsReceiving() bool {
	return a.receiving
}

// NumRxSignals returns the number of signals in the open (or last) window.
func (a *Accumulator) NumRxSignals() int {
	return len(a.rxSignals)
}

// AllSignals returns a copy of the current sum of active signals, excluding noise.
func (a *Accumulator) AllSignals() spectrum.Value {
	return a.allSignals.Copy()
}

// Noise returns a copy of the noise floor.
func (a *Accumulator) Noise() spectrum.Value {
	return a.noise.Copy()
}

// SetNoise replaces the noise floor and resets the accumulator to a zero-signal state. Any reception in
// progress is aborted, and subtractions scheduled before this call are ignored when they fire.
func (a *Accumulator) SetNoise(psd spectrum.Value) {
	logger.AssertNotNil(psd)
	a.evaluateChunk()
	a.noise = psd.Copy()
	a.allSignals = spectrum.NewValue(len(psd))
	a.receiving = false
	a.lastSignalIdBeforeReset = a.lastSignalId
}

// AddSignal adds psd to the running sum now, and schedules its removal after duration.
func (a *Accumulator) AddSignal(psd spectrum.Value, duration SimTime) {
	logger.AssertTruef(a.noise != nil, "%s: noise must be set before adding signals", a.name)
	a.evaluateChunk()
	a.allSignals.AddInPlace(psd)

	a.lastSignalId++
	signalId := a.lastSignalId
	if signalId == a.lastSignalIdBeforeReset {
		// the id wrapped around; stale subtractions are long gone by now, so move the boundary on.
		a.lastSignalIdBeforeReset += signalIdBoundaryStep
	}
	sig := psd.Copy()
	a.sched.Schedule(duration, func() {
		a.subtract(sig, signalId)
	})
}

func (a *Accumulator) subtract(psd spectrum.Value, signalId uint32) {
	a.evaluateChunk()
	if int32(signalId-a.lastSignalIdBeforeReset) > 0 {
		a.allSignals.SubInPlace(psd)
	} else {
		logger.Debugf("%s: ignoring signal %d scheduled for subtraction before the last reset", a.name, signalId)
	}
}

// StartRx adds a signal of interest to the reception window, opening the window if needed. All signals of
// one window must start at the same time. Returns the index of the signal within the window.
func (a *Accumulator) StartRx(psd spectrum.Value) int {
	init := !a.receiving
	if !a.receiving {
		a.rxSignals = a.rxSignals[:0]
		a.receiving = true
	} else {
		logger.AssertTruef(a.lastChangeTime == a.sched.Now(), "%s: signals of one window must start together (%v != %v)",
			a.name, a.lastChangeTime, a.sched.Now())
	}

	a.rxSignals = append(a.rxSignals, psd.Copy())
	a.lastChangeTime = a.sched.Now()

	for _, procs := range a.allProcessors() {
		for _, p := range procs {
			p.Start(init)
		}
	}
	return len(a.rxSignals) - 1
}

// EndRx evaluates the last chunk of the window and closes it. A no-op when no window is open.
func (a *Accumulator) EndRx() {
	if !a.receiving {
		logger.Debugf("%s: EndRx without reception", a.name)
		return
	}
	a.evaluateChunk()
	a.receiving = false
	for _, procs := range a.allProcessors() {
		for _, p := range procs {
			p.End()
		}
	}
}

func (a *Accumulator) evaluateChunk() {
	now := a.sched.Now()
	if !a.receiving || now <= a.lastChangeTime {
		return
	}

	duration := now - a.lastChangeTime
	for index, signal := range a.rxSignals {
		interf := a.allSignals.Minus(signal)
		interf.AddInPlace(a.noise)
		sinr := signal.Div(interf)
		snr := signal.Div(a.noise)

		for _, p := range a.sinrProcessors {
			p.EvaluateChunk(index, sinr, duration)
		}
		for _, p := range a.snrProcessors {
			p.EvaluateChunk(index, snr, duration)
		}
		for _, p := range a.interfProcessors {
			p.EvaluateChunk(index, interf, duration)
		}
		for _, p := range a.signalProcessors {
			p.EvaluateChunk(index, signal, duration)
		}
	}
	a.lastChangeTime = now
}
