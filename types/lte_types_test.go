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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimTime(t *testing.T) {
	assert.Equal(t, uint64(3), (3*Millisecond + 999*Microsecond).Milliseconds())
	assert.Equal(t, "1.000000ms", Millisecond.String())
	assert.Equal(t, "ever", Ever.String())
	assert.InDelta(t, 0.5, (500 * Millisecond).Seconds(), 1e-12)
	assert.True(t, DlCtrlDuration < SubframeDuration)
	assert.Equal(t, SimTime(71428), UlSrsDuration)
}

func TestDbConversions(t *testing.T) {
	assert.InDelta(t, 10.0, DbToLinear(10), 1e-9)
	assert.InDelta(t, 1.0, DbToLinear(0), 1e-12)
	assert.InDelta(t, 3.0103, LinearToDb(2), 1e-4)
	assert.InDelta(t, 1.0, DbmToWatt(30), 1e-12)
	assert.InDelta(t, 23.0, WattToDbm(DbmToWatt(23)), 1e-9)
}
