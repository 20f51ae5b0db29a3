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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ltesim/ltephy/types"
)

type fixedClock SimTime

func (c fixedClock) Now() SimTime {
	return SimTime(c)
}

func TestParseLevelString(t *testing.T) {
	lv, err := ParseLevelString("debug")
	assert.Nil(t, err)
	assert.Equal(t, DebugLevel, lv)

	lv, err = ParseLevelString("none")
	assert.Nil(t, err)
	assert.Equal(t, OffLevel, lv)

	lv, err = ParseLevelString("bogus")
	assert.NotNil(t, err)
	assert.Equal(t, DefaultLevel, lv)

	for _, l := range []Level{TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(l))
		assert.Nil(t, err)
		assert.Equal(t, l, parsed)
	}
}

func TestAssertPanics(t *testing.T) {
	assert.Panics(t, func() {
		AssertTrue(false, "must hold")
	})
	assert.Panics(t, func() {
		AssertEqual(1, 2)
	})
	assert.NotPanics(t, func() {
		AssertTrue(true)
		AssertNotNil(t)
	})
}

func TestPanicfIgnoresLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)
	SetLevel(OffLevel)
	assert.Panics(t, func() {
		Panicf("contract violated: %d", 42)
	})
}

func TestDeviceLogger(t *testing.T) {
	dl := GetDeviceLogger(3, "sl", fixedClock(2*Millisecond))
	assert.Equal(t, NodeId(3), dl.Id)
	assert.Same(t, dl, GetDeviceLogger(3, "sl", fixedClock(0)))
	assert.NotSame(t, dl, GetDeviceLogger(3, "dl", nil))
	assert.Contains(t, GetDeviceLogger(3, "sl", fixedClock(2*Millisecond)).prefix(), "2000")

	dl.SetDisplayLevel(OffLevel)
	assert.NotPanics(t, func() {
		dl.Debugf("not shown %d", 1)
	})
	assert.Panics(t, func() {
		dl.Panicf("broken")
	})
}
