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
	"fmt"
	"sync"

	. "github.com/ltesim/ltephy/types"
)

// Clock supplies the simulated time that prefixes device log lines.
type Clock interface {
	Now() SimTime
}

// DeviceLogger is a device-specific log object. The display level can be set per individual device.
type DeviceLogger struct {
	Id           NodeId
	Name         string
	displayLevel Level
	clock        Clock
}

var (
	deviceLogs = make(map[string]*DeviceLogger, 10)
	mutex      = sync.Mutex{}
)

// GetDeviceLogger gets the DeviceLogger instance for the given device and PHY name, creating it on first use.
func GetDeviceLogger(id NodeId, name string, clock Clock) *DeviceLogger {
	mutex.Lock()
	defer mutex.Unlock()

	key := fmt.Sprintf("%d/%s", id, name)
	dl, ok := deviceLogs[key]
	if !ok {
		dl = &DeviceLogger{
			Id:           id,
			Name:         name,
			displayLevel: currentLevel,
		}
		deviceLogs[key] = dl
	}
	dl.clock = clock
	return dl
}

func (dl *DeviceLogger) SetDisplayLevel(level Level) {
	dl.displayLevel = level
}

func (dl *DeviceLogger) prefix() string {
	var now SimTime
	if dl.clock != nil {
		now = dl.clock.Now()
	}
	return fmt.Sprintf("%12d %4d %-5s ", uint64(now/Microsecond), dl.Id, dl.Name)
}

func (dl *DeviceLogger) Logf(level Level, format string, args []interface{}) {
	if level > dl.displayLevel || level > currentLevel {
		return
	}
	logAlways(level, dl.prefix()+getMessage(format, args))
}

func (dl *DeviceLogger) Tracef(format string, args ...interface{}) {
	dl.Logf(TraceLevel, format, args)
}

func (dl *DeviceLogger) Debugf(format string, args ...interface{}) {
	dl.Logf(DebugLevel, format, args)
}

func (dl *DeviceLogger) Infof(format string, args ...interface{}) {
	dl.Logf(InfoLevel, format, args)
}

func (dl *DeviceLogger) Warnf(format string, args ...interface{}) {
	dl.Logf(WarnLevel, format, args)
}

func (dl *DeviceLogger) Errorf(format string, args ...interface{}) {
	dl.Logf(ErrorLevel, format, args)
}

// Panicf logs with the device prefix and panics.
func (dl *DeviceLogger) Panicf(format string, args ...interface{}) {
	Panicf("%s%s", dl.prefix(), getMessage(format, args))
}
