// Copyright (c) 2020, The OTNS Authors.
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

package progctx

import (
	"context"
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	ctx := New(context.Background())
	_ = context.Context(ctx)  // ProgCtx should implement context.Context
	ctx2 := New(nil)          // nolint
	_ = context.Context(ctx2) // ProgCtx should implement context.Context
	assert.Nil(t, ctx2.Err())
}

func TestProgCtx_Cancel(t *testing.T) {
	ctx := New(context.Background())
	ctx.Cancel(errors.Errorf("test error"))
	go func() {
		ctx.Cancel("second")
		assert.True(t, ctx.Err() == context.Canceled)
	}()
	<-ctx.Done()
	assert.Equal(t, "test error", ctx.Reason())
}

func TestProgCtx_CancelNilReason(t *testing.T) {
	ctx := New(context.Background())
	ctx.Cancel(nil)
	ctx.Cancel("late")
	<-ctx.Done()
	assert.Equal(t, "", ctx.Reason())
}

func TestProgCtx_Wait(t *testing.T) {
	ctx := New(context.Background())
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		ctx.Go("worker", func() { <-release })
	}
	ctx.Go("other", func() {})
	close(release)
	ctx.Wait()
	assert.Equal(t, 0, ctx.Running())
}

func TestProgCtx_HandleSignals(t *testing.T) {
	ctx := New(context.Background())
	ctx.HandleSignals(syscall.SIGUSR1)
	assert.Equal(t, 1, ctx.Running())

	assert.Nil(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	<-ctx.Done()
	ctx.Wait()
	assert.Equal(t, 0, ctx.Running())
	assert.Equal(t, "signal "+syscall.SIGUSR1.String(), ctx.Reason())
}

func TestProgCtx_HandleSignalsExitsOnCancel(t *testing.T) {
	ctx := New(context.Background())
	ctx.HandleSignals(syscall.SIGUSR2)
	ctx.Cancel(nil)
	ctx.Wait()
	assert.Equal(t, 0, ctx.Running())
	assert.Equal(t, "", ctx.Reason())
}
