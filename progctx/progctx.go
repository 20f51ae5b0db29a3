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

// Package progctx implements utilities for managing the context of a program.
package progctx

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/ltesim/ltephy/logger"
)

// ProgCtx represent the context of a program during it's lifetime: a cancellable context, the reason it
// was cancelled for, and the goroutines to wait for before exiting.
type ProgCtx struct {
	context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lock     sync.Mutex
	routines map[string]int
	reason   string
}

// New creates a new ProgCtx from the parent context.
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{
		Context:  ctx,
		cancel:   cancel,
		routines: map[string]int{},
	}
}

// Cancel cancels the program context. Only the first call is effective; a non-nil reason is kept and
// returned by Reason.
func (ctx *ProgCtx) Cancel(reason interface{}) {
	ctx.lock.Lock()
	if ctx.Err() != nil {
		ctx.lock.Unlock()
		return
	}
	if reason != nil {
		ctx.reason = fmt.Sprint(reason)
	}
	ctx.cancel()
	ctx.lock.Unlock()

	switch r := reason.(type) {
	case nil:
		logger.Debugf("program exit")
	case error:
		logger.TraceError("program exit: %v", r)
	default:
		logger.Infof("program exit: %v", r)
	}
}

// Reason returns why the context was cancelled, or "" when it is running or was cancelled without one.
func (ctx *ProgCtx) Reason() string {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	return ctx.reason
}

// Go runs f in a goroutine that Wait waits for.
func (ctx *ProgCtx) Go(name string, f func()) {
	ctx.lock.Lock()
	ctx.routines[name]++
	ctx.lock.Unlock()
	ctx.wg.Add(1)

	go func() {
		defer func() {
			ctx.lock.Lock()
			ctx.routines[name]--
			if ctx.routines[name] == 0 {
				delete(ctx.routines, name)
			}
			ctx.lock.Unlock()
			ctx.wg.Done()
		}()
		f()
	}()
}

// Running returns the number of goroutines started by Go that did not finish yet.
func (ctx *ProgCtx) Running() int {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	total := 0
	for _, c := range ctx.routines {
		total += c
	}
	return total
}

// Wait waits for all goroutines started by Go to finish.
func (ctx *ProgCtx) Wait() {
	ctx.lock.Lock()
	logger.Debugf("program context waiting routines: %v", ctx.routines)
	ctx.lock.Unlock()

	ctx.wg.Wait()
}

// HandleSignals cancels the context when one of the given signals is received. The watching goroutine
// exits with the context.
func (ctx *ProgCtx) HandleSignals(sigs ...os.Signal) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sigs...)

	ctx.Go("handleSignals", func() {
		defer signal.Stop(c)

		select {
		case sig := <-c:
			logger.Infof("signal received: %v", sig)
			ctx.Cancel("signal " + sig.String())
		case <-ctx.Done():
		}
	})
}
