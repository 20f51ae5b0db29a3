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

package event

import (
	"container/heap"
	"context"

	"github.com/ltesim/ltephy/logger"
	. "github.com/ltesim/ltephy/types"
)

// Id identifies a scheduled event. Zero is never assigned.
type Id uint64

// Event is a callback scheduled at a simulated timestamp.
type Event struct {
	Id        Id
	Timestamp SimTime
	Callback  func()

	index int
}

type eventQueue []*Event

func (eq eventQueue) Len() int {
	return len(eq)
}

// Less orders by timestamp; events at the same timestamp run in scheduling order.
func (eq eventQueue) Less(i, j int) bool {
	if eq[i].Timestamp != eq[j].Timestamp {
		return eq[i].Timestamp < eq[j].Timestamp
	}
	return eq[i].Id < eq[j].Id
}

func (eq eventQueue) Swap(i, j int) {
	a, b := eq[i], eq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	eq[i], eq[j] = b, a             // swap the elements
	eq[i].index, eq[j].index = i, j // fix the indexes
}

func (eq *eventQueue) Push(x interface{}) {
	e := x.(*Event)
	*eq = append(*eq, e)
	e.index = len(*eq) - 1
}

func (eq *eventQueue) Pop() (elem interface{}) {
	eqlen := len(*eq)
	elem = (*eq)[eqlen-1]
	*eq = (*eq)[:eqlen-1]
	return
}

// Scheduler is a single-threaded discrete-event scheduler with a simulated clock. All callbacks run
// synchronously from Step/Run, one at a time.
type Scheduler struct {
	now    SimTime
	lastId Id
	q      eventQueue
	events map[Id]*Event
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		q:      eventQueue{},
		events: map[Id]*Event{},
	}
	heap.Init(&s.q)
	return s
}

// Now returns the current simulated time.
func (s *Scheduler) Now() SimTime {
	return s.now
}

// Schedule runs cb after delay, relative to the current simulated time.
func (s *Scheduler) Schedule(delay SimTime, cb func()) Id {
	return s.ScheduleAt(s.now+delay, cb)
}

// ScheduleAt runs cb at the given absolute timestamp, which must not be in the past.
func (s *Scheduler) ScheduleAt(ts SimTime, cb func()) Id {
	logger.AssertTruef(ts >= s.now, "cannot schedule in the past: %v < %v", ts, s.now)
	logger.AssertNotNil(cb)

	s.lastId++
	e := &Event{
		Id:        s.lastId,
		Timestamp: ts,
		Callback:  cb,
	}
	heap.Push(&s.q, e)
	s.events[e.Id] = e
	return e.Id
}

// Cancel removes a pending event. Cancelling an event that already ran or was cancelled is a no-op.
func (s *Scheduler) Cancel(id Id) {
	e, ok := s.events[id]
	if !ok {
		return
	}
	heap.Remove(&s.q, e.index)
	delete(s.events, id)
}

// IsPending returns whether the event is still scheduled.
func (s *Scheduler) IsPending(id Id) bool {
	_, ok := s.events[id]
	return ok
}

// Pending returns the number of scheduled events.
func (s *Scheduler) Pending() int {
	return len(s.q)
}

// NextTimestamp returns the timestamp of the next event, or Ever if there is none.
func (s *Scheduler) NextTimestamp() SimTime {
	if len(s.q) == 0 {
		return Ever
	}
	return s.q[0].Timestamp
}

// Step advances the clock to the next event and runs it. Returns false if no event was pending.
func (s *Scheduler) Step() bool {
	if len(s.q) == 0 {
		return false
	}
	e := heap.Pop(&s.q).(*Event)
	delete(s.events, e.Id)
	s.now = e.Timestamp
	e.Callback()
	return true
}

// Run executes events until the queue is empty or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	return s.RunUntil(ctx, Ever)
}

// RunUntil executes all events with a timestamp up to and including 'until', then sets the clock to
// 'until' (unless it is Ever). It returns ctx.Err() if the context ends first.
func (s *Scheduler) RunUntil(ctx context.Context, until SimTime) error {
	for s.NextTimestamp() <= until && s.NextTimestamp() != Ever {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
	}
	if until != Ever && until > s.now {
		s.now = until
	}
	return nil
}
