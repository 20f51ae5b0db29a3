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

package harq

// RingBuffer is a fixed-capacity FIFO. Pushing into a full buffer drops the oldest element.
type RingBuffer[T any] struct {
	items []T
	head  int
	size  int
}

func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push appends v as the newest element and returns the dropped oldest element, if any.
func (rb *RingBuffer[T]) Push(v T) (dropped T, ok bool) {
	if rb.size == len(rb.items) {
		dropped, ok = rb.items[rb.head], true
		rb.items[rb.head] = v
		rb.head = (rb.head + 1) % len(rb.items)
		return
	}
	rb.items[(rb.head+rb.size)%len(rb.items)] = v
	rb.size++
	return
}

// At returns a pointer to the i-th element counted from the oldest.
func (rb *RingBuffer[T]) At(i int) *T {
	if i < 0 || i >= rb.size {
		return nil
	}
	return &rb.items[(rb.head+i)%len(rb.items)]
}

// Newest returns a pointer to the most recently pushed element, or nil if empty.
func (rb *RingBuffer[T]) Newest() *T {
	return rb.At(rb.size - 1)
}

func (rb *RingBuffer[T]) Len() int {
	return rb.size
}

func (rb *RingBuffer[T]) Cap() int {
	return len(rb.items)
}

func (rb *RingBuffer[T]) Reset() {
	var zero T
	for i := range rb.items {
		rb.items[i] = zero
	}
	rb.head, rb.size = 0, 0
}
