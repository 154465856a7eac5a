// Copyright 2025 The weenix-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sched

// Queue is a wait channel: a doubly linked list of threads with insertion at
// the head and removal from the tail, giving FIFO wake order (spec.md
// section 3). It is intrusive: the links live on the Thread itself, mirroring
// the teacher's common.Queue but supporting O(1) removal from the middle,
// which cancel() needs.
type Queue struct {
	head, tail *Thread
	size       int
}

// NewQueue returns an empty wait channel (queue_init).
func NewQueue() *Queue {
	return &Queue{}
}

// Len returns the number of threads currently enqueued.
func (q *Queue) Len() int {
	return q.size
}

// enqueue inserts t at the head of q and records q as t's wait channel.
// Callers must hold the Scheduler's mu.
func (q *Queue) enqueue(t *Thread) {
	t.qNext = q.head
	t.qPrev = nil
	if q.head != nil {
		q.head.qPrev = t
	}
	q.head = t
	if q.tail == nil {
		q.tail = t
	}
	q.size++
	t.waitChan = q
}

// dequeue removes and returns the thread at the tail of q (FIFO order), or
// nil if q is empty. Callers must hold the Scheduler's mu.
func (q *Queue) dequeue() *Thread {
	if q.tail == nil {
		return nil
	}
	t := q.tail
	q.tail = t.qPrev
	if q.tail != nil {
		q.tail.qNext = nil
	} else {
		q.head = nil
	}
	t.qPrev, t.qNext = nil, nil
	t.waitChan = nil
	q.size--
	return t
}

// remove detaches t from q if t is currently on it. Callers must hold the
// Scheduler's mu.
func (q *Queue) remove(t *Thread) bool {
	if t.waitChan != q {
		return false
	}
	if t.qPrev != nil {
		t.qPrev.qNext = t.qNext
	} else {
		q.head = t.qNext
	}
	if t.qNext != nil {
		t.qNext.qPrev = t.qPrev
	} else {
		q.tail = t.qPrev
	}
	t.qPrev, t.qNext = nil, nil
	t.waitChan = nil
	q.size--
	return true
}
