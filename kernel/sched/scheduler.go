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

// Package sched implements the run queue, sleep queues, cancellable sleep,
// and cooperative context switch described in spec.md section 4.1. A kernel
// stack + context_switch pair is rendered as one goroutine per thread plus a
// channel baton (Thread.resumeCh): exactly one thread's goroutine is ever
// unblocked past its baton receive, which is what makes curthr/curproc safe
// to read without further locking from "the running thread's" own code, and
// is enforced redundantly by a weight-1 semaphore standing in for the single
// CPU (spec.md section 5: "single CPU ... No parallelism").
package sched

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/weenix-go/weenix/internal/clock"
)

// Scheduler owns the run queue and the single simulated CPU. The zero value
// is not usable; construct with New.
type Scheduler struct {
	mu       sync.Mutex
	runQueue *Queue
	current  *Thread
	nextID   int

	cpu     *semaphore.Weighted
	kick    chan struct{}
	limiter *rate.Limiter
	clk     clock.Clock
}

// New returns a Scheduler with an empty run queue and no current thread.
// Callers must Spawn an initial thread and call Start before any other
// method that assumes a current thread exists. clk paces awaitRunnable's
// halt-for-interrupt wait and is swappable for a clock.SimulatedClock in
// tests that need the idle wait to advance deterministically; a nil clk
// defaults to clock.RealClock{}.
func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Scheduler{
		runQueue: NewQueue(),
		cpu:      semaphore.NewWeighted(1),
		kick:     make(chan struct{}, 1),
		// Paces the run-queue-empty retry loop in Switch, the analogue of
		// the halt-for-interrupt branch; real hardware wakes on the next
		// interrupt instead of polling, but a teaching kernel has none.
		limiter: rate.NewLimiter(rate.Limit(200), 1),
		clk:     clk,
	}
}

// Spawn allocates a new thread bound to owner (an opaque *proc.Process,
// typically) whose body is fn. This is kthread_create: the thread starts in
// NoState and is not on any queue until MakeRunnable is called. fn may end
// the thread by calling Exit (directly or via the proc layer's kthread_exit)
// with an explicit exit value; a fn that returns normally without calling
// Exit has its return value recorded automatically.
func (s *Scheduler) Spawn(owner any, fn func(t *Thread) int) *Thread {
	s.mu.Lock()
	s.nextID++
	t := &Thread{
		id:       s.nextID,
		Owner:    owner,
		state:    NoState,
		resumeCh: make(chan struct{}, 1),
	}
	s.mu.Unlock()

	go func() {
		<-t.resumeCh
		if err := s.cpu.Acquire(context.Background(), 1); err != nil {
			panic(err)
		}
		ret := fn(t)
		s.exitCurrent(t, ret)
	}()

	return t
}

// Start makes initial the current thread and resumes its goroutine. It must
// be called exactly once, before the scheduler has any other notion of a
// current thread (typically to hand control to the idle thread at boot).
func (s *Scheduler) Start(initial *Thread) {
	s.mu.Lock()
	initial.state = Running
	s.current = initial
	s.mu.Unlock()
	initial.resumeCh <- struct{}{}
}

// Current returns the thread presently holding the simulated CPU. Safe to
// call only from that thread's own goroutine (i.e. from inside a thread
// body), which is always the case for code reachable from kernel/proc and
// kernel/vfs syscalls.
func (s *Scheduler) Current() *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// MakeRunnable places t on the run queue. Precondition: t is not already on
// the run queue (spec.md section 4.1).
func (s *Scheduler) MakeRunnable(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.makeRunnableLocked(t)
}

func (s *Scheduler) makeRunnableLocked(t *Thread) {
	if t.waitChan == s.runQueue {
		panic("sched: MakeRunnable on a thread already on the run queue")
	}
	t.state = Running
	s.runQueue.enqueue(t)
	s.notifyRunnable()
}

// SleepOn suspends the current thread on q, non-cancellably. It returns once
// another thread (or interrupt-context code) has called WakeupOn/BroadcastOn
// for q and dequeued this thread.
func (s *Scheduler) SleepOn(q *Queue) {
	t := s.Current()
	s.mu.Lock()
	t.state = Sleep
	q.enqueue(t)
	s.mu.Unlock()

	s.Switch()
}

// ErrInterrupted is returned by CancellableSleepOn when the sleep was
// cancelled before or during the wait.
var ErrInterrupted = interruptedError{}

type interruptedError struct{}

func (interruptedError) Error() string { return "EINTR" }

// CancellableSleepOn suspends the current thread on q, checking for prior
// cancellation first. Returns ErrInterrupted if the thread's cancellation
// flag was set either before sleeping or by a cancel() that arrived while
// asleep.
func (s *Scheduler) CancellableSleepOn(q *Queue) error {
	t := s.Current()

	s.mu.Lock()
	if t.cancelled {
		s.mu.Unlock()
		return ErrInterrupted
	}
	t.state = SleepCancellable
	q.enqueue(t)
	s.mu.Unlock()

	s.Switch()

	if t.cancelled {
		return ErrInterrupted
	}
	return nil
}

// WakeupOn dequeues and makes runnable the longest-waiting thread on q (FIFO),
// returning it, or nil if q was empty.
func (s *Scheduler) WakeupOn(q *Queue) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := q.dequeue()
	if t == nil {
		return nil
	}
	if t.state != Sleep && t.state != SleepCancellable {
		panic("sched: WakeupOn dequeued a thread that was not sleeping")
	}
	s.makeRunnableLocked(t)
	return t
}

// BroadcastOn wakes every thread waiting on q.
func (s *Scheduler) BroadcastOn(q *Queue) {
	for s.WakeupOn(q) != nil {
	}
}

// Cancel sets t's cancellation flag. If t is currently in SleepCancellable it
// is moved onto the run queue immediately; otherwise the flag is observed
// the next time t reaches a cancellable suspension point. Legal to call from
// outside thread context (it masks internally).
func (s *Scheduler) Cancel(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.cancelled = true
	if t.state == SleepCancellable {
		if q := t.waitChan; q != nil {
			q.remove(t)
		}
		s.makeRunnableLocked(t)
	}
}

// Switch dequeues the next runnable thread and transfers control to it,
// returning to the calling thread only once something later switches back to
// it. If the run queue is empty it waits (the halt-for-interrupt analogue)
// until MakeRunnable/WakeupOn/Cancel from another goroutine adds work.
func (s *Scheduler) Switch() {
	s.mu.Lock()
	for s.runQueue.Len() == 0 {
		s.mu.Unlock()
		s.awaitRunnable()
		s.mu.Lock()
	}
	next := s.runQueue.dequeue()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev == next {
		return
	}

	s.cpu.Release(1)
	next.resumeCh <- struct{}{}

	if prev != nil {
		<-prev.resumeCh
		if err := s.cpu.Acquire(context.Background(), 1); err != nil {
			panic(err)
		}
	}
}

// Exit is kthread_exit: it records retval, hands the CPU to the next
// runnable thread, and never returns to its caller (it ends the calling
// goroutine with runtime.Goexit after any deferred vnode/handle releases
// have run), matching spec.md section 4.3's precondition that kthread_exit
// must never return.
func (s *Scheduler) Exit(retval int) {
	t := s.Current()
	s.exitCurrent(t, retval)
	runtime.Goexit()
}

// exitCurrent is invoked when a thread's body function returns (whether
// directly or via kthread_exit in kernel/proc). It records the return value,
// hands the CPU to the next runnable thread, and lets this goroutine
// terminate — unlike Switch, it never waits to be resumed, since an exited
// thread is never scheduled again.
func (s *Scheduler) exitCurrent(t *Thread, retval int) {
	s.mu.Lock()
	t.state = Exited
	t.retval = retval
	s.mu.Unlock()

	s.mu.Lock()
	for s.runQueue.Len() == 0 {
		s.mu.Unlock()
		s.awaitRunnable()
		s.mu.Lock()
	}
	next := s.runQueue.dequeue()
	s.current = next
	s.mu.Unlock()

	s.cpu.Release(1)
	next.resumeCh <- struct{}{}
}

func (s *Scheduler) notifyRunnable() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) awaitRunnable() {
	delay := s.limiter.Reserve().Delay()
	if delay <= 0 {
		delay = time.Millisecond
	}
	select {
	case <-s.kick:
	case <-s.clk.After(delay):
	}
}
