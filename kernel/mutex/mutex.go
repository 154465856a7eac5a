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

// Package mutex implements the strict thread-context-only blocking lock from
// spec.md section 4.2: a holder slot plus one wait queue, built directly on
// top of kernel/sched rather than a host sync.Mutex, so contention is
// visible to the scheduler and the handoff-on-unlock discipline holds.
package mutex

import (
	"sync"

	"github.com/weenix-go/weenix/kernel/sched"
)

// Mutex is a blocking lock whose contended path suspends the calling thread
// on the scheduler rather than spinning. It must only be used from thread
// context (never from interrupt-context code).
type Mutex struct {
	s *sched.Scheduler

	mu     sync.Mutex // guards holder only; queue membership is the scheduler's lock's job
	holder *sched.Thread
	waitq  *sched.Queue
}

// New returns an unheld mutex scheduled against s.
func New(s *sched.Scheduler) *Mutex {
	return &Mutex{s: s, waitq: sched.NewQueue()}
}

// Holder returns the thread currently holding m, or nil if unheld.
func (m *Mutex) Holder() *sched.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder
}

// Lock acquires m, blocking non-cancellably if it is already held.
// Precondition: the calling thread does not already hold m.
func (m *Mutex) Lock() {
	cur := m.s.Current()

	m.mu.Lock()
	if m.holder == cur {
		m.mu.Unlock()
		panic("mutex: Lock called by the current holder")
	}
	if m.holder == nil {
		m.holder = cur
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	// Contended: sleep until unlock() hands the lock directly to us.
	m.s.SleepOn(m.waitq)
}

// LockCancellable acquires m like Lock, but the wait is cancellable: it
// returns sched.ErrInterrupted (without holding m) if the calling thread is
// cancelled before or during the wait.
func (m *Mutex) LockCancellable() error {
	cur := m.s.Current()

	m.mu.Lock()
	if m.holder == cur {
		m.mu.Unlock()
		panic("mutex: LockCancellable called by the current holder")
	}
	if m.holder == nil {
		m.holder = cur
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	err := m.s.CancellableSleepOn(m.waitq)
	if err != nil {
		// Unlock's WakeupOn may have already dequeued cur and handed it m in
		// the window between that handoff and cur observing its own
		// cancellation here; if so, release m immediately (handing it to the
		// next waiter, if any) so a cancelled LockCancellable never returns
		// holding the lock (spec.md section 4.2).
		m.mu.Lock()
		if m.holder == cur {
			m.holder = nil
			if woken := m.s.WakeupOn(m.waitq); woken != nil {
				m.holder = woken
			}
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// Unlock releases m. Precondition: the calling thread holds m. If a thread
// is waiting, ownership is handed directly to it (no re-contention); if the
// wait queue is empty, m becomes free.
func (m *Mutex) Unlock() {
	cur := m.s.Current()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holder != cur {
		panic("mutex: Unlock called by a non-holder")
	}
	m.holder = nil

	if woken := m.s.WakeupOn(m.waitq); woken != nil {
		m.holder = woken
	}
}
