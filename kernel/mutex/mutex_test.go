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

package mutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix-go/weenix/kernel/sched"
)

const testTimeout = 2 * time.Second

// TestHandoffFIFOOrdering is scenario S6 from spec.md section 8: T0 holds M
// while T1, T2, T3 call lock(M) in that order; as M is released it passes
// directly to T1, then T2, then T3 (FIFO), never back up for grabs.
func TestHandoffFIFOOrdering(t *testing.T) {
	s := sched.New(nil)
	m := New(s)
	acquired := make(chan int, 3)

	var contenders []*sched.Thread
	for i := 0; i < 3; i++ {
		i := i
		contenders = append(contenders, s.Spawn(nil, func(th *sched.Thread) int {
			m.Lock()
			acquired <- i
			m.Unlock()
			return 0
		}))
	}
	for _, c := range contenders {
		s.MakeRunnable(c)
	}

	driver := s.Spawn(nil, func(th *sched.Thread) int {
		m.Lock() // uncontended: T0 acquires immediately.
		// Yield until all three contenders have blocked on m, so lock()
		// calls are observed to have happened in program order 1,2,3
		// before T0 releases the lock.
		for m.waitq.Len() < 3 {
			s.MakeRunnable(th)
			s.Switch()
		}
		m.Unlock()
		return 0
	})
	s.Start(driver)

	for want := 0; want < 3; want++ {
		select {
		case got := <-acquired:
			assert.Equal(t, want, got, "handoff order")
		case <-time.After(testTimeout):
			t.Fatalf("timed out waiting for contender %d to acquire m", want)
		}
	}
}

func TestLockByCurrentHolderPanics(t *testing.T) {
	s := sched.New(nil)
	m := New(s)
	paniced := make(chan bool, 1)

	th := s.Spawn(nil, func(th *sched.Thread) int {
		m.Lock()
		func() {
			defer func() { paniced <- recover() != nil }()
			m.Lock()
		}()
		return 0
	})
	s.Start(th)

	select {
	case ok := <-paniced:
		assert.True(t, ok, "relocking by the current holder did not panic")
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
}

func TestLockCancellableReturnsWithoutHolding(t *testing.T) {
	s := sched.New(nil)
	m := New(s)
	result := make(chan error, 1)

	holder := s.Spawn(nil, func(th *sched.Thread) int {
		m.Lock()
		return 0 // never unlocks; m stays held forever
	})
	s.Start(holder)

	var waiter *sched.Thread
	waiter = s.Spawn(nil, func(th *sched.Thread) int {
		result <- m.LockCancellable()
		return 0
	})

	// A second thread, dispatched only through the run queue (Start may be
	// called once per scheduler), that waits for the waiter to actually
	// block on m before cancelling it from thread context.
	driver := s.Spawn(nil, func(th *sched.Thread) int {
		for m.waitq.Len() == 0 {
			s.MakeRunnable(th)
			s.Switch()
		}
		s.Cancel(waiter)
		return 0
	})
	s.MakeRunnable(waiter)
	s.MakeRunnable(driver)

	select {
	case err := <-result:
		assert.Equal(t, sched.ErrInterrupted, err)
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
	assert.Same(t, holder, m.Holder(), "the original holder should be unchanged")
}

// TestLockCancellableReleasesLockWonAfterCancellation closes the race where
// Unlock's WakeupOn dequeues a cancellable waiter and hands it the lock
// before that waiter's own goroutine has resumed far enough to observe its
// cancellation: LockCancellable must still return without holding the lock
// (spec.md section 4.2), not leak it to a caller that believes it failed.
func TestLockCancellableReleasesLockWonAfterCancellation(t *testing.T) {
	s := sched.New(nil)
	m := New(s)
	result := make(chan error, 1)

	var stateMu sync.Mutex
	readyToUnlock := false

	var waiter *sched.Thread
	holder := s.Spawn(nil, func(th *sched.Thread) int {
		m.Lock() // uncontended

		for {
			stateMu.Lock()
			ready := readyToUnlock
			stateMu.Unlock()
			if ready {
				break
			}
			s.MakeRunnable(th)
			s.Switch()
		}

		// Hand the lock to waiter via Unlock's WakeupOn, then cancel waiter
		// before it ever resumes past CancellableSleepOn.
		m.Unlock()
		s.Cancel(waiter)
		return 0
	})

	waiter = s.Spawn(nil, func(th *sched.Thread) int {
		result <- m.LockCancellable()
		return 0
	})
	s.MakeRunnable(waiter)
	s.Start(holder)

	for i := 0; i < 200 && m.waitq.Len() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, m.waitq.Len(), "waiter never blocked on m")

	stateMu.Lock()
	readyToUnlock = true
	stateMu.Unlock()

	select {
	case err := <-result:
		assert.Equal(t, sched.ErrInterrupted, err)
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
	assert.Nil(t, m.Holder(), "a cancelled LockCancellable must not leave m held")
}
