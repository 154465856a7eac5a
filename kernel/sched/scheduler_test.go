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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix-go/weenix/internal/clock"
)

const testTimeout = 2 * time.Second

func recvOrFail(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for value")
		return -1
	}
}

// TestWakeupFIFOOrdering is scenario S6 from spec.md section 8, specialized
// to the raw scheduler (kernel/mutex's handoff test exercises the same
// guarantee at the mutex layer).
func TestWakeupFIFOOrdering(t *testing.T) {
	s := New(nil)
	q := NewQueue()
	order := make(chan int, 4)

	const n = 4
	threads := make([]*Thread, n)
	for i := 0; i < n; i++ {
		i := i
		threads[i] = s.Spawn(nil, func(th *Thread) int {
			s.SleepOn(q)
			order <- i
			return 0
		})
	}
	for i := 1; i < n; i++ {
		s.MakeRunnable(threads[i])
	}
	s.Start(threads[0])

	for i := 0; i < n; i++ {
		woken := s.WakeupOn(q)
		require.NotNil(t, woken, "WakeupOn returned nil on iteration %d", i)
		assert.Equal(t, i, recvOrFail(t, order), "wake order[%d]", i)
	}
}

func TestCancelWakesSleepCancellableImmediately(t *testing.T) {
	s := New(nil)
	q := NewQueue()
	result := make(chan error, 1)

	other := s.Spawn(nil, func(th *Thread) int { return 0 })
	sleeper := s.Spawn(nil, func(th *Thread) int {
		result <- s.CancellableSleepOn(q)
		return 0
	})

	s.MakeRunnable(other)
	s.Start(sleeper)

	// Give the sleeper a moment to actually reach CancellableSleepOn.
	time.Sleep(50 * time.Millisecond)
	s.Cancel(sleeper)

	err := <-result
	assert.Equal(t, ErrInterrupted, err)
	assert.Zero(t, q.Len(), "queue still holds the cancelled thread")
}

func TestCancelBeforeSleepReturnsImmediately(t *testing.T) {
	s := New(nil)
	q := NewQueue()
	result := make(chan error, 1)

	waiter := s.Spawn(nil, func(th *Thread) int {
		s.Cancel(th)
		result <- s.CancellableSleepOn(q)
		return 0
	})
	s.Start(waiter)

	err := <-result
	assert.Equal(t, ErrInterrupted, err)
	assert.Zero(t, q.Len(), "queue should never have held the thread")
}

// TestAwaitRunnableUsesInjectedClock proves the halt-for-interrupt wait in
// awaitRunnable is actually paced by the Scheduler's injected clock.Clock
// rather than real wall time: with a clock.SimulatedClock that never
// auto-advances, the wait only completes once the test explicitly moves the
// clock forward.
func TestAwaitRunnableUsesInjectedClock(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	s := New(clk)

	done := make(chan struct{})
	go func() {
		s.awaitRunnable()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("awaitRunnable returned before the simulated clock advanced")
	case <-time.After(50 * time.Millisecond):
	}

	clk.AdvanceTime(time.Second)

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("awaitRunnable did not return after the simulated clock advanced")
	}
}
