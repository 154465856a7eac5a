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

// State is a thread's position in the state machine described in spec.md
// section 3: a thread is on exactly one queue iff its state is Running
// (the run queue), Sleep, or SleepCancellable.
type State int

const (
	NoState State = iota
	Running
	Sleep
	SleepCancellable
	Exited
)

func (s State) String() string {
	switch s {
	case NoState:
		return "NO_STATE"
	case Running:
		return "RUNNING"
	case Sleep:
		return "SLEEP"
	case SleepCancellable:
		return "SLEEP_CANCELLABLE"
	case Exited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// Thread is a kernel thread. Owner is an opaque back-pointer set by
// kernel/proc (a *proc.Process, boxed as any so this package does not need
// to import proc); the scheduler never dereferences it.
type Thread struct {
	id        int
	Owner     any
	state     State
	cancelled bool
	retval    int

	// waitChan, qPrev, qNext are the intrusive doubly linked list links used
	// by whichever Queue currently holds this thread. Guarded by the
	// Scheduler's mu.
	waitChan *Queue
	qPrev    *Thread
	qNext    *Thread

	// resumeCh is the baton: exactly one goroutine (this thread's) may be
	// unblocked from a receive on it at any time, which is how Switch
	// renders "the only place a CPU context changes" without real kernel
	// stacks.
	resumeCh chan struct{}
}

// ID returns the thread's scheduler-assigned identifier, stable for the
// thread's lifetime. It is not a PID; kernel/proc assigns PIDs to processes.
func (t *Thread) ID() int {
	return t.id
}

// State returns the thread's current state.
func (t *Thread) State() State {
	return t.state
}

// Cancelled reports whether cancel(T) has been called on this thread.
func (t *Thread) Cancelled() bool {
	return t.cancelled
}

// Retval returns the value passed to the most recent kthread_exit on this
// thread. Only meaningful once State() == Exited.
func (t *Thread) Retval() int {
	return t.retval
}

// OnQueue reports whether t is currently linked into some Queue, and which.
func (t *Thread) OnQueue() *Queue {
	return t.waitChan
}
