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

package proc

import (
	"sync"

	"github.com/weenix-go/weenix/kernel/sched"
)

// MaxCount is PROC_MAX_COUNT, the default bound on live processes. cfg
// overrides this at boot; tests are free to construct a Table with a smaller
// bound to exercise the "table full" path cheaply.
const MaxCount = 1024

// Table is the global process list plus the bookkeeping proc_create,
// proc_cleanup, and waitpid need: the well-known idle and init processes and
// the scheduler processes are dispatched against.
type Table struct {
	mu       sync.Mutex
	sched    *sched.Scheduler
	maxCount int
	byPID    map[int]*Process
	nextPID  int

	idle *Process
	init *Process
}

// NewTable returns an empty process table bound to s, admitting at most
// maxCount simultaneously live processes.
func NewTable(s *sched.Scheduler, maxCount int) *Table {
	if maxCount <= 0 {
		maxCount = MaxCount
	}
	return &Table{
		sched:    s,
		maxCount: maxCount,
		byPID:    make(map[int]*Process),
	}
}

// Idle returns the PID 0 process, or nil before it has been created.
func (t *Table) Idle() *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

// Init returns the PID 1 process, or nil before it has been created.
func (t *Table) Init() *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.init
}

// Current returns the process owning the scheduler's current thread, or nil
// if the current thread has no owning process (should not happen once Boot
// has created the idle process).
func (t *Table) Current() *Process {
	th := t.sched.Current()
	if th == nil {
		return nil
	}
	p, _ := th.Owner.(*Process)
	return p
}

// Lookup returns the process with the given PID, or nil if none is live.
func (t *Table) Lookup(pid int) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byPID[pid]
}

// Snapshot returns every currently live process, in unspecified order. It
// backs kernel.Snapshot's debug view of the process list (spec.md section 9
// supplemented feature, grounded on the original kernel's proc_list).
func (t *Table) Snapshot() []*Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Process, 0, len(t.byPID))
	for _, p := range t.byPID {
		out = append(out, p)
	}
	return out
}

// allocPID returns the next unused PID below maxCount, scanning forward from
// the last one handed out and wrapping (PID allocation is a monotonic
// counter modulo PROC_MAX_COUNT that skips PIDs already present, spec.md
// section 4.3), or -1 if the table is full.
func (t *Table) allocPID() int {
	if len(t.byPID) >= t.maxCount {
		return -1
	}
	for i := 0; i < t.maxCount; i++ {
		candidate := (t.nextPID + i) % t.maxCount
		if _, used := t.byPID[candidate]; !used {
			t.nextPID = (candidate + 1) % t.maxCount
			return candidate
		}
	}
	return -1
}
