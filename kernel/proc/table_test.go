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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weenix-go/weenix/kernel/sched"
)

func TestCreateProcessPanicsWhenTableFull(t *testing.T) {
	result := make(chan bool, 1)
	s := sched.New(nil)
	tbl := NewTable(s, 1) // room for only idle
	tbl.CreateProcess("idle", 0)

	func() {
		defer func() { result <- recover() != nil }()
		tbl.CreateProcess("too-many", 0)
	}()

	select {
	case paniced := <-result:
		assert.True(t, paniced, "CreateProcess on a full table did not panic")
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
}

func TestPIDAllocationIsMonotonic(t *testing.T) {
	result := make(chan int, 1)
	boot(t, func(s *sched.Scheduler, tbl *Table, init *Process) int {
		child := tbl.CreateProcess("child", 0)
		firstPID := child.PID()
		childThread := tbl.CreateThread(child, func(th *sched.Thread) int {
			tbl.ThreadExit(0)
			return 0
		})
		s.MakeRunnable(childThread)
		tbl.Wait(firstPID)

		second := tbl.CreateProcess("child-again", 0)
		result <- second.PID()
		return 0
	})

	select {
	case pid := <-result:
		// PID allocation is a monotonic counter modulo MaxCount, not a
		// most-recently-freed reuse policy, so the next PID after the
		// child (PID 2) is reaped is 3, not a reuse of 2.
		assert.Equal(t, 3, pid)
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
}
