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

// Package proc implements the process and thread lifecycle of spec.md
// section 4.3: PID allocation, proc_create, kthread_create/kthread_exit,
// reparenting-on-exit, proc_kill(_all), do_exit, and waitpid. It is built
// directly on kernel/sched rather than the host OS process model.
package proc

import (
	"sync"

	"github.com/weenix-go/weenix/kernel/sched"
)

// NameLen is PROC_NAME_LEN: process names are truncated to this many bytes.
const NameLen = 32

// State is a process's position in the lifecycle described in spec.md
// section 4.3: RUNNING -> (cleanup) -> DEAD -> (reaped by parent) destroyed.
type State int

const (
	Running State = iota
	Dead
)

func (s State) String() string {
	if s == Dead {
		return "DEAD"
	}
	return "RUNNING"
}

// FileHandle is the minimal surface proc needs from an open file handle to
// close it during cleanup, without importing kernel/vfs (which itself needs
// to read curproc's cwd/fd table, an import in the other direction).
type FileHandle interface {
	Close() error
}

// VnodeRef is the minimal surface proc needs from a vnode reference (a
// process's cwd) to hold and release it, for the same reason as FileHandle.
type VnodeRef interface {
	IncRef()
	DecRef()
}

// Process is one entry in the global process list.
type Process struct {
	mu sync.Mutex

	pid    int
	name   string
	state  State
	status int

	parent   *Process
	children []*Process
	threads  []*sched.Thread

	waitQueue *sched.Queue

	cwd VnodeRef
	fds []FileHandle
}

// PID returns the process's identifier, stable for its lifetime (including
// after it becomes a zombie, until the parent reaps it).
func (p *Process) PID() int {
	return p.pid
}

// Name returns the truncated process name recorded at creation.
func (p *Process) Name() string {
	return p.name
}

// State returns the process's current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Status returns the exit status recorded by proc_cleanup. Only meaningful
// once State() == Dead.
func (p *Process) Status() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Parent returns the process's parent, or nil for PID 0.
func (p *Process) Parent() *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parent
}

// Children returns a snapshot of the process's current children list.
func (p *Process) Children() []*Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Process, len(p.children))
	copy(out, p.children)
	return out
}

// Threads returns a snapshot of the process's current thread list.
func (p *Process) Threads() []*sched.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*sched.Thread, len(p.threads))
	copy(out, p.threads)
	return out
}

// WaitQueue returns the queue parents of this process's children sleep on
// while waiting for one of them to die (p_wait in spec.md section 4.3), and
// that this process itself sleeps on inside waitpid.
func (p *Process) WaitQueue() *sched.Queue {
	return p.waitQueue
}

// CWD returns the process's current working directory vnode reference, or
// nil if VFS is not active.
func (p *Process) CWD() VnodeRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cwd
}

// SetCWD replaces the process's cwd reference without touching refcounts;
// callers (kernel/vfs's do_chdir) are responsible for IncRef on the new
// vnode and DecRef on whatever CWD() previously returned.
func (p *Process) SetCWD(v VnodeRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cwd = v
}

// FD returns the file handle installed at index i, or nil if i is out of
// range or the slot is empty.
func (p *Process) FD(i int) FileHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.fds) {
		return nil
	}
	return p.fds[i]
}

// SetFD installs h at index i, replacing whatever was there without closing
// it; callers are responsible for closing a displaced handle themselves.
func (p *Process) SetFD(i int, h FileHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.fds) {
		return
	}
	p.fds[i] = h
}

// GetEmptyFD returns the lowest-numbered empty slot in the process's file
// descriptor table, or -1 if the table is full (EMFILE at the call site).
func (p *Process) GetEmptyFD() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, h := range p.fds {
		if h == nil {
			return i
		}
	}
	return -1
}

// NumFDSlots returns the size of the process's fixed-size descriptor table.
func (p *Process) NumFDSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fds)
}
