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
	"github.com/weenix-go/weenix/internal/errno"
	"github.com/weenix-go/weenix/kernel/sched"
)

// CreateProcess is proc_create: allocate a PID, link into the parent's
// children list, and set up an empty FD table of nfiles slots. Panics if the
// PID 0/PID 1 preconditions from spec.md section 4.3 are violated, or if the
// table is full (treated as fatal in this core, matching the spec).
func (t *Table) CreateProcess(name string, nfiles int) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	pid := t.allocPID()
	if pid == -1 {
		panic("proc: process table full")
	}

	if pid == 0 && len(t.byPID) != 0 {
		panic("proc: PID 0 may only be created when the process list is empty")
	}

	cur := t.currentLocked()
	if pid == 1 && (t.idle == nil || cur != t.idle) {
		panic("proc: PID 1 may only be created by the idle process")
	}

	p := &Process{
		pid:       pid,
		name:      truncate(name, NameLen),
		state:     Running,
		waitQueue: sched.NewQueue(),
	}
	if pid != 0 {
		p.parent = cur
	}
	if nfiles > 0 {
		p.fds = make([]FileHandle, nfiles)
	}
	if p.parent != nil && p.parent.cwd != nil {
		p.parent.cwd.IncRef()
		p.cwd = p.parent.cwd
	}

	t.byPID[pid] = p
	switch pid {
	case 0:
		t.idle = p
	case 1:
		t.init = p
	}
	if p.parent != nil {
		p.parent.mu.Lock()
		p.parent.children = append(p.parent.children, p)
		p.parent.mu.Unlock()
	}
	return p
}

// currentLocked is Current without re-taking t.mu, for callers that already
// hold it.
func (t *Table) currentLocked() *Process {
	th := t.sched.Current()
	if th == nil {
		return nil
	}
	p, _ := th.Owner.(*Process)
	return p
}

func truncate(name string, n int) string {
	if len(name) <= n {
		return name
	}
	return name[:n]
}

// CreateThread is kthread_create: spawn a scheduler thread owned by p and
// link it into p's thread list.
func (t *Table) CreateThread(p *Process, fn func(th *sched.Thread) int) *sched.Thread {
	th := t.sched.Spawn(p, fn)
	p.mu.Lock()
	p.threads = append(p.threads, th)
	p.mu.Unlock()
	return th
}

// ThreadExit is kthread_exit: it records retval and runs proc_thread_exited
// (proc_cleanup then switch()), rendered here as Cleanup then sched.Exit.
// Like sched.Exit, it never returns to its caller.
func (t *Table) ThreadExit(retval int) {
	p := t.Current()
	t.cleanup(p, retval)
	t.sched.Exit(retval) // does not return
}

// cleanup is proc_cleanup(status): reparent children, mark the process dead,
// drop it from the global table, close its FDs, release its cwd, and wake
// its parent.
func (t *Table) cleanup(p *Process, status int) {
	if t.Init() == nil {
		panic("proc: cleanup before init exists")
	}
	if p == t.Idle() {
		panic("proc: the idle process may not exit")
	}
	if p.Parent() == nil {
		panic("proc: cleanup on a process with no parent")
	}

	children := p.Children()
	initProc := t.Init()
	if p == initProc {
		// init adopts the burden of reaping its own orphans on shutdown.
		for _, c := range children {
			t.waitSpecific(initProc, c.pid)
		}
	} else {
		for _, c := range children {
			c.mu.Lock()
			c.parent = initProc
			c.mu.Unlock()
			initProc.mu.Lock()
			initProc.children = append(initProc.children, c)
			initProc.mu.Unlock()
		}
	}

	p.mu.Lock()
	p.status = status
	p.state = Dead
	p.children = nil
	fds := p.fds
	cwd := p.cwd
	p.cwd = nil
	p.mu.Unlock()

	t.mu.Lock()
	delete(t.byPID, p.pid)
	t.mu.Unlock()

	for _, h := range fds {
		if h != nil {
			h.Close()
		}
	}
	if cwd != nil {
		cwd.DecRef()
	}

	parent := p.Parent()
	t.sched.WakeupOn(parent.waitQueue)
}

// Kill is proc_kill: if p is the caller's own process this is do_exit and
// does not return; otherwise every one of p's threads is cancelled (actual
// termination happens when those threads next reach a suspension or exit
// point) and p's status is set.
func (t *Table) Kill(p *Process, status int) {
	if p == t.Current() {
		t.Exit(status) // does not return
	}
	for _, th := range p.Threads() {
		t.sched.Cancel(th)
	}
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// KillAll is proc_kill_all: kill every process that is not a direct child of
// the idle process and is not the caller, then, if the caller itself is not
// a direct child of idle, do_exit(0). Idle and init are never targeted.
func (t *Table) KillAll() {
	idle := t.Idle()
	cur := t.Current()
	for _, p := range t.Snapshot() {
		if p == idle || p.Parent() == idle || p == cur {
			continue
		}
		t.Kill(p, 0)
	}
	if cur != nil && cur.Parent() != idle {
		t.Exit(0) // does not return
	}
}

// Exit is do_exit: cancel every other thread belonging to the caller, then
// kthread_exit the calling thread. Does not return.
func (t *Table) Exit(status int) {
	p := t.Current()
	cur := t.sched.Current()
	for _, th := range p.Threads() {
		if th != cur {
			t.sched.Cancel(th)
		}
	}
	t.ThreadExit(status) // does not return
}

// Wait is waitpid(pid, 0, *status): -ECHILD for pid < -1 or no children;
// pid == -1 waits for any child to die; pid > 0 waits for that specific
// child. Returns the reaped child's PID and exit status.
func (t *Table) Wait(pid int) (int, int, error) {
	p := t.Current()
	if pid < -1 {
		return 0, 0, errno.ECHILD
	}
	if len(p.Children()) == 0 {
		return 0, 0, errno.ECHILD
	}
	if pid == -1 {
		return t.waitAny(p)
	}
	if !hasChild(p, pid) {
		return 0, 0, errno.ECHILD
	}
	return t.waitSpecific(p, pid)
}

func hasChild(p *Process, pid int) bool {
	for _, c := range p.Children() {
		if c.pid == pid {
			return true
		}
	}
	return false
}

func (t *Table) waitAny(p *Process) (int, int, error) {
	for {
		if c := firstDeadChild(p); c != nil {
			return t.reap(p, c)
		}
		if err := t.sched.CancellableSleepOn(p.waitQueue); err != nil {
			return 0, 0, errno.EINTR
		}
	}
}

func (t *Table) waitSpecific(p *Process, pid int) (int, int, error) {
	for {
		c := findChild(p, pid)
		if c == nil {
			return 0, 0, errno.ECHILD
		}
		if c.State() == Dead {
			return t.reap(p, c)
		}
		if err := t.sched.CancellableSleepOn(p.waitQueue); err != nil {
			return 0, 0, errno.EINTR
		}
	}
}

func firstDeadChild(p *Process) *Process {
	for _, c := range p.Children() {
		if c.State() == Dead {
			return c
		}
	}
	return nil
}

func findChild(p *Process, pid int) *Process {
	for _, c := range p.Children() {
		if c.pid == pid {
			return c
		}
	}
	return nil
}

// reap removes the zombie c from p's children list and returns its PID and
// status, finishing its destruction. c was already dropped from the global
// table by cleanup; there are no kernel stacks or page directories to free
// in this rendering, so removing it from p's children is all that remains.
func (t *Table) reap(p *Process, c *Process) (int, int, error) {
	p.mu.Lock()
	for i, child := range p.children {
		if child == c {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	return c.pid, c.Status(), nil
}
