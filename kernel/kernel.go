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

// Package kernel assembles the scheduler, process table, and VFS into one
// bootable unit and exposes the syscall-layer operations as a plain Go API,
// the boundary cmd/ and out-of-process tests call through instead of
// poking at kernel/sched, kernel/proc, and kernel/vfs directly.
package kernel

import (
	"context"
	"time"

	"github.com/weenix-go/weenix/cfg"
	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/internal/logger"
	"github.com/weenix-go/weenix/internal/telemetry"
	"github.com/weenix-go/weenix/kernel/mutex"
	"github.com/weenix-go/weenix/kernel/proc"
	"github.com/weenix-go/weenix/kernel/sched"
	"github.com/weenix-go/weenix/kernel/vfs"
	"github.com/weenix-go/weenix/kernel/vfs/ramfs"
)

// Kernel wires the scheduler, process table, and a ramfs-backed VFS into one
// running unit, rooted at a single init process every RunAsThread call
// spawns a worker thread under.
type Kernel struct {
	Sched   *sched.Scheduler
	Procs   *proc.Table
	VFS     *vfs.VFS
	Clock   clock.Clock
	Metrics *telemetry.SchedulerMetrics

	init *proc.Process
}

// Boot is kmain's boot sequence: create the idle process, create init as
// idle's first and only real piece of work, mount a ramfs root, and
// populate /dev with the null/zero/tty device nodes spec.md section 6
// names. clk and metrics may be nil (clock.RealClock{} and a metrics no-op,
// respectively).
func Boot(c cfg.Config, clk clock.Clock, metrics *telemetry.SchedulerMetrics) *Kernel {
	if clk == nil {
		clk = clock.RealClock{}
	}

	s := sched.New(clk)
	tbl := proc.NewTable(s, c.Kernel.MaxProcesses)
	idleProc := tbl.CreateProcess("idle", 0)

	root := ramfs.NewDir(clk)
	fs := vfs.New(root, tbl, mutex.New(s), c.Kernel.NameLen)

	k := &Kernel{Sched: s, Procs: tbl, VFS: fs, Clock: clk, Metrics: metrics}

	ready := make(chan struct{})
	idleThread := tbl.CreateThread(idleProc, func(th *sched.Thread) int {
		initProc := tbl.CreateProcess("init", c.Kernel.DefaultFDLimit)
		root.IncRef()
		initProc.SetCWD(root)
		if err := populateDev(fs); err != nil {
			logger.Errorf("kernel: populating /dev: %v", err)
		}
		k.init = initProc

		// Open /dev/tty for fds 0, 1, and 2 before init does anything else,
		// so the first real open() a caller makes returns fd 3 (scenario S1
		// from spec.md section 8), exactly as a freshly forked process
		// inherits open stdin/stdout/stderr. Run as a separate thread owned
		// by init, since fs.DoOpen resolves "the calling process" through
		// the scheduler's current thread, which is still idle's here.
		stdio := tbl.CreateThread(initProc, func(*sched.Thread) int {
			for i := 0; i < 3; i++ {
				if _, err := fs.DoOpen("/dev/tty", vfs.ORdWr); err != nil {
					logger.Errorf("kernel: opening stdio stream %d: %v", i, err)
					break
				}
			}
			return 0
		})
		// Enqueue stdio ahead of th (idle) so Switch's FIFO run queue
		// dispatches stdio first; th re-enqueues itself only to reclaim the
		// CPU once stdio exits.
		s.MakeRunnable(stdio)
		s.MakeRunnable(th)
		s.Switch()

		close(ready)

		// idle: hand the CPU to whatever RunAsThread makes runnable next,
		// forever. This is switch()'s halt-for-interrupt branch with no
		// real interrupt source behind it.
		for {
			s.Switch()
		}
	})
	s.Start(idleThread)
	<-ready
	return k
}

func populateDev(fs *vfs.VFS) error {
	if err := fs.DoMkdir("/dev"); err != nil {
		return err
	}
	devices := []struct {
		name string
		dev  int
	}{
		{"null", ramfs.DevNull},
		{"zero", ramfs.DevZero},
		{"tty", ramfs.DevTTY},
	}
	for _, d := range devices {
		if err := fs.DoMknod("/dev/"+d.name, vfs.ModeChar, d.dev); err != nil {
			return err
		}
	}
	return nil
}

// RunAsThread runs fn to completion as a new thread owned by init and
// returns its result, blocking the calling (unscheduled) goroutine until it
// finishes. Every kernel.Kernel method below is a thin wrapper around this,
// since kernel/proc and kernel/vfs both resolve "the calling process"
// through the scheduler's notion of the current thread, not through an
// explicit parameter.
func (k *Kernel) RunAsThread(fn func() int) int {
	k.Metrics.ContextSwitch(context.Background())
	result := make(chan int, 1)
	th := k.Procs.CreateThread(k.init, func(*sched.Thread) int {
		r := fn()
		result <- r
		return r
	})
	k.Sched.MakeRunnable(th)
	return <-result
}

// syscall runs op as a RunAsThread body, recording its latency and
// error-or-not outcome against k.Metrics.
func (k *Kernel) syscall(name string, op func() error) error {
	var err error
	k.RunAsThread(func() int {
		start := time.Now()
		err = op()
		k.Metrics.Syscall(context.Background(), name, start, err)
		return 0
	})
	return err
}

// ProcessSnapshot is one row of Kernel.Snapshot's debug view of the global
// process list (spec.md's proc_list, rendered for an out-of-kernel caller
// that has no thread context of its own to call proc.Table.Snapshot from).
type ProcessSnapshot struct {
	PID       int
	ParentPID int
	Name      string
	State     proc.State
}

// Snapshot returns a point-in-time view of every live process, for tests and
// diagnostics to assert on invariants 1, 6, and 7 directly (PID uniqueness,
// zombie reaping, orphan reparenting) without reaching into kernel/proc.
func (k *Kernel) Snapshot() []ProcessSnapshot {
	var out []ProcessSnapshot
	k.RunAsThread(func() int {
		procs := k.Procs.Snapshot()
		out = make([]ProcessSnapshot, 0, len(procs))
		for _, p := range procs {
			parentPID := -1
			if parent := p.Parent(); parent != nil {
				parentPID = parent.PID()
			}
			out = append(out, ProcessSnapshot{
				PID:       p.PID(),
				ParentPID: parentPID,
				Name:      p.Name(),
				State:     p.State(),
			})
		}
		return 0
	})
	return out
}

// Shutdown is proc_kill_all invoked from outside any process: every process
// but idle and init is cancelled; init itself is left running so its own
// caller can still use the Kernel afterward (e.g. to inspect Snapshot).
func (k *Kernel) Shutdown() {
	k.RunAsThread(func() int {
		k.Procs.KillAll()
		return 0
	})
}

// Open is do_open.
func (k *Kernel) Open(path string, flags vfs.OpenFlag) (int, error) {
	var fd int
	err := k.syscall("open", func() error {
		var e error
		fd, e = k.VFS.DoOpen(path, flags)
		return e
	})
	return fd, err
}

// Read is do_read.
func (k *Kernel) Read(fd int, buf []byte) (int, error) {
	var n int
	err := k.syscall("read", func() error {
		var e error
		n, e = k.VFS.DoRead(fd, buf)
		return e
	})
	return n, err
}

// Write is do_write.
func (k *Kernel) Write(fd int, buf []byte) (int, error) {
	var n int
	err := k.syscall("write", func() error {
		var e error
		n, e = k.VFS.DoWrite(fd, buf)
		return e
	})
	return n, err
}

// Close is do_close.
func (k *Kernel) Close(fd int) error {
	return k.syscall("close", func() error { return k.VFS.DoClose(fd) })
}

// Mkdir is do_mkdir.
func (k *Kernel) Mkdir(path string) error {
	return k.syscall("mkdir", func() error { return k.VFS.DoMkdir(path) })
}

// Rmdir is do_rmdir.
func (k *Kernel) Rmdir(path string) error {
	return k.syscall("rmdir", func() error { return k.VFS.DoRmdir(path) })
}

// Mknod is do_mknod.
func (k *Kernel) Mknod(path string, mode vfs.Mode, dev int) error {
	return k.syscall("mknod", func() error { return k.VFS.DoMknod(path, mode, dev) })
}

// Link is do_link.
func (k *Kernel) Link(oldpath, newpath string) error {
	return k.syscall("link", func() error { return k.VFS.DoLink(oldpath, newpath) })
}

// Unlink is do_unlink.
func (k *Kernel) Unlink(path string) error {
	return k.syscall("unlink", func() error { return k.VFS.DoUnlink(path) })
}

// Rename is do_rename.
func (k *Kernel) Rename(oldpath, newpath string) error {
	return k.syscall("rename", func() error { return k.VFS.DoRename(oldpath, newpath) })
}

// Stat is do_stat.
func (k *Kernel) Stat(path string) (vfs.Stat, error) {
	var st vfs.Stat
	err := k.syscall("stat", func() error {
		var e error
		st, e = k.VFS.DoStat(path)
		return e
	})
	return st, err
}

// Chdir is do_chdir.
func (k *Kernel) Chdir(path string) error {
	return k.syscall("chdir", func() error { return k.VFS.DoChdir(path) })
}

// Dup is do_dup.
func (k *Kernel) Dup(fd int) (int, error) {
	var newfd int
	err := k.syscall("dup", func() error {
		var e error
		newfd, e = k.VFS.DoDup(fd)
		return e
	})
	return newfd, err
}

// Dup2 is do_dup2.
func (k *Kernel) Dup2(oldfd, newfd int) (int, error) {
	var fd int
	err := k.syscall("dup2", func() error {
		var e error
		fd, e = k.VFS.DoDup2(oldfd, newfd)
		return e
	})
	return fd, err
}

// Lseek is do_lseek.
func (k *Kernel) Lseek(fd int, offset int64, whence int) (int64, error) {
	var pos int64
	err := k.syscall("lseek", func() error {
		var e error
		pos, e = k.VFS.DoLseek(fd, offset, whence)
		return e
	})
	return pos, err
}

// Getdent is do_getdent.
func (k *Kernel) Getdent(fd int) (string, error) {
	var name string
	err := k.syscall("getdent", func() error {
		var e error
		name, e = k.VFS.DoGetdent(fd)
		return e
	})
	return name, err
}
