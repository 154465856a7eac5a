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

// Package vfs implements the name-resolution and file-descriptor layer of
// spec.md section 4.4: lookup, dir_namev, open_namev, and the do_* syscall
// entry points, dispatched through a per-vnode operations table supplied by
// a filesystem driver such as kernel/vfs/ramfs.
package vfs

import "sync"

// Mode is a vnode's type. Unlike a host filesystem, the type is the only
// mode information a vnode carries on its own (there are no permission
// bits); everything else (whether an operation applies) is a property of its
// Ops table.
type Mode int

const (
	ModeRegular Mode = iota
	ModeDirectory
	ModeChar
	ModeBlock
)

// IsDir reports whether m is ModeDirectory. do_chdir tests this directly
// rather than probing the vnode's op table, matching the corrected behavior
// in spec.md's design notes: chdir on a name that resolves to a non-directory
// fails even if that vnode happens to expose a Readdir op.
func (m Mode) IsDir() bool {
	return m == ModeDirectory
}

// Vnode is one in-core node: a driver-owned inode plus the reference count
// that governs its lifetime. It satisfies proc.VnodeRef structurally, so
// kernel/proc can hold a process's cwd without importing this package.
type Vnode struct {
	mu sync.Mutex

	mode Mode
	dev  int // device number, meaningful only for ModeChar/ModeBlock
	ops  *Ops

	refcount int

	// Data is driver-private state: a ramfs directory's entry list, a ramfs
	// file's backing buffer, and so on. The vfs package never reads it.
	Data any
}

// NewVnode returns a vnode of the given mode and ops table with one
// reference held by the caller (the driver that is creating it).
func NewVnode(mode Mode, ops *Ops) *Vnode {
	return &Vnode{mode: mode, ops: ops, refcount: 1}
}

// Mode returns the vnode's type.
func (v *Vnode) Mode() Mode {
	return v.mode
}

// Dev returns the vnode's device number (only meaningful for device files).
func (v *Vnode) Dev() int {
	return v.dev
}

// SetDev sets the device number; used by mknod when creating a device vnode.
func (v *Vnode) SetDev(dev int) {
	v.dev = dev
}

// IncRef raises v's reference count. Every pointer to a vnode held by a
// directory entry, an open handle, or a process's cwd counts as one
// reference, mirroring the lookupCount discipline of spec.md section 4.4.
func (v *Vnode) IncRef() {
	v.mu.Lock()
	v.refcount++
	v.mu.Unlock()
}

// DecRef drops v's reference count. When it reaches zero, v's optional
// Destroy hook runs so the driver can release whatever Data holds. Destroy
// reports nothing back to the caller.
func (v *Vnode) DecRef() {
	v.mu.Lock()
	v.refcount--
	destroyed := v.refcount <= 0
	v.mu.Unlock()

	if destroyed && v.ops != nil && v.ops.Destroy != nil {
		v.ops.Destroy(v)
	}
}

// RefCount returns v's current reference count, for tests and diagnostics.
func (v *Vnode) RefCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refcount
}
