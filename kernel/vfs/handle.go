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

package vfs

import "sync"

// HandleMode records the access mode an open file handle was opened with,
// derived from the low bits of the oflags passed to do_open.
type HandleMode int

const (
	FmodeRead HandleMode = 1 << iota
	FmodeWrite
	FmodeAppend
)

// Handle is an open file description: the (vnode, mode, position) triple an
// fd slot in a process's descriptor table points at. Distinct fds produced
// by dup/dup2 share the same Handle and therefore the same file position,
// exactly as POSIX dup semantics require; distinct do_open calls on the same
// path produce distinct Handles with independent positions.
type Handle struct {
	mu       sync.Mutex
	vnode    *Vnode
	mode     HandleMode
	pos      int64
	refcount int
}

// IncRef records an additional fd slot sharing this handle (dup/dup2).
func (h *Handle) IncRef() {
	h.mu.Lock()
	h.refcount++
	h.mu.Unlock()
}

// Close drops one reference to h. When the last fd referencing it is
// closed, the underlying vnode reference is released. Close never itself
// fails; it satisfies proc.FileHandle only so proc_cleanup can close a
// process's remaining fds uniformly.
func (h *Handle) Close() error {
	h.mu.Lock()
	h.refcount--
	last := h.refcount <= 0
	h.mu.Unlock()

	if last {
		h.vnode.DecRef()
	}
	return nil
}

// Vnode returns the vnode this handle was opened against.
func (h *Handle) Vnode() *Vnode {
	return h.vnode
}
