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

import "time"

// Cap is a bitmask advertising which of a vnode's Ops function fields are
// populated. A driver that does not support an operation simply leaves the
// corresponding field nil and the bit unset; callers check Caps before
// dispatch rather than calling through a nil func value, which is how
// spec.md section 4.4's vtable renders the original's "optional function
// pointer" convention in Go.
type Cap uint16

const (
	CapLookup Cap = 1 << iota
	CapCreate
	CapMkdir
	CapRmdir
	CapMknod
	CapLink
	CapUnlink
	CapRead
	CapWrite
	CapReaddir
	CapStat
)

// Has reports whether every bit in want is set in c.
func (c Cap) Has(want Cap) bool {
	return c&want == want
}

// Stat is the result of a stat vnode operation.
type Stat struct {
	Mode    Mode
	Size    int64
	Dev     int
	ModTime time.Time
}

// Ops is a vnode operations table: one function field per operation a
// filesystem driver may support, plus Caps recording which are populated.
// This is a struct of function fields rather than a Go interface because
// spec.md models vnode dispatch on a C-style vtable where any entry may be
// legitimately absent; an interface would force every driver to implement
// every method, stubbing out the ones that don't apply.
type Ops struct {
	Caps Cap

	// Lookup resolves name within the directory dir. Returns *Vnode with one
	// reference held by the caller, or an errno.Errno.
	Lookup func(dir *Vnode, name string) (*Vnode, error)

	// Create makes and returns a new regular file named name within dir.
	Create func(dir *Vnode, name string) (*Vnode, error)

	// Mkdir creates an empty subdirectory named name within dir.
	Mkdir func(dir *Vnode, name string) error

	// Rmdir removes the empty subdirectory named name from dir.
	Rmdir func(dir *Vnode, name string) error

	// Mknod creates a device special file named name within dir.
	Mknod func(dir *Vnode, name string, mode Mode, dev int) error

	// Link adds a new directory entry named name within dir pointing at the
	// existing vnode target (a hard link).
	Link func(dir *Vnode, name string, target *Vnode) error

	// Unlink removes the directory entry named name from dir.
	Unlink func(dir *Vnode, name string) error

	// Read copies into buf starting at byte offset pos, returning the number
	// of bytes read (0 at end of file).
	Read func(v *Vnode, pos int64, buf []byte) (int, error)

	// Write copies buf into v starting at byte offset pos, returning the
	// number of bytes written.
	Write func(v *Vnode, pos int64, buf []byte) (int, error)

	// Readdir returns the directory entry at position pos and the delta to
	// advance pos by for the next call. An empty name with delta 0 signals
	// the end of the directory.
	Readdir func(v *Vnode, pos int64) (name string, delta int64, err error)

	// Stat returns v's current size and mode.
	Stat func(v *Vnode) (Stat, error)

	// Destroy releases driver-private state when a vnode's reference count
	// reaches zero. Optional even among populated ops tables; a driver whose
	// Data needs no teardown (an in-memory directory's entry list is reclaimed
	// by the garbage collector either way) can leave it nil.
	Destroy func(v *Vnode)
}
