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

// Package ramfs is an in-memory filesystem driver: every vnode's contents
// live entirely in heap-allocated Go state, with no backing store. It
// implements kernel/vfs's Ops vtable for directories, regular files, and
// device nodes, grounded on the lookup-count and directory-entry patterns
// the teacher corpus uses for its own in-core inode cache.
package ramfs

import (
	"sync"
	"time"

	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/internal/errno"
	"github.com/weenix-go/weenix/kernel/vfs"
)

type dirEntry struct {
	name  string
	vnode *vfs.Vnode
}

// dirData is a directory vnode's Data: an ordered list of name/vnode pairs.
// A slice rather than a map keeps getdent's (pos, delta) protocol simple:
// pos is just an index into entries. clock stamps mtime on every mutation
// and is handed down to children created beneath this directory, so an
// entire ramfs tree shares one time source.
type dirData struct {
	mu      sync.Mutex
	entries []dirEntry
	clock   clock.Clock
	mtime   time.Time
}

var dirOps = &vfs.Ops{
	Caps: vfs.CapLookup | vfs.CapCreate | vfs.CapMkdir | vfs.CapRmdir |
		vfs.CapMknod | vfs.CapLink | vfs.CapUnlink | vfs.CapReaddir | vfs.CapStat,
	Lookup:  dirLookup,
	Create:  dirCreate,
	Mkdir:   dirMkdir,
	Rmdir:   dirRmdir,
	Mknod:   dirMknod,
	Link:    dirLink,
	Unlink:  dirUnlink,
	Readdir: dirReaddir,
	Stat:    dirStat,
}

// NewDir returns a fresh, empty ramfs directory vnode with one reference
// held by the caller. c stamps this directory's mtime and is inherited by
// every child created beneath it.
func NewDir(c clock.Clock) *vfs.Vnode {
	v := vfs.NewVnode(vfs.ModeDirectory, dirOps)
	v.Data = &dirData{clock: c, mtime: c.Now()}
	return v
}

func (d *dirData) find(name string) (int, *vfs.Vnode) {
	for i, e := range d.entries {
		if e.name == name {
			return i, e.vnode
		}
	}
	return -1, nil
}

func dirLookup(dir *vfs.Vnode, name string) (*vfs.Vnode, error) {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, v := d.find(name); v != nil {
		v.IncRef()
		return v, nil
	}
	return nil, errno.ENOENT
}

// dirCreate makes a new, empty regular file. The new vnode starts with two
// references: one held by the directory entry just added, one returned to
// the caller (open_namev's result).
func dirCreate(dir *vfs.Vnode, name string) (*vfs.Vnode, error) {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	v := NewFile(d.clock)
	v.IncRef()
	d.entries = append(d.entries, dirEntry{name, v})
	d.mtime = d.clock.Now()
	return v, nil
}

func dirMkdir(dir *vfs.Vnode, name string) error {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	v := NewDir(d.clock)
	d.entries = append(d.entries, dirEntry{name, v})
	d.mtime = d.clock.Now()
	return nil
}

func dirRmdir(dir *vfs.Vnode, name string) error {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	i, v := d.find(name)
	if v == nil {
		return errno.ENOENT
	}
	td := v.Data.(*dirData)
	td.mu.Lock()
	empty := len(td.entries) == 0
	td.mu.Unlock()
	if !empty {
		return errno.ENOTEMPTY
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	v.DecRef()
	d.mtime = d.clock.Now()
	return nil
}

func dirMknod(dir *vfs.Vnode, name string, mode vfs.Mode, dev int) error {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	v := NewDevice(d.clock, mode, dev)
	d.entries = append(d.entries, dirEntry{name, v})
	d.mtime = d.clock.Now()
	return nil
}

func dirLink(dir *vfs.Vnode, name string, target *vfs.Vnode) error {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	target.IncRef()
	d.entries = append(d.entries, dirEntry{name, target})
	d.mtime = d.clock.Now()
	return nil
}

func dirUnlink(dir *vfs.Vnode, name string) error {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	i, v := d.find(name)
	if v == nil {
		return errno.ENOENT
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	v.DecRef()
	d.mtime = d.clock.Now()
	return nil
}

// dirReaddir treats pos as an index into entries; delta is always 1 until
// the directory is exhausted, at which point it returns the empty-name, 0
// delta end-of-directory signal.
func dirReaddir(dir *vfs.Vnode, pos int64) (string, int64, error) {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()

	if pos < 0 || int(pos) >= len(d.entries) {
		return "", 0, nil
	}
	return d.entries[pos].name, 1, nil
}

func dirStat(dir *vfs.Vnode) (vfs.Stat, error) {
	d := dir.Data.(*dirData)
	d.mu.Lock()
	defer d.mu.Unlock()
	return vfs.Stat{Mode: dir.Mode(), Size: int64(len(d.entries)), ModTime: d.mtime}, nil
}
