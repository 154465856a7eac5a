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

import (
	"errors"
	"strings"

	"github.com/weenix-go/weenix/internal/errno"
	"github.com/weenix-go/weenix/kernel/mutex"
	"github.com/weenix-go/weenix/kernel/proc"
)

// NameLen is the default NAME_LEN: the longest single path component this
// layer will resolve. cfg may override it at boot.
const NameLen = 256

// OpenFlag is the oflags argument to do_open, mirroring the low-bit access
// mode plus the O_CREAT/O_TRUNC/O_APPEND behavior flags.
type OpenFlag int

const (
	ORdOnly     OpenFlag = 0x0
	OWrOnly     OpenFlag = 0x1
	ORdWr       OpenFlag = 0x2
	oAccessMask OpenFlag = 0x3

	OCreat  OpenFlag = 0x100
	OTrunc  OpenFlag = 0x200
	OAppend OpenFlag = 0x400
)

func (f OpenFlag) wantsWrite() bool {
	access := f & oAccessMask
	return access == OWrOnly || access == ORdWr
}

func (f OpenFlag) validAccess() bool {
	access := f & oAccessMask
	return access == ORdOnly || access == OWrOnly || access == ORdWr
}

// VFS is the per-kernel name-resolution state: the root vnode, the process
// table it resolves cwd against, and the single process-wide lock that
// makes open_namev's check-then-create sequence atomic relative to other
// creators (spec.md section 4.4).
type VFS struct {
	root           *Vnode
	procs          *proc.Table
	lookupCreateMu *mutex.Mutex
	nameLen        int
}

// New returns a VFS rooted at root, resolving relative paths against procs'
// current process and serializing open_namev's create path through
// lookupCreateMu. nameLen <= 0 uses NameLen.
func New(root *Vnode, procs *proc.Table, lookupCreateMu *mutex.Mutex, nameLen int) *VFS {
	if nameLen <= 0 {
		nameLen = NameLen
	}
	return &VFS{root: root, procs: procs, lookupCreateMu: lookupCreateMu, nameLen: nameLen}
}

// Root returns the filesystem's root vnode, without an added reference.
func (fs *VFS) Root() *Vnode {
	return fs.root
}

// cwd returns the calling process's current working directory, falling
// back to root if no process is current (during early boot) or no cwd has
// been set yet.
func (fs *VFS) cwd() *Vnode {
	p := fs.procs.Current()
	if p == nil {
		return fs.root
	}
	if v, ok := p.CWD().(*Vnode); ok && v != nil {
		return v
	}
	return fs.root
}

// lookup is the lookup(dir, name) operation of spec.md section 4.4: an
// empty name resolves to dir itself (with an added reference); a name
// longer than nameLen is -ENAMETOOLONG; a directory with no Lookup op is
// -ENOTDIR; otherwise dispatch is delegated to the driver.
func (fs *VFS) lookup(dir *Vnode, name string) (*Vnode, error) {
	if len(name) == 0 {
		dir.IncRef()
		return dir, nil
	}
	if len(name) > fs.nameLen {
		return nil, errno.ENAMETOOLONG
	}
	if dir.ops == nil || !dir.ops.Caps.Has(CapLookup) {
		return nil, errno.ENOTDIR
	}
	return dir.ops.Lookup(dir, name)
}

// splitComponents splits a slash-collapsed relative path into its non-empty
// components, so that runs of consecutive slashes act as one separator.
func splitComponents(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// DirNamev is dir_namev(path, base) of spec.md section 4.4: it resolves
// every component of path except the last, returning the parent directory
// (with an added reference the caller must release) and the final
// component's name. base, if non-nil, is the starting vnode for a relative
// path in place of the caller's cwd; a leading "/" always starts from root
// regardless of base.
func (fs *VFS) DirNamev(path string, base *Vnode) (*Vnode, string, error) {
	if path == "" {
		return nil, "", errno.EINVAL
	}

	var cur *Vnode
	switch {
	case path[0] == '/':
		cur = fs.root
	case base != nil:
		cur = base
	default:
		cur = fs.cwd()
	}
	cur.IncRef()

	rest := strings.TrimRight(strings.TrimLeft(path, "/"), "/")
	if rest == "" {
		// path was "/" or a run of slashes: the final component is "." and
		// it names cur itself.
		return cur, ".", nil
	}

	parts := splitComponents(rest)
	for i, comp := range parts {
		if len(comp) > fs.nameLen {
			cur.DecRef()
			return nil, "", errno.ENAMETOOLONG
		}
		if i == len(parts)-1 {
			return cur, comp, nil
		}
		next, err := fs.lookup(cur, comp)
		cur.DecRef()
		if err != nil {
			return nil, "", err
		}
		cur = next
	}
	// unreachable: parts is non-empty because rest is non-empty.
	return cur, "", nil
}

// OpenNamev is open_namev(path, flags, base) of spec.md section 4.4: resolve
// path to a vnode, creating it if flags has OCreat and it does not already
// exist. The returned vnode carries one reference the caller must release.
// lookupCreateMu serializes the check-then-create sequence against every
// other creator in the system.
func (fs *VFS) OpenNamev(path string, flags OpenFlag, base *Vnode) (*Vnode, error) {
	dir, name, err := fs.DirNamev(path, base)
	if err != nil {
		return nil, err
	}
	defer dir.DecRef()

	fs.lookupCreateMu.Lock()
	defer fs.lookupCreateMu.Unlock()

	v, err := fs.lookup(dir, name)
	switch {
	case err == nil:
		if v.Mode().IsDir() && flags.wantsWrite() {
			v.DecRef()
			return nil, errno.EISDIR
		}
		return v, nil
	case errors.Is(err, errno.ENOENT) && flags&OCreat != 0:
		if dir.ops == nil || !dir.ops.Caps.Has(CapCreate) {
			return nil, errno.ENOTDIR
		}
		return dir.ops.Create(dir, name)
	default:
		return nil, err
	}
}
