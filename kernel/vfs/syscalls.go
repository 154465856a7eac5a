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

// do_* syscall entry points of spec.md section 4.5. Each resolves fds
// against the calling process (fs.procs.Current()) and translates driver
// results into errno.Errno.
package vfs

import (
	"errors"

	"github.com/weenix-go/weenix/internal/errno"
)

// Whence values for DoLseek.
const (
	SeekSet = iota
	SeekCur
	SeekEnd
)

func (fs *VFS) handle(fd int) *Handle {
	p := fs.procs.Current()
	h, _ := p.FD(fd).(*Handle)
	return h
}

// DoOpen is do_open(path, oflags): validate the access bits, resolve (and
// optionally create) the target vnode, and install a new Handle at the
// lowest free fd. oflags is passed through to OpenNamev unmodified, per the
// corrected behavior in spec.md's design notes: do_open never strips the
// behavior bits (OCreat/OTrunc/OAppend) before resolving the path.
func (fs *VFS) DoOpen(path string, flags OpenFlag) (int, error) {
	if !flags.validAccess() {
		return -1, errno.EINVAL
	}

	p := fs.procs.Current()
	fd := p.GetEmptyFD()
	if fd == -1 {
		return -1, errno.EMFILE
	}

	v, err := fs.OpenNamev(path, flags, nil)
	if err != nil {
		return -1, errno.Wrap("vfs.open", err)
	}

	mode := HandleMode(0)
	switch flags & oAccessMask {
	case ORdOnly:
		mode = FmodeRead
	case OWrOnly:
		mode = FmodeWrite
	case ORdWr:
		mode = FmodeRead | FmodeWrite
	}
	if flags&OAppend != 0 {
		mode |= FmodeAppend
	}

	var pos int64
	if mode&FmodeAppend != 0 {
		if st, err := fs.statVnode(v); err == nil {
			pos = st.Size
		}
	}

	h := &Handle{vnode: v, mode: mode, pos: pos, refcount: 1}
	p.SetFD(fd, h)
	return fd, nil
}

// DoRead is do_read(fd, buf): read from the handle's current position,
// advancing it by the number of bytes actually read.
func (fs *VFS) DoRead(fd int, buf []byte) (int, error) {
	h := fs.handle(fd)
	if h == nil {
		return -1, errno.EBADF
	}
	if h.mode&FmodeRead == 0 {
		return -1, errno.EBADF
	}
	if h.vnode.ops == nil || !h.vnode.ops.Caps.Has(CapRead) {
		return -1, errno.EISDIR
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := h.vnode.ops.Read(h.vnode, h.pos, buf)
	if err != nil {
		return -1, err
	}
	h.pos += int64(n)
	return n, nil
}

// DoWrite is do_write(fd, buf): write at the handle's current position,
// unless the handle was opened O_APPEND, in which case every write is
// repositioned to the vnode's current end regardless of prior seeks. The
// append check tests the handle's FmodeAppend bit specifically, per the
// corrected behavior in spec.md's design notes, not merely "was this file
// opened for writing."
func (fs *VFS) DoWrite(fd int, buf []byte) (int, error) {
	h := fs.handle(fd)
	if h == nil {
		return -1, errno.EBADF
	}
	if h.mode&FmodeWrite == 0 {
		return -1, errno.EBADF
	}
	if h.vnode.ops == nil || !h.vnode.ops.Caps.Has(CapWrite) {
		return -1, errno.EISDIR
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode&FmodeAppend != 0 {
		if st, err := fs.statVnode(h.vnode); err == nil {
			h.pos = st.Size
		}
	}
	n, err := h.vnode.ops.Write(h.vnode, h.pos, buf)
	if err != nil {
		return -1, err
	}
	h.pos += int64(n)
	return n, nil
}

// DoClose is do_close(fd): clear the fd slot and drop a reference on the
// shared Handle.
func (fs *VFS) DoClose(fd int) error {
	h := fs.handle(fd)
	if h == nil {
		return errno.EBADF
	}
	fs.procs.Current().SetFD(fd, nil)
	return h.Close()
}

// DoDup is do_dup(fd): install the same Handle at a new, lowest-free fd.
func (fs *VFS) DoDup(fd int) (int, error) {
	h := fs.handle(fd)
	if h == nil {
		return -1, errno.EBADF
	}
	p := fs.procs.Current()
	newfd := p.GetEmptyFD()
	if newfd == -1 {
		return -1, errno.EMFILE
	}
	h.IncRef()
	p.SetFD(newfd, h)
	return newfd, nil
}

// DoDup2 is do_dup2(ofd, nfd): install ofd's Handle at nfd, closing whatever
// nfd previously held.
func (fs *VFS) DoDup2(ofd, nfd int) (int, error) {
	p := fs.procs.Current()
	if nfd < 0 || nfd >= p.NumFDSlots() {
		return -1, errno.EBADF
	}
	oh := fs.handle(ofd)
	if oh == nil {
		return -1, errno.EBADF
	}
	if ofd == nfd {
		return ofd, nil
	}
	if existing := fs.handle(nfd); existing != nil {
		existing.Close()
	}
	oh.IncRef()
	p.SetFD(nfd, oh)
	return nfd, nil
}

// DoLseek is do_lseek(fd, offset, whence): reposition the handle, rejecting
// a resulting negative offset.
func (fs *VFS) DoLseek(fd int, offset int64, whence int) (int64, error) {
	h := fs.handle(fd)
	if h == nil {
		return -1, errno.EBADF
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var newPos int64
	switch whence {
	case SeekSet:
		newPos = offset
	case SeekCur:
		newPos = h.pos + offset
	case SeekEnd:
		st, err := fs.statVnode(h.vnode)
		if err != nil {
			return -1, err
		}
		newPos = st.Size + offset
	default:
		return -1, errno.EINVAL
	}
	if newPos < 0 {
		return -1, errno.EINVAL
	}
	h.pos = newPos
	return newPos, nil
}

// DoMkdir is do_mkdir(path): resolve the parent and new name via dir_namev,
// reject if the name is already in use, and delegate creation to the
// driver.
func (fs *VFS) DoMkdir(path string) error {
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return err
	}
	defer dir.DecRef()

	if dir.ops == nil || !dir.ops.Caps.Has(CapMkdir) {
		return errno.ENOTDIR
	}
	if existing, lerr := fs.lookup(dir, name); lerr == nil {
		existing.DecRef()
		return errno.EEXIST
	} else if !errors.Is(lerr, errno.ENOENT) {
		return lerr
	}
	return dir.ops.Mkdir(dir, name)
}

// DoRmdir is do_rmdir(path): reject "." (EINVAL) and ".." (ENOTEMPTY)
// specially (removing either is never valid, even when the directory happens
// to be empty), then resolve the target and delegate to the driver.
func (fs *VFS) DoRmdir(path string) error {
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return err
	}
	defer dir.DecRef()

	if name == "." {
		return errno.EINVAL
	}
	if name == ".." {
		return errno.ENOTEMPTY
	}
	if dir.ops == nil || !dir.ops.Caps.Has(CapRmdir) {
		return errno.ENOTDIR
	}

	target, err := fs.lookup(dir, name)
	if err != nil {
		return err
	}
	isDir := target.Mode().IsDir()
	target.DecRef()
	if !isDir {
		return errno.ENOTDIR
	}
	return dir.ops.Rmdir(dir, name)
}

// DoMknod is do_mknod(path, mode, dev): resolve the parent and new name,
// reject if already in use, and delegate to the driver. mode must name a
// device type.
func (fs *VFS) DoMknod(path string, mode Mode, dev int) error {
	if mode != ModeChar && mode != ModeBlock {
		return errno.EINVAL
	}
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return err
	}
	defer dir.DecRef()

	if dir.ops == nil || !dir.ops.Caps.Has(CapMknod) {
		return errno.ENOTDIR
	}
	if existing, lerr := fs.lookup(dir, name); lerr == nil {
		existing.DecRef()
		return errno.EEXIST
	} else if !errors.Is(lerr, errno.ENOENT) {
		return lerr
	}
	return dir.ops.Mknod(dir, name, mode, dev)
}

// DoLink is do_link(oldpath, newpath): resolve oldpath to an existing
// vnode and add a new directory entry for it at newpath.
func (fs *VFS) DoLink(oldpath, newpath string) error {
	oldDir, oldName, err := fs.DirNamev(oldpath, nil)
	if err != nil {
		return err
	}
	target, err := fs.lookup(oldDir, oldName)
	oldDir.DecRef()
	if err != nil {
		return err
	}
	defer target.DecRef()
	if target.Mode().IsDir() {
		return errno.EISDIR
	}

	newDir, newName, err := fs.DirNamev(newpath, nil)
	if err != nil {
		return err
	}
	defer newDir.DecRef()

	if newDir.ops == nil || !newDir.ops.Caps.Has(CapLink) {
		return errno.ENOTDIR
	}
	if existing, lerr := fs.lookup(newDir, newName); lerr == nil {
		existing.DecRef()
		return errno.EEXIST
	} else if !errors.Is(lerr, errno.ENOENT) {
		return lerr
	}
	return newDir.ops.Link(newDir, newName, target)
}

// DoUnlink is do_unlink(path): resolve the target, reject directories, and
// delegate to the driver.
func (fs *VFS) DoUnlink(path string) error {
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return err
	}
	defer dir.DecRef()

	if dir.ops == nil || !dir.ops.Caps.Has(CapUnlink) {
		return errno.ENOTDIR
	}
	target, err := fs.lookup(dir, name)
	if err != nil {
		return err
	}
	isDir := target.Mode().IsDir()
	target.DecRef()
	if isDir {
		return errno.EISDIR
	}
	return dir.ops.Unlink(dir, name)
}

// DoRename is do_rename(oldpath, newpath): always performed as link(old,
// new) followed by unlink(old), per the corrected behavior in spec.md's
// design notes (the naive "unlink then link" ordering loses the file if the
// process is killed in between).
func (fs *VFS) DoRename(oldpath, newpath string) error {
	if err := fs.DoLink(oldpath, newpath); err != nil {
		return err
	}
	return fs.DoUnlink(oldpath)
}

// DoStat is do_stat(path): resolve the target and return exactly the
// driver's Stat result, per the corrected behavior in spec.md's design
// notes (earlier drafts returned a local Stat value initialized before the
// op ran, silently discarding fields the driver did set).
func (fs *VFS) DoStat(path string) (Stat, error) {
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return Stat{}, err
	}
	target, err := fs.lookup(dir, name)
	dir.DecRef()
	if err != nil {
		return Stat{}, err
	}
	defer target.DecRef()
	return fs.statVnode(target)
}

func (fs *VFS) statVnode(v *Vnode) (Stat, error) {
	if v.ops == nil || !v.ops.Caps.Has(CapStat) {
		return Stat{}, errno.ENXIO
	}
	return v.ops.Stat(v)
}

// DoChdir is do_chdir(path): resolve the target and, if it is a directory,
// replace the calling process's cwd with it. The directory test is against
// vnode.Mode().IsDir(), not the presence of a Readdir op, per the corrected
// behavior in spec.md's design notes.
func (fs *VFS) DoChdir(path string) error {
	dir, name, err := fs.DirNamev(path, nil)
	if err != nil {
		return err
	}
	target, err := fs.lookup(dir, name)
	dir.DecRef()
	if err != nil {
		return err
	}
	if !target.Mode().IsDir() {
		target.DecRef()
		return errno.ENOTDIR
	}

	p := fs.procs.Current()
	old := p.CWD()
	p.SetCWD(target)
	if oldVnode, ok := old.(*Vnode); ok && oldVnode != nil {
		oldVnode.DecRef()
	}
	return nil
}

// DoGetdent is do_getdent(fd): return the next directory entry's name,
// advancing the handle's position. An empty name with a nil error signals
// the end of the directory.
func (fs *VFS) DoGetdent(fd int) (string, error) {
	h := fs.handle(fd)
	if h == nil {
		return "", errno.EBADF
	}
	if h.vnode.ops == nil || !h.vnode.ops.Caps.Has(CapReaddir) {
		return "", errno.ENOTDIR
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	name, delta, err := h.vnode.ops.Readdir(h.vnode, h.pos)
	if err != nil {
		return "", err
	}
	h.pos += delta
	return name, nil
}
