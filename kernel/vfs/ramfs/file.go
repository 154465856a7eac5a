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

package ramfs

import (
	"sync"
	"time"

	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/kernel/vfs"
)

// fileData is a regular file vnode's Data: its whole contents, grown on
// demand by writes past the current end.
type fileData struct {
	mu    sync.Mutex
	buf   []byte
	clock clock.Clock
	mtime time.Time
}

var fileOps = &vfs.Ops{
	Caps:  vfs.CapRead | vfs.CapWrite | vfs.CapStat,
	Read:  fileRead,
	Write: fileWrite,
	Stat:  fileStat,
}

// NewFile returns a fresh, empty ramfs regular file vnode with one
// reference held by the caller.
func NewFile(c clock.Clock) *vfs.Vnode {
	v := vfs.NewVnode(vfs.ModeRegular, fileOps)
	v.Data = &fileData{clock: c, mtime: c.Now()}
	return v
}

func fileRead(v *vfs.Vnode, pos int64, buf []byte) (int, error) {
	d := v.Data.(*fileData)
	d.mu.Lock()
	defer d.mu.Unlock()

	if pos < 0 || pos >= int64(len(d.buf)) {
		return 0, nil
	}
	return copy(buf, d.buf[pos:]), nil
}

// fileWrite grows the backing buffer to cover [pos, pos+len(buf)) before
// copying in, zero-filling any gap left by a write past the current end.
func fileWrite(v *vfs.Vnode, pos int64, buf []byte) (int, error) {
	d := v.Data.(*fileData)
	d.mu.Lock()
	defer d.mu.Unlock()

	end := pos + int64(len(buf))
	if end > int64(len(d.buf)) {
		grown := make([]byte, end)
		copy(grown, d.buf)
		d.buf = grown
	}
	copy(d.buf[pos:end], buf)
	d.mtime = d.clock.Now()
	return len(buf), nil
}

func fileStat(v *vfs.Vnode) (vfs.Stat, error) {
	d := v.Data.(*fileData)
	d.mu.Lock()
	defer d.mu.Unlock()
	return vfs.Stat{Mode: v.Mode(), Size: int64(len(d.buf)), ModTime: d.mtime}, nil
}
