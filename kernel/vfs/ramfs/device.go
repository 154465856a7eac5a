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
	"time"

	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/kernel/vfs"
)

// Well-known device numbers for the /dev entries spec.md section 6
// describes the kernel populating at boot.
const (
	DevNull = 1
	DevZero = 2
	DevTTY  = 3
)

var deviceOps = &vfs.Ops{
	Caps:  vfs.CapRead | vfs.CapWrite | vfs.CapStat,
	Read:  deviceRead,
	Write: deviceWrite,
	Stat:  deviceStat,
}

// deviceVnode holds a device node's only per-instance state: the time it was
// made, reported back through stat. Device content itself (null/zero/tty) is
// wholly determined by the dev number, so there is nothing else to store.
type deviceVnode struct {
	ctime time.Time
}

// NewDevice returns a device special vnode (mode must be ModeChar or
// ModeBlock) with one reference held by the caller. c stamps its creation
// time for stat, matching the mtime every other ramfs vnode reports.
func NewDevice(c clock.Clock, mode vfs.Mode, dev int) *vfs.Vnode {
	v := vfs.NewVnode(mode, deviceOps)
	v.SetDev(dev)
	v.Data = &deviceVnode{ctime: c.Now()}
	return v
}

func deviceRead(v *vfs.Vnode, pos int64, buf []byte) (int, error) {
	switch v.Dev() {
	case DevZero:
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	default:
		// /dev/null and /dev/tty (no input source in this rendering) both
		// read as end-of-file.
		return 0, nil
	}
}

func deviceWrite(v *vfs.Vnode, _ int64, buf []byte) (int, error) {
	// /dev/null, /dev/zero, and /dev/tty all sink writes silently.
	return len(buf), nil
}

func deviceStat(v *vfs.Vnode) (vfs.Stat, error) {
	dv := v.Data.(*deviceVnode)
	return vfs.Stat{Mode: v.Mode(), Dev: v.Dev(), ModTime: dv.ctime}, nil
}
