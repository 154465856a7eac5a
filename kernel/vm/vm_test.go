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

package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix-go/weenix/internal/errno"
)

type fakeObject struct {
	frame     int
	failFault bool
	dirtied   bool
}

func (o *fakeObject) ResolveFrame(pageOffset int64, write bool) (int, error) {
	if o.failFault {
		return 0, errno.EFAULT
	}
	if write {
		o.dirtied = true
	}
	return o.frame + int(pageOffset), nil
}

type fakePageTable struct {
	installed map[int64]Perm
	flushed   map[int64]bool
	failInstall bool
}

func newFakePageTable() *fakePageTable {
	return &fakePageTable{installed: map[int64]Perm{}, flushed: map[int64]bool{}}
}

func (pt *fakePageTable) Install(page int64, frame int, perm Perm) error {
	if pt.failInstall {
		return errno.EFAULT
	}
	pt.installed[page] = perm
	return nil
}

func (pt *fakePageTable) FlushTLB(page int64) {
	pt.flushed[page] = true
}

func TestDispatchInstallsMappingOnReadFault(t *testing.T) {
	obj := &fakeObject{frame: 100}
	as := NewAddressSpace(&VMA{Start: 0, End: 4, Perm: PermRead | PermWrite, Object: obj})
	pt := newFakePageTable()

	var killed int
	err := Dispatch(as, pt, 2, AccessRead, func(status int) { killed = status })
	require.NoError(t, err)
	assert.Zero(t, killed)
	assert.Equal(t, PermRead, pt.installed[2])
	assert.True(t, pt.flushed[2])
	assert.False(t, obj.dirtied)
}

func TestDispatchMarksWriteFaultDirtyAndAddsWritePerm(t *testing.T) {
	obj := &fakeObject{frame: 0}
	as := NewAddressSpace(&VMA{Start: 0, End: 4, Perm: PermRead | PermWrite, Object: obj})
	pt := newFakePageTable()

	err := Dispatch(as, pt, 1, AccessWrite, func(int) {})
	require.NoError(t, err)
	assert.True(t, obj.dirtied)
	assert.Equal(t, PermRead|PermWrite, pt.installed[1])
}

func TestDispatchKillsOnNoMapping(t *testing.T) {
	as := NewAddressSpace()
	pt := newFakePageTable()

	var killed int
	err := Dispatch(as, pt, 5, AccessRead, func(status int) { killed = status })
	assert.True(t, errors.Is(err, errno.EFAULT))
	assert.Equal(t, int(errno.EFAULT), killed)
}

func TestDispatchKillsOnPermissionViolation(t *testing.T) {
	obj := &fakeObject{}
	as := NewAddressSpace(&VMA{Start: 0, End: 4, Perm: PermRead, Object: obj})
	pt := newFakePageTable()

	var killed int
	err := Dispatch(as, pt, 1, AccessWrite, func(status int) { killed = status })
	assert.True(t, errors.Is(err, errno.EFAULT))
	assert.Equal(t, int(errno.EFAULT), killed)
	assert.Empty(t, pt.installed)
}

func TestDispatchKillsWhenObjectResolutionFails(t *testing.T) {
	obj := &fakeObject{failFault: true}
	as := NewAddressSpace(&VMA{Start: 0, End: 4, Perm: PermRead, Object: obj})
	pt := newFakePageTable()

	var killed int
	err := Dispatch(as, pt, 0, AccessRead, func(status int) { killed = status })
	assert.True(t, errors.Is(err, errno.EFAULT))
	assert.Equal(t, int(errno.EFAULT), killed)
}
