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

// These tests exercise the ramfs driver's Ops functions directly against
// bare vnodes, with no scheduler or process table involved: every ramfs
// operation is a plain function of its arguments and the vnode's own lock.
package ramfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/internal/errno"
	"github.com/weenix-go/weenix/kernel/vfs"
)

func TestDirCreateThenLookup(t *testing.T) {
	dir := NewDir(clock.RealClock{})

	created, err := dirCreate(dir, "a")
	require.NoError(t, err)
	assert.Equal(t, vfs.ModeRegular, created.Mode())

	found, err := dirLookup(dir, "a")
	require.NoError(t, err)
	assert.Same(t, created, found)
}

func TestDirLookupMissingIsENOENT(t *testing.T) {
	dir := NewDir(clock.RealClock{})
	_, err := dirLookup(dir, "missing")
	assert.ErrorIs(t, err, errno.ENOENT)
}

func TestDirRmdirRejectsNonEmpty(t *testing.T) {
	dir := NewDir(clock.RealClock{})
	require.NoError(t, dirMkdir(dir, "sub"))
	sub, err := dirLookup(dir, "sub")
	require.NoError(t, err)
	require.NoError(t, dirCreate2(sub, "inner"))

	err = dirRmdir(dir, "sub")
	assert.ErrorIs(t, err, errno.ENOTEMPTY)
}

// dirCreate2 is dirCreate with the returned vnode discarded (the caller's
// reference it carries is never released); the test only needs the
// directory entry to exist.
func dirCreate2(dir *vfs.Vnode, name string) error {
	_, err := dirCreate(dir, name)
	return err
}

func TestDirUnlinkDropsVnodeReference(t *testing.T) {
	dir := NewDir(clock.RealClock{})
	v, err := dirCreate(dir, "a")
	require.NoError(t, err)
	require.Equal(t, 2, v.RefCount(), "dir entry + caller")

	require.NoError(t, dirUnlink(dir, "a"))
	assert.Equal(t, 1, v.RefCount(), "caller only")
}

func TestFileWritePastEndThenRead(t *testing.T) {
	v := NewFile(clock.RealClock{})
	_, err := fileWrite(v, 5, []byte("xyz"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := fileRead(v, 0, buf)
	require.NoError(t, err)

	want := []byte{0, 0, 0, 0, 0, 'x', 'y', 'z'}
	assert.Equal(t, want, buf[:n])
}

func TestDeviceZeroReadsZeroesWriteSinks(t *testing.T) {
	v := NewDevice(clock.RealClock{}, vfs.ModeChar, DevZero)
	buf := []byte{1, 2, 3}
	n, err := deviceRead(v, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, buf[:n])

	n, err = deviceWrite(v, 0, []byte("discarded"))
	require.NoError(t, err)
	assert.Equal(t, len("discarded"), n)
}

func TestDeviceNullReadsEOF(t *testing.T) {
	v := NewDevice(clock.RealClock{}, vfs.ModeChar, DevNull)
	buf := make([]byte, 4)
	n, err := deviceRead(v, 0, buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}
