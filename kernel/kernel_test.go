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

package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weenix-go/weenix/cfg"
	"github.com/weenix-go/weenix/internal/clock"
	"github.com/weenix-go/weenix/kernel/proc"
	"github.com/weenix-go/weenix/kernel/vfs"
)

func testConfig() cfg.Config {
	var c cfg.Config
	c.ApplyDefaults()
	return c
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	return Boot(testConfig(), clock.RealClock{}, nil)
}

func TestBootCreatesIdleAndInit(t *testing.T) {
	k := newTestKernel(t)
	snap := k.Snapshot()
	require.Len(t, snap, 2)

	byName := map[string]ProcessSnapshot{}
	for _, p := range snap {
		byName[p.Name] = p
	}
	require.Contains(t, byName, "idle")
	require.Contains(t, byName, "init")
	assert.Equal(t, 0, byName["idle"].PID)
	assert.Equal(t, 1, byName["init"].PID)
	assert.Equal(t, proc.Running, byName["init"].State)
}

// TestBootOpensStdioBeforeFirstUserOpen is scenario S1 from spec.md section
// 8: stdin, stdout, and stderr occupy fds 0, 1, and 2 before init does
// anything else, so the first open() a caller makes returns fd 3.
func TestBootOpensStdioBeforeFirstUserOpen(t *testing.T) {
	k := newTestKernel(t)

	fd, err := k.Open("/dev/null", vfs.ORdOnly)
	require.NoError(t, err)
	assert.Equal(t, 3, fd)
}

func TestBootPopulatesDevNodes(t *testing.T) {
	k := newTestKernel(t)

	st, err := k.Stat("/dev/null")
	require.NoError(t, err)
	assert.Equal(t, vfs.ModeChar, st.Mode)

	st, err = k.Stat("/dev/zero")
	require.NoError(t, err)
	assert.Equal(t, vfs.ModeChar, st.Mode)

	st, err = k.Stat("/dev/tty")
	require.NoError(t, err)
	assert.Equal(t, vfs.ModeChar, st.Mode)
}

func TestOpenWriteReadCloseRoundTrip(t *testing.T) {
	k := newTestKernel(t)

	fd, err := k.Open("/greeting", vfs.OCreat|vfs.OWrOnly)
	require.NoError(t, err)

	n, err := k.Write(fd, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, k.Close(fd))

	fd, err = k.Open("/greeting", vfs.ORdOnly)
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err = k.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	require.NoError(t, k.Close(fd))
}

func TestMkdirChdirRoundTrip(t *testing.T) {
	k := newTestKernel(t)

	require.NoError(t, k.Mkdir("/etc"))
	require.NoError(t, k.Chdir("/etc"))

	fd, err := k.Open("hosts", vfs.OCreat|vfs.OWrOnly)
	require.NoError(t, err)
	require.NoError(t, k.Close(fd))

	_, err = k.Stat("/etc/hosts")
	assert.NoError(t, err)
}

func TestDevZeroReadsAllZeroes(t *testing.T) {
	k := newTestKernel(t)

	fd, err := k.Open("/dev/zero", vfs.ORdOnly)
	require.NoError(t, err)
	defer k.Close(fd)

	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xFF
	}
	n, err := k.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestShutdownSparesInit(t *testing.T) {
	k := newTestKernel(t)
	k.Shutdown()

	snap := k.Snapshot()
	require.Len(t, snap, 2)
}
