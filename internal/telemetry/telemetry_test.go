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

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestJoinShutdownFuncRunsAllAndJoinsErrors(t *testing.T) {
	var ran [3]bool
	errBoom := errors.New("boom")

	fn := JoinShutdownFunc(
		func(ctx context.Context) error { ran[0] = true; return nil },
		nil,
		func(ctx context.Context) error { ran[1] = true; return errBoom },
		func(ctx context.Context) error { ran[2] = true; return nil },
	)

	err := fn(context.Background())
	assert.True(t, ran[0])
	assert.True(t, ran[1])
	assert.True(t, ran[2])
	assert.ErrorIs(t, err, errBoom)
}

func TestSchedulerMetricsRecordsSyscallsAndSwitches(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewSchedulerMetrics(provider)
	require.NoError(t, err)

	m.ContextSwitch(context.Background())
	m.Syscall(context.Background(), "open", time.Now(), nil)
	m.Syscall(context.Background(), "open", time.Now(), errors.New("ENOENT"))

	var data sdkmetric.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))
	require.NotEmpty(t, data.ScopeMetrics)

	var sawSwitches, sawSyscalls, sawErrors bool
	for _, sm := range data.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch met.Name {
			case "kernel.context_switches":
				sawSwitches = true
			case "kernel.syscalls":
				sawSyscalls = true
			case "kernel.syscall_errors":
				sawErrors = true
			}
		}
	}
	assert.True(t, sawSwitches, "context switch counter not registered")
	assert.True(t, sawSyscalls, "syscall counter not registered")
	assert.True(t, sawErrors, "syscall error counter not registered")
}

func TestNilSchedulerMetricsIsNoop(t *testing.T) {
	var m *SchedulerMetrics
	assert.NotPanics(t, func() {
		m.ContextSwitch(context.Background())
		m.Syscall(context.Background(), "read", time.Now(), nil)
	})
}
