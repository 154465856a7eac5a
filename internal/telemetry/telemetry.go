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

// Package telemetry wires the kernel's otel metric and trace providers: a
// Prometheus bridge exporter for scraping, and a stdout trace exporter for
// the demo CLI. It mirrors the shutdown-function-joining pattern the teacher
// uses to tear multiple providers down together.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ShutdownFn tears down a provider. A nil ShutdownFn must not be called
// directly; JoinShutdownFunc skips nil entries.
type ShutdownFn func(ctx context.Context) error

// JoinShutdownFunc combines fns into one, running every one of them even if
// an earlier one errors, and reporting every error together.
func JoinShutdownFunc(fns ...ShutdownFn) ShutdownFn {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			err = errors.Join(err, fn(ctx))
		}
		return err
	}
}

// NewMeterProvider builds an otel MeterProvider backed by a Prometheus
// exporter, so the kernel's counters are scrapeable without a push pipeline.
func NewMeterProvider() (metric.MeterProvider, ShutdownFn, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return provider, func(ctx context.Context) error { return provider.Shutdown(ctx) }, nil
}

// NewTracerProvider builds an otel TracerProvider that writes human-readable
// spans to stdout, used by cmd/'s demo boot path rather than a collector.
func NewTracerProvider() (trace.TracerProvider, ShutdownFn, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	return provider, func(ctx context.Context) error { return provider.Shutdown(ctx) }, nil
}

// OpKey annotates a syscall counter with the syscall name (open, read, ...).
const OpKey = "op"

// SchedulerMetrics counts context switches and syscall outcomes, the two
// kernel-level events spec.md's invariants and scenarios actually exercise.
type SchedulerMetrics struct {
	contextSwitches metric.Int64Counter
	syscallCount    metric.Int64Counter
	syscallErrors   metric.Int64Counter
	syscallLatency  metric.Float64Histogram
}

// NewSchedulerMetrics registers the kernel's instruments against provider's
// meter. Call once at boot.
func NewSchedulerMetrics(provider metric.MeterProvider) (*SchedulerMetrics, error) {
	meter := provider.Meter("weenix-go/kernel")

	switches, err := meter.Int64Counter("kernel.context_switches",
		metric.WithDescription("number of scheduler context switches"))
	if err != nil {
		return nil, err
	}
	count, err := meter.Int64Counter("kernel.syscalls",
		metric.WithDescription("number of syscall-layer calls, by op"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("kernel.syscall_errors",
		metric.WithDescription("number of syscall-layer calls that returned an errno, by op"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("kernel.syscall_latency_ms",
		metric.WithDescription("syscall-layer call latency in milliseconds, by op"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100))
	if err != nil {
		return nil, err
	}
	return &SchedulerMetrics{
		contextSwitches: switches,
		syscallCount:    count,
		syscallErrors:   errs,
		syscallLatency:  latency,
	}, nil
}

// ContextSwitch records one scheduler handoff.
func (m *SchedulerMetrics) ContextSwitch(ctx context.Context) {
	if m == nil {
		return
	}
	m.contextSwitches.Add(ctx, 1)
}

// Syscall records one syscall-layer call: its op name, how long it took, and
// whether it returned a non-nil error.
func (m *SchedulerMetrics) Syscall(ctx context.Context, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(OpKey, op))
	m.syscallCount.Add(ctx, 1, attrs)
	m.syscallLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		m.syscallErrors.Add(ctx, 1, attrs)
	}
}

// Tracer is a convenience accessor mirroring the teacher's otel.Tracer use
// at call sites that only need a named tracer, not the whole provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
