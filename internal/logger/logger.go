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

// Package logger is the kernel's leveled logger: a slog.Logger underneath,
// with a TRACE severity slog lacks natively, text or JSON output, and
// optional lumberjack-rotated file output, so a long-running kernel process
// doesn't grow an unbounded log file.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// loggerFactory builds the handler backing defaultLogger, remembering the
// output format so it can be swapped (e.g. by tests) without rebuilding the
// whole logger.
type loggerFactory struct {
	format string // "text" or "json"
}

func (f *loggerFactory) createHandler(w io.Writer, level *slog.LevelVar) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Key = "severity"
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(severityName(lvl))
				}
			}
			return a
		},
	}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func severityName(level slog.Level) string {
	switch {
	case level == levelTrace:
		return TRACE
	case level < slog.LevelInfo:
		return DEBUG
	case level < slog.LevelWarn:
		return INFO
	case level < slog.LevelError:
		return WARNING
	default:
		return ERROR
	}
}

var (
	programLevel         = new(slog.LevelVar)
	defaultLoggerFactory = &loggerFactory{format: "text"}
	defaultLogger        = slog.New(defaultLoggerFactory.createHandler(os.Stderr, programLevel))
)

// Options configures Init; zero value logs text-formatted records at INFO to
// stderr.
type Options struct {
	Format   string // "text" or "json"
	Severity string // one of TRACE, DEBUG, INFO, WARNING, ERROR, OFF
	FilePath string // empty logs to stderr
	MaxSizeMB int
	MaxBackups int
	MaxAgeDays int
}

// Init rebuilds the default logger from opts. Called once at boot from
// cmd/, after cfg has been parsed; tests that want a captured buffer
// construct their own handler directly instead of calling Init.
func Init(opts Options) io.Closer {
	if opts.Format != "" {
		defaultLoggerFactory.format = opts.Format
	}
	programLevel.Set(severityLevel(opts.Severity))

	var w io.Writer = os.Stderr
	var closer io.Closer = noopCloser{}
	if opts.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		async := NewAsyncLogger(lj, 1024)
		w = async
		closer = async
	}

	defaultLogger = slog.New(defaultLoggerFactory.createHandler(w, programLevel))
	return closer
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

func Tracef(format string, args ...any) {
	defaultLogger.Log(context.Background(), levelTrace, fmt.Sprintf(format, args...))
}
func Debugf(format string, args ...any) { defaultLogger.Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { defaultLogger.Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { defaultLogger.Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { defaultLogger.Error(fmt.Sprintf(format, args...)) }
