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

package logger

import (
	"fmt"
	"io"
	"os"
)

// AsyncLogger decouples slog's caller from the latency of the underlying
// writer (typically a lumberjack.Logger doing file I/O and rotation) by
// handing each write to a bounded channel drained by one goroutine. A full
// buffer drops the message rather than blocking the logging call site.
type AsyncLogger struct {
	w      io.WriteCloser
	msgs   chan []byte
	done   chan struct{}
	closed chan struct{}
}

// NewAsyncLogger starts the draining goroutine and returns a logger that
// writes to w asynchronously, buffering up to bufferSize pending messages.
func NewAsyncLogger(w io.WriteCloser, bufferSize int) *AsyncLogger {
	a := &AsyncLogger{
		w:      w,
		msgs:   make(chan []byte, bufferSize),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer close(a.closed)
	for msg := range a.msgs {
		a.w.Write(msg)
	}
}

// Write copies p (slog handlers reuse their buffer across calls) onto the
// async queue, dropping it with a stderr warning if the queue is full.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	select {
	case a.msgs <- buf:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains any buffered messages and closes the underlying writer.
func (a *AsyncLogger) Close() error {
	close(a.msgs)
	<-a.closed
	return a.w.Close()
}
