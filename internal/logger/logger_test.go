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
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func redirectLogsToBuffer(buf *bytes.Buffer, severity, format string) {
	programLevel = new(slog.LevelVar)
	programLevel.Set(severityLevel(severity))
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(buf, programLevel))
}

func TestSeverityFiltering(t *testing.T) {
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, WARNING, "text")

	Infof("below threshold")
	assert.Empty(t, buf.String(), "INFO should be suppressed at WARNING severity")

	Warnf("at threshold")
	assert.Contains(t, buf.String(), "severity=WARNING")
	assert.Contains(t, buf.String(), "at threshold")
}

func TestOffSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, OFF, "text")

	Tracef("t")
	Debugf("d")
	Infof("i")
	Warnf("w")
	Errorf("e")
	assert.Empty(t, buf.String())
}

func TestJSONFormatUsesSeverityKey(t *testing.T) {
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, TRACE, "json")

	Tracef("hello %d", 7)
	out := buf.String()
	assert.Contains(t, out, `"severity":"TRACE"`)
	assert.Contains(t, out, `"msg":"hello 7"`)
}

func TestAsyncLoggerWritesAllMessagesBeforeClose(t *testing.T) {
	var buf bytes.Buffer
	wc := nopWriteCloser{&buf}
	a := NewAsyncLogger(wc, 8)

	a.Write([]byte("one\n"))
	a.Write([]byte("two\n"))
	assert.NoError(t, a.Close())

	assert.Equal(t, "one\ntwo\n", buf.String())
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }
