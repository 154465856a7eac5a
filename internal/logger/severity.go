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

import "log/slog"

// Severity levels, from most to least verbose. These map onto slog.Level
// values spaced so TRACE and DEBUG both sit below slog.LevelInfo.
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

// slog has no TRACE level of its own; render it four steps below DEBUG so
// Trace-level records still sort (and filter) correctly against the
// standard levels.
const levelTrace = slog.Level(-8)

var levelBySeverity = map[string]slog.Level{
	TRACE:   levelTrace,
	DEBUG:   slog.LevelDebug,
	INFO:    slog.LevelInfo,
	WARNING: slog.LevelWarn,
	ERROR:   slog.LevelError,
}

// levelAboveError is used for OFF: no record emitted at any real severity
// will ever meet or exceed it.
const levelAboveError = slog.LevelError + 8

func severityLevel(severity string) slog.Level {
	if severity == OFF {
		return levelAboveError
	}
	if level, ok := levelBySeverity[severity]; ok {
		return level
	}
	return slog.LevelInfo
}
