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

// Package cfg is the kernel's typed boot configuration: a yaml/flag-bound
// Config decoded through viper and mapstructure, validated before kernel.Boot
// ever sees it.
package cfg

// LogSeverity is a validated logger severity string; the decode hook in
// decode_hook.go rejects anything not in its allowed set at config-parse
// time rather than letting an unrecognized string fall through to INFO
// silently.
type LogSeverity string

// Config is the kernel's full boot configuration, decoded from flags and an
// optional YAML file via viper.
type Config struct {
	Kernel  KernelConfig  `mapstructure:"kernel"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// KernelConfig bounds the in-memory structures the teacher's cfg.Config
// bounds for its own caches and worker pools: table sizes rather than byte
// budgets, since this kernel has no backing store to size.
type KernelConfig struct {
	// MaxProcesses is PROC_MAX_COUNT, the bound on simultaneously live
	// processes (kernel/proc.MaxCount's override).
	MaxProcesses int `mapstructure:"max-processes"`

	// DefaultFDLimit is the per-process file descriptor table size used when
	// a process is created without an explicit override. 0 means "derive
	// from the host's RLIMIT_NOFILE", resolved by defaults.go.
	DefaultFDLimit int `mapstructure:"default-fd-limit"`

	// NameLen is NAME_LEN, the longest path component kernel/vfs will
	// resolve. 0 uses vfs.NameLen.
	NameLen int `mapstructure:"name-len"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Severity LogSeverity `mapstructure:"severity"`
	Format   string      `mapstructure:"format"` // "text" or "json"
	FilePath string      `mapstructure:"file-path"`

	MaxSizeMB  int `mapstructure:"max-size-mb"`
	MaxBackups int `mapstructure:"max-backups"`
	MaxAgeDays int `mapstructure:"max-age-days"`
}
