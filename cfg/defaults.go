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

package cfg

import (
	"golang.org/x/sys/unix"
)

const fallbackFDLimit = 512

// ChooseDefaultFDLimit mirrors the teacher's ChooseTempDirLimitNumFiles: ask
// the host's RLIMIT_NOFILE and use a fraction of it, so a process table
// created without an explicit --default-fd-limit still gets a
// reasonable per-process descriptor table size instead of a fixed guess.
func ChooseDefaultFDLimit() int {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return fallbackFDLimit
	}

	limit := rlimit.Cur/2 + rlimit.Cur/4
	const reasonableLimit = 1 << 12
	if limit > reasonableLimit {
		limit = reasonableLimit
	}
	if limit < 16 {
		limit = 16
	}
	return int(limit)
}

// ApplyDefaults fills in zero-valued fields Config needs a concrete value
// for before kernel.Boot runs, since viper only sets fields present in flags
// or the config file.
func (c *Config) ApplyDefaults() {
	if c.Kernel.MaxProcesses <= 0 {
		c.Kernel.MaxProcesses = 1024
	}
	if c.Kernel.DefaultFDLimit <= 0 {
		c.Kernel.DefaultFDLimit = ChooseDefaultFDLimit()
	}
	if c.Logging.Severity == "" {
		c.Logging.Severity = LogSeverity("INFO")
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
