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
	"fmt"
	"slices"
)

var validFormats = []string{"text", "json"}

func isValidKernelConfig(c *KernelConfig) error {
	if c.MaxProcesses <= 0 {
		return fmt.Errorf("kernel.max-processes must be positive, got %d", c.MaxProcesses)
	}
	if c.DefaultFDLimit <= 0 {
		return fmt.Errorf("kernel.default-fd-limit must be positive, got %d", c.DefaultFDLimit)
	}
	if c.NameLen < 0 {
		return fmt.Errorf("kernel.name-len must not be negative, got %d", c.NameLen)
	}
	return nil
}

func isValidLoggingConfig(c *LoggingConfig) error {
	if c.Severity != "" && !slices.Contains(validSeverities, string(c.Severity)) {
		return fmt.Errorf("logging.severity %q is not one of %v", c.Severity, validSeverities)
	}
	if c.Format != "" && !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format %q is not one of %v", c.Format, validFormats)
	}
	if c.FilePath != "" {
		if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
			return fmt.Errorf("logging rotation sizes must not be negative")
		}
	}
	return nil
}

// ValidateConfig returns a non-nil error if config is unfit for
// kernel.Boot, called after ApplyDefaults so every field it checks is
// already populated.
func ValidateConfig(config *Config) error {
	if err := isValidKernelConfig(&config.Kernel); err != nil {
		return fmt.Errorf("error parsing kernel config: %w", err)
	}
	if err := isValidLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}
	return nil
}
