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
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers every Config field as a persistent flag on flagSet and
// binds it into viper, so a value supplied on the command line overrides the
// same key read from a config file, which in turn overrides the hardcoded
// default applied by ApplyDefaults.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.IntP("max-processes", "", 0, "Bound on simultaneously live processes. 0 derives a default.")
	if err = viper.BindPFlag("kernel.max-processes", flagSet.Lookup("max-processes")); err != nil {
		return err
	}

	flagSet.IntP("default-fd-limit", "", 0, "Per-process file descriptor table size. 0 derives from RLIMIT_NOFILE.")
	if err = viper.BindPFlag("kernel.default-fd-limit", flagSet.Lookup("default-fd-limit")); err != nil {
		return err
	}

	flagSet.IntP("name-len", "", 0, "Longest path component kernel/vfs will resolve. 0 uses vfs.NameLen.")
	if err = viper.BindPFlag("kernel.name-len", flagSet.Lookup("name-len")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "", "Log output format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a rotated log file. Empty logs to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.IntP("log-max-size-mb", "", 100, "Rotated log file size cap, in megabytes.")
	if err = viper.BindPFlag("logging.max-size-mb", flagSet.Lookup("log-max-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-max-backups", "", 5, "Number of rotated log files to retain.")
	if err = viper.BindPFlag("logging.max-backups", flagSet.Lookup("log-max-backups")); err != nil {
		return err
	}

	flagSet.IntP("log-max-age-days", "", 28, "Days to retain a rotated log file.")
	return viper.BindPFlag("logging.max-age-days", flagSet.Lookup("log-max-age-days"))
}
