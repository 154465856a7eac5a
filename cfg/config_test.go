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
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsThenUnmarshalAppliesFlagValues(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Parse([]string{"--max-processes", "42", "--log-severity", "debug"}))

	var c Config
	require.NoError(t, viper.Unmarshal(&c, viper.DecodeHook(DecodeHook())))

	assert.Equal(t, 42, c.Kernel.MaxProcesses)
	assert.Equal(t, LogSeverity("DEBUG"), c.Logging.Severity)
}

func TestDecodeHookRejectsUnknownSeverity(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Parse([]string{"--log-severity", "VERBOSE"}))

	var c Config
	err := viper.Unmarshal(&c, viper.DecodeHook(DecodeHook()))
	assert.Error(t, err)
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	var c Config
	c.ApplyDefaults()

	assert.Positive(t, c.Kernel.MaxProcesses)
	assert.Positive(t, c.Kernel.DefaultFDLimit)
	assert.Equal(t, LogSeverity("INFO"), c.Logging.Severity)
	assert.Equal(t, "text", c.Logging.Format)
}

func TestValidateConfigRejectsBadSeverity(t *testing.T) {
	c := Config{Kernel: KernelConfig{MaxProcesses: 1, DefaultFDLimit: 1}}
	c.Logging.Severity = "NONSENSE"
	assert.Error(t, ValidateConfig(&c))
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	assert.NoError(t, ValidateConfig(&c))
}
