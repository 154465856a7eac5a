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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weenix-go/weenix/cfg"
	"github.com/weenix-go/weenix/internal/logger"
	"github.com/weenix-go/weenix/internal/telemetry"
	"github.com/weenix-go/weenix/kernel"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	bootConfig    cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "weenix",
	Short: "Boot the teaching kernel and run its demo scenario",
	Long: `weenix boots an in-process kernel (scheduler, process lifecycle,
and a ramfs-backed VFS) and runs a small demo scenario against it: create a
directory and a file, write to it, read it back, and print the resulting
process list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}

		bootConfig.ApplyDefaults()
		if err := cfg.ValidateConfig(&bootConfig); err != nil {
			return err
		}

		closer := logger.Init(logger.Options{
			Format:     bootConfig.Logging.Format,
			Severity:   string(bootConfig.Logging.Severity),
			FilePath:   bootConfig.Logging.FilePath,
			MaxSizeMB:  bootConfig.Logging.MaxSizeMB,
			MaxBackups: bootConfig.Logging.MaxBackups,
			MaxAgeDays: bootConfig.Logging.MaxAgeDays,
		})
		defer closer.Close()

		meterProvider, shutdownMeter, err := telemetry.NewMeterProvider()
		if err != nil {
			return fmt.Errorf("starting meter provider: %w", err)
		}
		tracerProvider, shutdownTracer, err := telemetry.NewTracerProvider()
		if err != nil {
			return fmt.Errorf("starting tracer provider: %w", err)
		}
		shutdown := telemetry.JoinShutdownFunc(shutdownMeter, shutdownTracer)
		defer shutdown(context.Background())

		metrics, err := telemetry.NewSchedulerMetrics(meterProvider)
		if err != nil {
			return fmt.Errorf("building scheduler metrics: %w", err)
		}

		_, span := tracerProvider.Tracer("weenix/cmd").Start(context.Background(), "boot-and-demo")
		defer span.End()

		logger.Infof("booting kernel: max-processes=%d default-fd-limit=%d",
			bootConfig.Kernel.MaxProcesses, bootConfig.Kernel.DefaultFDLimit)
		k := kernel.Boot(bootConfig, nil, metrics)
		defer k.Shutdown()

		return runDemo(k)
	},
}

// Execute runs the root command, printing any error to stderr and exiting
// non-zero, matching the teacher's own Execute.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML boot config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

// initConfig mirrors the teacher's own cobra.OnInitialize hook: a flag value
// always wins, a config file (if named) is read next, and either way the
// result lands in bootConfig through the same decode hook cfg's own tests
// exercise. Errors are stashed rather than returned, since cobra.OnInitialize
// itself cannot return one; rootCmd.RunE surfaces them on the next Execute.
func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&bootConfig, viper.DecodeHook(cfg.DecodeHook()))
		return
	}

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("error while reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&bootConfig, viper.DecodeHook(cfg.DecodeHook()))
}
