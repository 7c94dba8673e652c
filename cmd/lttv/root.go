// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lttv drives the analysis core from the command line: open a
// traceset, optionally synchronise its clocks, optionally filter its
// events, and render a report.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/efficios/lttv-go/internal/diag"
)

var (
	cfgFile string
	logJSON bool
	cpuSet  string
	logger  *diag.Logger

	rootCmd = &cobra.Command{
		Use:   "lttv",
		Short: "Linux Trace Toolkit trace analysis core",
		Long:  "lttv opens, synchronises, filters, and reports on LTT kernel traces.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML/TOML/JSON)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs instead of human-readable console output")
	rootCmd.PersistentFlags().StringVar(&cpuSet, "cpu", "", "restrict every opened trace to these CPUs (range-list, e.g. 0-3,5,7-8)")

	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newReportCmd())
}

// Execute is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lttv"))
		}
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("LTTV")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func initLogger() error {
	var z *zap.Logger
	var err error
	if logJSON {
		z, err = zap.NewProduction()
	} else {
		z, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	logger = diag.New(z)
	return nil
}

func main() {
	Execute()
}
