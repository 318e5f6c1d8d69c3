// Copyright 2026 The blockfs Authors.

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

// Package cmd implements blockfsd, the CLI host for the buffered cache and
// inode layer: a format subcommand that lays down a new device image, and a
// mount subcommand that wires the cache and inode layers up against an
// existing one and serves background workers until interrupted.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blockfs/blockfs/cfg"
)

var (
	cfgFile string
	bindErr error
)

var rootCmd = &cobra.Command{
	Use:   "blockfsd",
	Short: "Format and mount raw device images backed by the blockfs cache and inode layer",
	Long: `blockfsd is a demonstration host for the blockfs buffered cache and
multi-level inode layer. It formats a flat file as a device image and mounts
one by wiring a device.FileDevice through a freemap.FreeMap, a cache.Cache
and an inode.Table, serving the cache's background workers until
interrupted. It does not expose a POSIX namespace: there are no directory
entries or path resolution here, only the programmatic inode API underneath.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file layered underneath flags.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(mountCmd)
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		bindErr = fmt.Errorf("reading config file %q: %w", cfgFile, err)
	}
}

// loadConfig returns the fully rationalized and validated Config, or the
// error recorded during flag binding / config file loading.
func loadConfig() (*cfg.Config, error) {
	if bindErr != nil {
		return nil, bindErr
	}
	return cfg.FromViper()
}
