// Copyright 2026 The pgfleet Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package cli implements the pgfleet command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgfleet/pgfleet/pkg/base"
	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

var cfg = base.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "pgfleet",
	Short:         "manage distributed objects across a fleet of PostgreSQL nodes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logutil.InitLogger(cfg.LogLevel); err != nil {
			return err
		}
		if cmd.Name() == "version" {
			return nil
		}
		return cfg.Validate()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.CoordinatorURL, "coordinator", os.Getenv("PGFLEET_COORDINATOR"),
		"connection string of the coordinator database")
	pf.StringVar(&cfg.User, "user", cfg.User,
		"role to run commands as, on the coordinator and on every worker")
	pf.StringVar(&cfg.Database, "database", cfg.Database,
		"database name on the worker nodes")
	pf.StringVar(&cfg.WorkerOptions, "worker-options", "",
		"extra connection options appended when dialing workers")
	pf.BoolVar(&cfg.EnableDDLPropagation, "propagate", cfg.EnableDDLPropagation,
		"propagate DDL to worker nodes")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"minimum log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd, execCmd, depsCmd, nodeCmd, versionCmd)
}

// Main runs the CLI and exits the process on failure.
func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connectCoordinator opens a connection to the coordinator.
func connectCoordinator(ctx context.Context) (*pgx.Conn, error) {
	return pgx.Connect(ctx, cfg.CoordinatorURL)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the pgfleet version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "pgfleet", base.Version)
	},
}
