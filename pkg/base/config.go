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

// Package base holds the configuration shared by the pgfleet commands.
package base

import (
	"os"

	"github.com/cockroachdb/errors"
)

// Default connection settings, overridable by flags.
const (
	DefaultDatabase = "postgres"
	DefaultLogLevel = "info"
)

// Config is the process configuration for a pgfleet invocation.
type Config struct {
	// CoordinatorURL is the connection string of the coordinator database.
	CoordinatorURL string

	// User is the role used both on the coordinator and on the workers.
	// Propagated DDL runs as this role everywhere so ownership matches.
	User string

	// Database is the database name on the workers.
	Database string

	// WorkerOptions is appended to every worker connection string, for
	// settings like sslmode.
	WorkerOptions string

	// EnableDDLPropagation gates worker propagation.
	EnableDDLPropagation bool

	// LogLevel is the minimum level of the process logger.
	LogLevel string
}

// DefaultConfig returns a Config with defaults filled in from the
// environment where available.
func DefaultConfig() Config {
	user := os.Getenv("PGUSER")
	if user == "" {
		user = os.Getenv("USER")
	}
	return Config{
		User:                 user,
		Database:             DefaultDatabase,
		EnableDDLPropagation: true,
		LogLevel:             DefaultLogLevel,
	}
}

// Validate reports configuration errors before any connection is attempted.
func (c *Config) Validate() error {
	if c.CoordinatorURL == "" {
		return errors.New("coordinator connection string is required")
	}
	if c.User == "" {
		return errors.New("user is required; set --user or PGUSER")
	}
	return nil
}
