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

// Package logutil holds the process-wide structured logger.
package logutil

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger atomic.Pointer[zap.Logger]

func init() {
	logger, _ := zap.NewProduction()
	globalLogger.Store(logger)
}

// BgLogger returns the process-wide logger.
func BgLogger() *zap.Logger {
	return globalLogger.Load()
}

// ReplaceGlobal swaps the process-wide logger, returning a function that
// restores the previous one. Tests use the restore function.
func ReplaceGlobal(logger *zap.Logger) func() {
	prev := globalLogger.Swap(logger)
	return func() { globalLogger.Store(prev) }
}

// InitLogger configures the process-wide logger with the given minimum
// level. The level accepts zap's atomic level syntax ("debug", "info",
// "warn", "error").
func InitLogger(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	globalLogger.Store(logger)
	return nil
}
