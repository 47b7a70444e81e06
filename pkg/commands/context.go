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

// Package commands plans and executes the multi-node side of DDL statements:
// deciding what must be propagated, computing the portable commands, and
// running them on every worker with all-or-nothing semantics.
package commands

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

// PropagationContext carries the per-operation settings and transaction
// state that gate DDL propagation. A zero value disables nothing; callers
// construct one per top-level statement.
type PropagationContext struct {
	// EnableDDLPropagation gates propagation entirely. When false, planners
	// return no worker commands and only the coordinator is affected.
	EnableDDLPropagation bool

	// IsCoordinator reports whether this process is operating on the
	// coordinator. Propagation planning is a coordinator-only activity.
	IsCoordinator bool

	// SequentialDDL forces worker commands to run one node at a time over
	// connections that are opened for this operation only.
	SequentialDDL bool

	// ParallelQueryExecuted records that the enclosing transaction already
	// ran parallel queries on worker connections. Once that has happened the
	// operation can no longer switch to sequential execution.
	ParallelQueryExecuted bool

	// User is the role propagated commands run as on the workers.
	User string
}

// ShouldPropagate reports whether planners should produce worker commands.
func (pc *PropagationContext) ShouldPropagate() bool {
	return pc.EnableDDLPropagation && pc.IsCoordinator
}

// EnsureSequentialDDL switches the operation to sequential execution.
// Metadata changes must not be interleaved with parallel access to the same
// worker, so this fails if the transaction already executed parallel queries.
func (pc *PropagationContext) EnsureSequentialDDL() error {
	if pc.SequentialDDL {
		return nil
	}
	if pc.ParallelQueryExecuted {
		return errors.New(
			"cannot execute metadata changes after parallel queries in the same transaction; " +
				"run the command in its own transaction")
	}
	pc.SequentialDDL = true
	logutil.BgLogger().Debug("switched to sequential DDL execution",
		zap.String("user", pc.User))
	return nil
}
