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

package cluster

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pgfleet/pgfleet/pkg/worker"
)

// ErrRemoteExecution marks failures that occurred while running a command on
// a worker, as opposed to failures computing what to run.
var ErrRemoteExecution = errors.New("remote command execution failed")

// Command is one SQL statement destined for worker nodes.
type Command struct {
	SQL string
	// IdempotentCreate routes the statement through the worker-side
	// create-if-not-exists path instead of plain execution. Set for CREATE
	// TYPE statements, which lack native IF NOT EXISTS support but may
	// already have run on a subset of workers.
	IdempotentCreate bool
}

// ExecuteCritical runs one command on one worker. Critical means the caller
// treats any failure as fatal for the enclosing operation; the error is
// marked with ErrRemoteExecution and names the node.
func ExecuteCritical(ctx context.Context, conn Conn, cmd Command) error {
	var err error
	if cmd.IdempotentCreate {
		_, err = worker.CreateIfNotExists(ctx, conn, cmd.SQL)
	} else {
		_, err = conn.Exec(ctx, cmd.SQL)
	}
	remoteCommands.Inc()
	if err != nil {
		remoteCommandFailures.Inc()
		return errors.Mark(
			errors.Wrapf(err, "on worker %s", conn.Node().Addr()),
			ErrRemoteExecution)
	}
	return nil
}

// ExecuteOnAll runs one command on every connection, stopping at the first
// failure.
func ExecuteOnAll(ctx context.Context, conns []Conn, cmd Command) error {
	for _, conn := range conns {
		if err := ExecuteCritical(ctx, conn, cmd); err != nil {
			return err
		}
	}
	return nil
}
