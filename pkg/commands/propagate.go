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

package commands

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/depgraph"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/distobject"
	"github.com/pgfleet/pgfleet/pkg/metadata"
	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

// Propagator plans and executes worker-side DDL for coordinator statements.
// All its operations run inside the coordinator transaction that executed
// the statement locally; a failure on any worker aborts that transaction,
// rolling back registry writes along with the local DDL.
type Propagator struct {
	Catalog  catalog.Catalog
	Registry *distobject.Registry
	Nodes    cluster.NodeSource
	Dialer   cluster.Dialer
	Shards   metadata.ShardSource
}

// EnsureDependenciesExistOnAllNodes creates every missing prerequisite of
// target on every active worker, in dependency order, and records each one
// as distributed. Connections to the workers are opened lazily, only once a
// dependency actually produces commands, and are closed before returning on
// every path.
func (p *Propagator) EnsureDependenciesExistOnAllNodes(
	ctx context.Context, pc *PropagationContext, target catalog.ObjectAddress,
) (err error) {
	if !pc.ShouldPropagate() {
		return nil
	}

	walker := depgraph.Walker{Catalog: p.Catalog, Distributed: p.Registry}
	deps, err := walker.DependenciesFor(ctx, target)
	if err != nil {
		return err
	}
	if len(deps) == 0 {
		return nil
	}

	batchID := uuid.New()
	logutil.BgLogger().Info("propagating dependencies",
		zap.Stringer("batch", batchID),
		zap.Stringer("target", target),
		zap.Int("dependencies", len(deps)))

	var conns []cluster.Conn
	dialed := false
	defer func() {
		if closeErr := cluster.CloseAll(ctx, conns); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, dep := range deps {
		cmds, err := p.dependencyCreateCommands(ctx, dep)
		if err != nil {
			return err
		}

		if len(cmds) > 0 && !dialed {
			conns, err = p.dialAllWorkers(ctx, pc)
			if err != nil {
				return err
			}
			dialed = true
		}

		// Each dependency's commands finish on every worker before the next
		// dependency starts, so later objects can reference earlier ones.
		for _, cmd := range cmds {
			if err := cluster.ExecuteOnAll(ctx, conns, cmd); err != nil {
				return errors.Wrapf(err, "creating dependency %s", dep)
			}
		}

		// Recording immediately after creation keeps the registry a correct
		// prefix of the work done if a later dependency fails.
		if err := p.Registry.Record(ctx, dep); err != nil {
			return err
		}
	}

	logutil.BgLogger().Debug("dependency propagation complete",
		zap.Stringer("batch", batchID))
	return nil
}

// EnsureSchemaExistsOnAllNodes creates a single schema on every worker and
// records it, without walking its dependencies. Used when a schema itself is
// the object being distributed.
func (p *Propagator) EnsureSchemaExistsOnAllNodes(
	ctx context.Context, pc *PropagationContext, schemaID catalog.ObjectID,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	sql, err := deparse.CreateSchemaCommand(ctx, p.Catalog, schemaID)
	if err != nil {
		return err
	}
	if sql != "" {
		if err := p.executeOnAllWorkers(ctx, pc, []cluster.Command{{SQL: sql}}); err != nil {
			return err
		}
	}
	return p.Registry.Record(ctx,
		catalog.MakeObjectAddress(catalog.NamespaceRelationID, schemaID))
}

// dependencyCreateCommands returns the commands that create one dependency
// on a worker. An empty slice means the object needs no creation there, only
// recording.
func (p *Propagator) dependencyCreateCommands(
	ctx context.Context, dep catalog.ObjectAddress,
) ([]cluster.Command, error) {
	switch dep.Class() {
	case catalog.ClassSchema:
		sql, err := deparse.CreateSchemaCommand(ctx, p.Catalog, dep.ObjectID)
		if err != nil {
			return nil, err
		}
		if sql == "" {
			return nil, nil
		}
		return []cluster.Command{{SQL: sql}}, nil

	case catalog.ClassType:
		sql, err := deparse.RecreateTypeCommand(ctx, p.Catalog, dep.ObjectID)
		if err != nil {
			return nil, err
		}
		return []cluster.Command{{SQL: sql, IdempotentCreate: true}}, nil

	default:
		return nil, nil
	}
}

// dialAllWorkers opens one exclusive connection per active worker, switching
// the operation to sequential execution first. Either every connection opens
// or none stay open.
func (p *Propagator) dialAllWorkers(
	ctx context.Context, pc *PropagationContext,
) ([]cluster.Conn, error) {
	if err := pc.EnsureSequentialDDL(); err != nil {
		return nil, err
	}
	nodes, err := p.Nodes.ActiveNodes(ctx)
	if err != nil {
		return nil, err
	}
	conns := make([]cluster.Conn, 0, len(nodes))
	for _, node := range nodes {
		conn, err := p.Dialer.Dial(ctx, node)
		if err != nil {
			_ = cluster.CloseAll(ctx, conns)
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

// executeOnAllWorkers dials every active worker, runs each command on all of
// them in order, and closes the connections.
func (p *Propagator) executeOnAllWorkers(
	ctx context.Context, pc *PropagationContext, cmds []cluster.Command,
) (err error) {
	conns, err := p.dialAllWorkers(ctx, pc)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cluster.CloseAll(ctx, conns); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	for _, cmd := range cmds {
		if err := cluster.ExecuteOnAll(ctx, conns, cmd); err != nil {
			return err
		}
	}
	return nil
}
