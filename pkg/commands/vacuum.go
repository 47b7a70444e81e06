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
	"fmt"

	"github.com/cockroachdb/errors"
	pgquery "github.com/pganalyze/pg_query_go/v6"
	"go.uber.org/zap"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

// nodeTasks groups the commands destined for one worker node.
type nodeTasks struct {
	node cluster.WorkerNode
	cmds []string
}

// ProcessVacuum fans a VACUUM or ANALYZE over the shard placements of every
// distributed table it names. Relations that are not distributed, and the
// unqualified form that targets the whole database, run on the coordinator
// only.
func (p *Propagator) ProcessVacuum(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.VacuumStmt,
) error {
	if !pc.EnableDDLPropagation {
		if len(stmt.Rels) > 0 {
			logutil.BgLogger().Warn(
				"not propagating VACUUM to workers; DDL propagation is disabled")
		}
		return nil
	}
	if !pc.IsCoordinator {
		return nil
	}
	if len(stmt.Rels) == 0 {
		logutil.BgLogger().Debug("unqualified VACUUM is not propagated to workers")
		return nil
	}

	prefix := deparse.VacuumPrefix(stmt)
	var tasks []*nodeTasks
	for _, relNode := range stmt.Rels {
		vrel := relNode.GetVacuumRelation()
		if vrel == nil || vrel.Relation == nil {
			return errors.AssertionFailedf("VACUUM target is not a VacuumRelation")
		}

		schema := vrel.Relation.Schemaname
		if schema == "" {
			var err error
			if schema, err = p.Catalog.CurrentSchema(ctx); err != nil {
				return err
			}
		}
		relID, err := p.Catalog.LookupRelationOID(ctx, schema, vrel.Relation.Relname)
		if err != nil {
			if errors.Is(err, catalog.ErrObjectNotFound) {
				continue
			}
			return err
		}
		distributed, err := p.Registry.IsDistributed(ctx,
			catalog.MakeObjectAddress(catalog.RelationRelationID, relID))
		if err != nil {
			return err
		}
		if !distributed {
			continue
		}

		placements, err := p.Shards.PlacementsFor(ctx, relID)
		if err != nil {
			return err
		}
		colList := deparse.VacuumColumnList(vrel)
		for _, placement := range placements {
			shardName := deparse.QuoteQualifiedIdentifier(placement.SchemaName,
				fmt.Sprintf("%s_%d", placement.TableName, placement.ShardID))
			tasks = appendNodeTask(tasks, placement.Node, prefix+" "+shardName+colList+";")
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	// VACUUM cannot run inside a transaction block on the workers, so each
	// node gets its own short-lived connection executing the commands as
	// standalone statements.
	for _, task := range tasks {
		if err := p.runNodeTasks(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func appendNodeTask(tasks []*nodeTasks, node cluster.WorkerNode, cmd string) []*nodeTasks {
	for _, task := range tasks {
		if task.node.ID == node.ID {
			task.cmds = append(task.cmds, cmd)
			return tasks
		}
	}
	return append(tasks, &nodeTasks{node: node, cmds: []string{cmd}})
}

func (p *Propagator) runNodeTasks(ctx context.Context, task *nodeTasks) (err error) {
	conn, err := p.Dialer.Dial(ctx, task.node)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	logutil.BgLogger().Info("running maintenance commands on worker",
		zap.String("node", task.node.Addr()),
		zap.Int("commands", len(task.cmds)))
	for _, cmd := range task.cmds {
		if err := cluster.ExecuteCritical(ctx, conn, cluster.Command{SQL: cmd}); err != nil {
			return err
		}
	}
	return nil
}
