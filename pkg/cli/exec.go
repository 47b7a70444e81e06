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

package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/catalog/pgcatalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/commands"
	"github.com/pgfleet/pgfleet/pkg/depgraph"
	"github.com/pgfleet/pgfleet/pkg/distobject"
	"github.com/pgfleet/pgfleet/pkg/metadata"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "execute DDL on the coordinator and propagate it to the workers",
	Long: `Executes the given statements on the coordinator inside a single
transaction and propagates tracked DDL (schemas, enum and composite types,
drops, VACUUM/ANALYZE of distributed tables) to every active worker node.
A failure on any node rolls back the whole operation, except enum value
additions, which are repaired with the printed retry statement instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExec(cmd.Context(), args[0])
	},
}

func runExec(ctx context.Context, sql string) (err error) {
	conn, err := connectCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	propagator, pc := newPropagator(tx)
	if err := propagator.ExecStatements(ctx, pc, tx, sql); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// newPropagator wires a Propagator onto a coordinator transaction. Registry
// reads and writes run in that transaction, so they commit and roll back
// with the local DDL.
func newPropagator(tx pgx.Tx) (*commands.Propagator, *commands.PropagationContext) {
	cat := pgcatalog.New(tx)
	propagator := &commands.Propagator{
		Catalog:  cat,
		Registry: distobject.NewRegistry(cat, distobject.NewPGStore(tx)),
		Nodes:    cluster.NewPGNodeSource(tx),
		Dialer: &cluster.PGDialer{
			User:     cfg.User,
			Database: cfg.Database,
			Options:  cfg.WorkerOptions,
		},
		Shards: metadata.NewPGShardSource(tx),
	}
	pc := &commands.PropagationContext{
		EnableDDLPropagation: cfg.EnableDDLPropagation,
		IsCoordinator:        true,
		User:                 cfg.User,
	}
	return propagator, pc
}

var depsCmd = &cobra.Command{
	Use:   "deps <type-or-schema>",
	Short: "show what would be propagated before creating the named object",
	Long: `Resolves the named type (or schema, with --schema) and prints its
missing prerequisites in the order they would be created on the workers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeps(cmd, args[0])
	},
}

var depsSchema bool

func init() {
	depsCmd.Flags().BoolVar(&depsSchema, "schema", false,
		"treat the argument as a schema name")
}

func runDeps(cmd *cobra.Command, name string) (err error) {
	ctx := cmd.Context()
	conn, err := connectCoordinator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	cat := pgcatalog.New(conn)
	registry := distobject.NewRegistry(cat, distobject.NewPGStore(conn))

	var target catalog.ObjectAddress
	if depsSchema {
		schemaID, err := cat.LookupSchemaOID(ctx, name)
		if err != nil {
			return err
		}
		target = catalog.MakeObjectAddress(catalog.NamespaceRelationID, schemaID)
	} else {
		typeID, err := cat.LookupTypeOID(ctx, name)
		if err != nil {
			return err
		}
		target = catalog.MakeObjectAddress(catalog.TypeRelationID, typeID)
	}

	walker := depgraph.Walker{Catalog: cat, Distributed: registry}
	deps, err := walker.DependenciesFor(ctx, target)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		identity, err := cat.ObjectIdentity(ctx, dep)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), identity)
	}
	return nil
}
