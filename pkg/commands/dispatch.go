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
	"github.com/jackc/pgx/v5/pgconn"
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfleet/pgfleet/pkg/deparse"
)

// LocalExecutor executes SQL on the coordinator itself.
type LocalExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExecStatements parses sql, executes each statement on the coordinator, and
// propagates the DDL kinds pgfleet tracks to the workers. Statements whose
// propagation must see pre-drop catalog state run their worker half before
// the local half; everything else runs locally first.
func (p *Propagator) ExecStatements(
	ctx context.Context, pc *PropagationContext, local LocalExecutor, sql string,
) error {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return errors.Wrap(err, "parsing statement")
	}

	for _, raw := range result.Stmts {
		stmtSQL, err := pgquery.Deparse(&pgquery.ParseResult{
			Stmts: []*pgquery.RawStmt{{Stmt: raw.Stmt}},
		})
		if err != nil {
			return errors.Wrap(err, "splitting statement")
		}
		if err := p.execOne(ctx, pc, local, raw.Stmt, stmtSQL); err != nil {
			return err
		}
	}
	return nil
}

func (p *Propagator) execOne(
	ctx context.Context, pc *PropagationContext, local LocalExecutor,
	stmt *pgquery.Node, sql string,
) error {
	switch node := stmt.Node.(type) {
	case *pgquery.Node_CompositeTypeStmt:
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		return p.ProcessCreateCompositeType(ctx, pc, node.CompositeTypeStmt)

	case *pgquery.Node_CreateEnumStmt:
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		return p.ProcessCreateEnumType(ctx, pc, node.CreateEnumStmt)

	case *pgquery.Node_AlterTableStmt:
		if node.AlterTableStmt.Objtype != pgquery.ObjectType_OBJECT_TYPE {
			_, err := local.Exec(ctx, sql)
			return err
		}
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		return p.ProcessAlterType(ctx, pc, node.AlterTableStmt)

	case *pgquery.Node_AlterEnumStmt:
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		return p.ProcessAlterEnum(ctx, pc, node.AlterEnumStmt)

	case *pgquery.Node_DropStmt:
		switch node.DropStmt.RemoveType {
		case pgquery.ObjectType_OBJECT_TYPE:
			if err := p.ProcessDropType(ctx, pc, node.DropStmt); err != nil {
				return err
			}
		case pgquery.ObjectType_OBJECT_FUNCTION:
			if err := p.ProcessDropFunction(ctx, pc, node.DropStmt); err != nil {
				return err
			}
		}
		_, err := local.Exec(ctx, sql)
		return err

	case *pgquery.Node_VacuumStmt:
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		return p.ProcessVacuum(ctx, pc, node.VacuumStmt)

	case *pgquery.Node_CreateSchemaStmt:
		if _, err := local.Exec(ctx, sql); err != nil {
			return err
		}
		if !pc.ShouldPropagate() || deparse.IsSystemSchema(node.CreateSchemaStmt.Schemaname) {
			return nil
		}
		schemaID, err := p.Catalog.LookupSchemaOID(ctx, node.CreateSchemaStmt.Schemaname)
		if err != nil {
			return err
		}
		return p.EnsureSchemaExistsOnAllNodes(ctx, pc, schemaID)

	default:
		_, err := local.Exec(ctx, sql)
		return err
	}
}
