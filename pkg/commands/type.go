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
	pgquery "github.com/pganalyze/pg_query_go/v6"
	"go.uber.org/zap"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

// ProcessCreateCompositeType propagates a composite type that was just
// created on the coordinator: its prerequisites first, then the type itself,
// idempotently. The new type is recorded as distributed.
func (p *Propagator) ProcessCreateCompositeType(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.CompositeTypeStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	if err := p.qualifyRangeVar(ctx, stmt.Typevar); err != nil {
		return err
	}

	name := deparse.QuoteQualifiedIdentifier(stmt.Typevar.Schemaname, stmt.Typevar.Relname)
	typeID, err := p.Catalog.LookupTypeOID(ctx, name)
	if err != nil {
		return err
	}
	addr := catalog.MakeObjectAddress(catalog.TypeRelationID, typeID)

	if err := p.EnsureDependenciesExistOnAllNodes(ctx, pc, addr); err != nil {
		return err
	}
	sql, err := deparse.CompositeTypeStmt(ctx, p.Catalog, stmt)
	if err != nil {
		return err
	}
	if err := p.executeOnAllWorkers(ctx, pc,
		[]cluster.Command{{SQL: sql, IdempotentCreate: true}}); err != nil {
		return err
	}
	return p.Registry.Record(ctx, addr)
}

// ProcessCreateEnumType propagates an enum type that was just created on the
// coordinator, like ProcessCreateCompositeType.
func (p *Propagator) ProcessCreateEnumType(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.CreateEnumStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	if len(stmt.TypeName) == 1 {
		schema, err := p.Catalog.CurrentSchema(ctx)
		if err != nil {
			return err
		}
		schemaNode := &pgquery.Node{
			Node: &pgquery.Node_String_{String_: &pgquery.String{Sval: schema}},
		}
		stmt.TypeName = append([]*pgquery.Node{schemaNode}, stmt.TypeName...)
	}

	typeID, err := p.lookupTypeFromNameList(ctx, stmt.TypeName)
	if err != nil {
		return err
	}
	addr := catalog.MakeObjectAddress(catalog.TypeRelationID, typeID)

	if err := p.EnsureDependenciesExistOnAllNodes(ctx, pc, addr); err != nil {
		return err
	}
	sql, err := deparse.CreateEnumStmt(ctx, p.Catalog, stmt)
	if err != nil {
		return err
	}
	if err := p.executeOnAllWorkers(ctx, pc,
		[]cluster.Command{{SQL: sql, IdempotentCreate: true}}); err != nil {
		return err
	}
	return p.Registry.Record(ctx, addr)
}

// ProcessAlterType propagates ALTER TYPE ... ADD/DROP/ALTER ATTRIBUTE on a
// distributed composite type. Non-distributed types are left alone.
func (p *Propagator) ProcessAlterType(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.AlterTableStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	if err := p.qualifyRangeVar(ctx, stmt.Relation); err != nil {
		return err
	}
	name := deparse.QuoteQualifiedIdentifier(stmt.Relation.Schemaname, stmt.Relation.Relname)
	distributed, _, err := p.typeIsDistributed(ctx, name)
	if err != nil || !distributed {
		return err
	}

	sql, err := deparse.AlterTypeStmt(ctx, p.Catalog, stmt)
	if err != nil {
		return err
	}
	return p.executeOnAllWorkers(ctx, pc, []cluster.Command{{SQL: sql}})
}

// ProcessAlterEnum propagates ALTER TYPE on a distributed enum. RENAME VALUE
// runs as a normal critical command. ADD VALUE cannot run inside the
// coordinator's transaction on the workers, so it executes optimistically:
// if some workers fail, the coordinator commit proceeds and the operator is
// told how to repair the stragglers idempotently.
func (p *Propagator) ProcessAlterEnum(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.AlterEnumStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	distributed, _, err := p.typeIsDistributed(ctx, deparse.QuoteNameList(stmt.TypeName))
	if err != nil || !distributed {
		return err
	}

	sql, err := deparse.AlterEnumStmt(ctx, p.Catalog, stmt)
	if err != nil {
		return err
	}
	if stmt.OldVal != "" {
		return p.executeOnAllWorkers(ctx, pc, []cluster.Command{{SQL: sql}})
	}

	conns, err := p.dialAllWorkers(ctx, pc)
	if err != nil {
		return err
	}
	defer func() { _ = cluster.CloseAll(ctx, conns) }()

	failed := 0
	for _, conn := range conns {
		if execErr := cluster.ExecuteCritical(ctx, conn, cluster.Command{SQL: sql}); execErr != nil {
			failed++
			logutil.BgLogger().Warn("enum value not added on worker",
				zap.String("node", conn.Node().Addr()),
				zap.Error(execErr))
		}
	}
	if failed > 0 {
		retrySQL, retryErr := deparse.AlterEnumStmtIdempotent(ctx, p.Catalog, stmt)
		if retryErr != nil {
			return retryErr
		}
		logutil.BgLogger().Warn("enum value added on a subset of workers; "+
			"re-run the statement to repair the others",
			zap.Int("failed", failed),
			zap.String("retry", retrySQL))
	}
	return nil
}

// ProcessDropType propagates DROP TYPE for the distributed types named by
// the statement. Runs before the local drop, while the types can still be
// resolved. Types that are not distributed, or do not exist, are dropped
// locally only.
func (p *Propagator) ProcessDropType(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.DropStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}

	var distributedNames []*pgquery.TypeName
	for _, obj := range stmt.Objects {
		typeName := obj.GetTypeName()
		if typeName == nil {
			return errors.AssertionFailedf("DROP TYPE object is not a TypeName")
		}
		distributed, typeID, err := p.typeIsDistributed(ctx, deparse.QuoteTypeName(typeName))
		if err != nil {
			if errors.Is(err, catalog.ErrObjectNotFound) && stmt.MissingOk {
				continue
			}
			return err
		}
		if !distributed {
			continue
		}
		if err := p.Registry.Unrecord(ctx,
			catalog.MakeObjectAddress(catalog.TypeRelationID, typeID)); err != nil {
			return err
		}
		distributedNames = append(distributedNames, typeName)
	}
	if len(distributedNames) == 0 {
		return nil
	}

	sql, err := deparse.DropTypeStmt(ctx, p.Catalog, distributedNames, stmt.Behavior)
	if err != nil {
		return err
	}
	return p.executeOnAllWorkers(ctx, pc, []cluster.Command{{SQL: sql}})
}

// qualifyRangeVar fills in the schema of a bare relation or type name from
// the session's current schema, so the deparsed statement is search-path
// independent.
func (p *Propagator) qualifyRangeVar(ctx context.Context, rel *pgquery.RangeVar) error {
	if rel.Schemaname != "" {
		return nil
	}
	schema, err := p.Catalog.CurrentSchema(ctx)
	if err != nil {
		return err
	}
	rel.Schemaname = schema
	return nil
}

func (p *Propagator) lookupTypeFromNameList(
	ctx context.Context, names []*pgquery.Node,
) (catalog.ObjectID, error) {
	return p.Catalog.LookupTypeOID(ctx, deparse.QuoteNameList(names))
}

// typeIsDistributed resolves a type name and reports whether the type is in
// the distributed-object registry.
func (p *Propagator) typeIsDistributed(
	ctx context.Context, name string,
) (bool, catalog.ObjectID, error) {
	typeID, err := p.Catalog.LookupTypeOID(ctx, name)
	if err != nil {
		return false, catalog.InvalidObjectID, err
	}
	distributed, err := p.Registry.IsDistributed(ctx,
		catalog.MakeObjectAddress(catalog.TypeRelationID, typeID))
	return distributed, typeID, err
}
