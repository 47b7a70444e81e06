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

package commands_test

import (
	"context"
	"testing"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/deparse"
)

func parseOne(t *testing.T, sql string) *pgquery.Node {
	t.Helper()
	result, err := pgquery.Parse(sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)
	return result.Stmts[0].Stmt
}

func TestProcessCreateEnumTypeQualifiesAndPropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	schema := f.cat.AddSchema(1, "public", "postgres")
	enum := f.cat.AddEnumType(200, "public", "status_t", "a", "b")
	f.cat.AddDependency(enum, schema, catalog.DepNormal)

	stmt := parseOne(t, "CREATE TYPE status_t AS ENUM ('a', 'b')").GetCreateEnumStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessCreateEnumType(ctx, propagationOn(), stmt))

	// The bare name was qualified with the current schema before deparse.
	require.Equal(t, "public.status_t", deparse.QuoteNameList(stmt.TypeName))
	for _, w := range f.workers {
		require.Contains(t, w.Log(), "CREATE TYPE public.status_t AS ENUM ('a', 'b');")
	}
	distributed, err := f.registry.IsDistributed(ctx, enum)
	require.NoError(t, err)
	require.True(t, distributed)
}

func TestProcessCreateCompositeTypePropagatesDependenciesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, composite := f.addSalesTypes()

	stmt := parseOne(t,
		"CREATE TYPE sales.order_t AS (id integer, status sales.status_t)",
	).GetCompositeTypeStmt()
	require.NotNil(t, stmt)
	f.cat.AddBaseType(23, "integer")
	f.cat.AddTypeName("pg_catalog.int4", 23)

	require.NoError(t, f.propagator.ProcessCreateCompositeType(ctx, propagationOn(), stmt))

	for _, w := range f.workers {
		require.Equal(t, []string{
			"CREATE SCHEMA IF NOT EXISTS sales AUTHORIZATION fleetadmin;",
			"CREATE TYPE sales.status_t AS ENUM ('new', 'done');",
			"CREATE TYPE sales.order_t AS (id integer, status sales.status_t);",
		}, w.Log())
	}
	distributed, err := f.registry.IsDistributed(ctx, composite)
	require.NoError(t, err)
	require.True(t, distributed)
}

func TestProcessAlterTypeOnlyTouchesDistributedTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, composite := f.addSalesTypes()
	f.cat.AddBaseType(25, "text")
	f.cat.AddTypeName("pg_catalog.text", 25)

	stmt := parseOne(t, "ALTER TYPE sales.order_t ADD ATTRIBUTE note text").GetAlterTableStmt()
	require.NotNil(t, stmt)

	// Not distributed: nothing reaches the workers.
	require.NoError(t, f.propagator.ProcessAlterType(ctx, propagationOn(), stmt))
	require.Empty(t, f.dialer.OpenedConns())

	require.NoError(t, f.registry.Record(ctx, composite))
	require.NoError(t, f.propagator.ProcessAlterType(ctx, propagationOn(), stmt))
	for _, w := range f.workers {
		require.Equal(t,
			[]string{"ALTER TYPE sales.order_t ADD ATTRIBUTE note text;"}, w.Log())
	}
}

func TestProcessAlterEnumRenameValueIsCritical(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, enum, _ := f.addSalesTypes()
	require.NoError(t, f.registry.Record(ctx, enum))
	f.workers[1].FailContains = "RENAME VALUE"

	stmt := parseOne(t,
		"ALTER TYPE sales.status_t RENAME VALUE 'done' TO 'closed'").GetAlterEnumStmt()
	require.NotNil(t, stmt)

	err := f.propagator.ProcessAlterEnum(ctx, propagationOn(), stmt)
	require.Error(t, err)
}

func TestProcessAlterEnumAddValueToleratesPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, enum, _ := f.addSalesTypes()
	require.NoError(t, f.registry.Record(ctx, enum))
	f.workers[1].FailContains = "ADD VALUE"

	stmt := parseOne(t,
		"ALTER TYPE sales.status_t ADD VALUE 'returned'").GetAlterEnumStmt()
	require.NotNil(t, stmt)

	// The coordinator commit must proceed; the straggler is repaired by the
	// operator with the suggested retry.
	require.NoError(t, f.propagator.ProcessAlterEnum(ctx, propagationOn(), stmt))
	require.Equal(t,
		[]string{"ALTER TYPE sales.status_t ADD VALUE 'returned';"}, f.workers[0].Log())
	require.Empty(t, f.workers[1].Log())
	require.True(t, f.dialer.AllClosed())
}

func TestProcessAlterEnumSkipsNonDistributed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addSalesTypes()

	stmt := parseOne(t,
		"ALTER TYPE sales.status_t ADD VALUE 'returned'").GetAlterEnumStmt()
	require.NoError(t, f.propagator.ProcessAlterEnum(ctx, propagationOn(), stmt))
	require.Empty(t, f.dialer.OpenedConns())
}

func TestProcessDropTypePropagatesOnlyDistributed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, enum, _ := f.addSalesTypes()
	require.NoError(t, f.registry.Record(ctx, enum))

	stmt := parseOne(t, "DROP TYPE sales.status_t, sales.order_t").GetDropStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessDropType(ctx, propagationOn(), stmt))
	for _, w := range f.workers {
		require.Equal(t, []string{"DROP TYPE sales.status_t;"}, w.Log())
	}
	distributed, err := f.registry.IsDistributed(ctx, enum)
	require.NoError(t, err)
	require.False(t, distributed)
}

func TestProcessDropTypeResolvesMixedCaseNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	enum := f.cat.AddEnumType(210, "sales", "Status_T", "new")
	require.NoError(t, f.registry.Record(ctx, enum))

	stmt := parseOne(t, `DROP TYPE sales."Status_T"`).GetDropStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessDropType(ctx, propagationOn(), stmt))
	for _, w := range f.workers {
		require.Equal(t, []string{`DROP TYPE sales."Status_T";`}, w.Log())
	}
	distributed, err := f.registry.IsDistributed(ctx, enum)
	require.NoError(t, err)
	require.False(t, distributed)
}

func TestProcessDropTypeMissingOk(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	stmt := parseOne(t, "DROP TYPE IF EXISTS nosuch_t").GetDropStmt()
	require.NotNil(t, stmt)
	require.NoError(t, f.propagator.ProcessDropType(ctx, propagationOn(), stmt))
	require.Empty(t, f.dialer.OpenedConns())

	strict := parseOne(t, "DROP TYPE nosuch_t").GetDropStmt()
	err := f.propagator.ProcessDropType(ctx, propagationOn(), strict)
	require.ErrorIs(t, err, catalog.ErrObjectNotFound)
}
