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

package deparse_test

import (
	"context"
	"testing"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/testutils/testcat"
)

// newCatalog builds a catalog with the builtin spellings the parser
// substitutes for common types, plus a sales schema with an enum and a
// composite.
func newCatalog() *testcat.Catalog {
	cat := testcat.New()
	cat.AddBaseType(23, "integer")
	cat.AddTypeName("pg_catalog.int4", 23)
	cat.AddBaseType(25, "text")
	cat.AddTypeName("pg_catalog.text", 25)
	cat.AddSchema(100, "sales", "fleetadmin")
	cat.AddEnumType(200, "sales", "status_t", "new", "shipped", "done")
	cat.AddCompositeType(300, "sales", "order_t",
		catalog.CompositeAttribute{Name: "id", TypeName: "integer"},
		catalog.CompositeAttribute{Name: "status", TypeName: "sales.status_t"},
	)
	return cat
}

func parseOne(t *testing.T, sql string) *pgquery.Node {
	t.Helper()
	result, err := pgquery.Parse(sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)
	return result.Stmts[0].Stmt
}

func TestCompositeTypeStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	stmt := parseOne(t, "CREATE TYPE sales.order_t AS (id integer, status status_t)")
	node := stmt.GetCompositeTypeStmt()
	require.NotNil(t, node)

	sql, err := deparse.CompositeTypeStmt(ctx, cat, node)
	require.NoError(t, err)
	require.Equal(t,
		"CREATE TYPE sales.order_t AS (id integer, status sales.status_t);", sql)
}

func TestCreateEnumStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	stmt := parseOne(t, "CREATE TYPE sales.status_t AS ENUM ('new', 'it''s')")
	node := stmt.GetCreateEnumStmt()
	require.NotNil(t, node)

	sql, err := deparse.CreateEnumStmt(ctx, cat, node)
	require.NoError(t, err)
	require.Equal(t, "CREATE TYPE sales.status_t AS ENUM ('new', 'it''s');", sql)
}

func TestAlterEnumStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "add value",
			in:   "ALTER TYPE status_t ADD VALUE 'returned'",
			want: "ALTER TYPE sales.status_t ADD VALUE 'returned';",
		},
		{
			name: "add value if not exists before",
			in:   "ALTER TYPE sales.status_t ADD VALUE IF NOT EXISTS 'returned' BEFORE 'done'",
			want: "ALTER TYPE sales.status_t ADD VALUE IF NOT EXISTS 'returned' BEFORE 'done';",
		},
		{
			name: "add value after",
			in:   "ALTER TYPE sales.status_t ADD VALUE 'returned' AFTER 'shipped'",
			want: "ALTER TYPE sales.status_t ADD VALUE 'returned' AFTER 'shipped';",
		},
		{
			name: "rename value",
			in:   "ALTER TYPE sales.status_t RENAME VALUE 'done' TO 'closed'",
			want: "ALTER TYPE sales.status_t RENAME VALUE 'done' TO 'closed';",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node := parseOne(t, tc.in).GetAlterEnumStmt()
			require.NotNil(t, node)
			sql, err := deparse.AlterEnumStmt(ctx, cat, node)
			require.NoError(t, err)
			require.Equal(t, tc.want, sql)
		})
	}
}

func TestAlterEnumStmtIdempotent(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	node := parseOne(t, "ALTER TYPE sales.status_t ADD VALUE 'returned'").GetAlterEnumStmt()
	require.NotNil(t, node)

	sql, err := deparse.AlterEnumStmtIdempotent(ctx, cat, node)
	require.NoError(t, err)
	require.Equal(t, "ALTER TYPE sales.status_t ADD VALUE IF NOT EXISTS 'returned';", sql)
}

func TestAlterTypeStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "add attribute",
			in:   "ALTER TYPE sales.order_t ADD ATTRIBUTE note text",
			want: "ALTER TYPE sales.order_t ADD ATTRIBUTE note text;",
		},
		{
			name: "drop attribute cascade",
			in:   "ALTER TYPE sales.order_t DROP ATTRIBUTE status CASCADE",
			want: "ALTER TYPE sales.order_t DROP ATTRIBUTE status CASCADE;",
		},
		{
			name: "alter attribute type",
			in:   "ALTER TYPE order_t ALTER ATTRIBUTE id SET DATA TYPE text",
			want: "ALTER TYPE sales.order_t ALTER ATTRIBUTE id SET DATA TYPE text;",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node := parseOne(t, tc.in).GetAlterTableStmt()
			require.NotNil(t, node)
			require.Equal(t, pgquery.ObjectType_OBJECT_TYPE, node.Objtype)
			sql, err := deparse.AlterTypeStmt(ctx, cat, node)
			require.NoError(t, err)
			require.Equal(t, tc.want, sql)
		})
	}
}

func TestDropTypeStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	node := parseOne(t, "DROP TYPE status_t, sales.order_t CASCADE").GetDropStmt()
	require.NotNil(t, node)

	var typeNames []*pgquery.TypeName
	for _, obj := range node.Objects {
		typeNames = append(typeNames, obj.GetTypeName())
	}
	sql, err := deparse.DropTypeStmt(ctx, cat, typeNames, node.Behavior)
	require.NoError(t, err)
	require.Equal(t, "DROP TYPE sales.status_t, sales.order_t CASCADE;", sql)
}

// Mixed-case names must reach the catalog in their quoted spelling; the type
// name parser case-folds unquoted identifiers and would miss them.
func TestMixedCaseTypeNamesResolve(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()
	cat.AddEnumType(210, "sales", "Status_T", "new", "done")
	cat.AddCompositeType(310, "sales", "Order_T",
		catalog.CompositeAttribute{Name: "id", TypeName: "integer"},
	)

	t.Run("alter enum", func(t *testing.T) {
		node := parseOne(t,
			`ALTER TYPE sales."Status_T" ADD VALUE 'returned'`).GetAlterEnumStmt()
		require.NotNil(t, node)
		sql, err := deparse.AlterEnumStmt(ctx, cat, node)
		require.NoError(t, err)
		require.Equal(t, `ALTER TYPE sales."Status_T" ADD VALUE 'returned';`, sql)
	})

	t.Run("alter type attribute", func(t *testing.T) {
		node := parseOne(t,
			`ALTER TYPE sales."Order_T" ADD ATTRIBUTE note text`).GetAlterTableStmt()
		require.NotNil(t, node)
		sql, err := deparse.AlterTypeStmt(ctx, cat, node)
		require.NoError(t, err)
		require.Equal(t, `ALTER TYPE sales."Order_T" ADD ATTRIBUTE note text;`, sql)
	})

	t.Run("drop type", func(t *testing.T) {
		node := parseOne(t, `DROP TYPE sales."Status_T"`).GetDropStmt()
		require.NotNil(t, node)
		var typeNames []*pgquery.TypeName
		for _, obj := range node.Objects {
			typeNames = append(typeNames, obj.GetTypeName())
		}
		sql, err := deparse.DropTypeStmt(ctx, cat, typeNames, node.Behavior)
		require.NoError(t, err)
		require.Equal(t, `DROP TYPE sales."Status_T";`, sql)
	})

	t.Run("composite column", func(t *testing.T) {
		node := parseOne(t,
			`CREATE TYPE sales.box_t AS (s sales."Status_T")`).GetCompositeTypeStmt()
		require.NotNil(t, node)
		sql, err := deparse.CompositeTypeStmt(ctx, cat, node)
		require.NoError(t, err)
		require.Equal(t, `CREATE TYPE sales.box_t AS (s sales."Status_T");`, sql)
	})
}

func TestRecreateTypeCommand(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	t.Run("enum", func(t *testing.T) {
		sql, err := deparse.RecreateTypeCommand(ctx, cat, 200)
		require.NoError(t, err)
		require.Equal(t,
			"CREATE TYPE sales.status_t AS ENUM ('new', 'shipped', 'done');", sql)
	})

	t.Run("composite", func(t *testing.T) {
		sql, err := deparse.RecreateTypeCommand(ctx, cat, 300)
		require.NoError(t, err)
		require.Equal(t,
			"CREATE TYPE sales.order_t AS (id integer, status sales.status_t);", sql)
	})

	t.Run("composite with collation", func(t *testing.T) {
		cat.AddCompositeType(301, "sales", "label_t",
			catalog.CompositeAttribute{Name: "v", TypeName: "text", Collation: `pg_catalog."C"`},
		)
		sql, err := deparse.RecreateTypeCommand(ctx, cat, 301)
		require.NoError(t, err)
		require.Equal(t,
			`CREATE TYPE sales.label_t AS (v text COLLATE pg_catalog."C");`, sql)
	})

	t.Run("base type unsupported", func(t *testing.T) {
		_, err := deparse.RecreateTypeCommand(ctx, cat, 23)
		require.ErrorIs(t, err, deparse.ErrUnsupportedType)
	})
}

func TestDropFunctionStmt(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog()

	node := parseOne(t, "DROP FUNCTION sales.place_order(integer, text)").GetDropStmt()
	require.NotNil(t, node)

	var funcs []*pgquery.ObjectWithArgs
	for _, obj := range node.Objects {
		funcs = append(funcs, obj.GetObjectWithArgs())
	}
	sql, err := deparse.DropFunctionStmt(ctx, cat, funcs, node.Behavior, true)
	require.NoError(t, err)
	require.Equal(t, "DROP FUNCTION IF EXISTS sales.place_order(integer, text);", sql)
}
