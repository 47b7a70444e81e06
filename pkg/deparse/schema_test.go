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

	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/testutils/testcat"
)

func TestCreateSchemaCommand(t *testing.T) {
	ctx := context.Background()
	cat := testcat.New()
	cat.AddSchema(100, "sales", "fleetadmin")
	cat.AddSchema(101, "pg_temp_3", "postgres")
	cat.AddSchema(102, "information_schema", "postgres")

	sql, err := deparse.CreateSchemaCommand(ctx, cat, 100)
	require.NoError(t, err)
	require.Equal(t,
		"CREATE SCHEMA IF NOT EXISTS sales AUTHORIZATION fleetadmin;", sql)

	for _, systemID := range []uint32{101, 102} {
		sql, err := deparse.CreateSchemaCommand(ctx, cat, catalog.ObjectID(systemID))
		require.NoError(t, err)
		require.Empty(t, sql)
	}
}

func TestCreateSchemaCommandQuotesKeywordNames(t *testing.T) {
	ctx := context.Background()
	cat := testcat.New()
	cat.AddSchema(103, "order", "user")

	sql, err := deparse.CreateSchemaCommand(ctx, cat, 103)
	require.NoError(t, err)
	require.Equal(t,
		`CREATE SCHEMA IF NOT EXISTS "order" AUTHORIZATION "user";`, sql)
}

func TestIsSystemSchema(t *testing.T) {
	require.True(t, deparse.IsSystemSchema("pg_catalog"))
	require.True(t, deparse.IsSystemSchema("pg_toast"))
	require.True(t, deparse.IsSystemSchema("information_schema"))
	require.False(t, deparse.IsSystemSchema("sales"))
	require.False(t, deparse.IsSystemSchema("public"))
}
