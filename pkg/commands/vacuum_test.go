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

	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/metadata"
)

// addDistributedTable registers public.orders as a distributed table with
// one shard placement per worker.
func (f *fixture) addDistributedTable(ctx context.Context, t *testing.T) {
	t.Helper()
	f.cat.AddSchema(1, "public", "postgres")
	rel := f.cat.AddRelation(500, "public", "orders")
	require.NoError(t, f.registry.Record(ctx, rel))
	f.shards.AddPlacement(500, metadata.ShardPlacement{
		ShardID: 102008, SchemaName: "public", TableName: "orders",
		Node: f.workers[0].Node,
	})
	f.shards.AddPlacement(500, metadata.ShardPlacement{
		ShardID: 102009, SchemaName: "public", TableName: "orders",
		Node: f.workers[1].Node,
	})
}

func TestProcessVacuumFansOutToShardPlacements(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addDistributedTable(ctx, t)

	stmt := parseOne(t, "VACUUM (FULL, ANALYZE) orders").GetVacuumStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessVacuum(ctx, propagationOn(), stmt))
	require.Equal(t,
		[]string{"VACUUM (FULL, ANALYZE) public.orders_102008;"}, f.workers[0].Log())
	require.Equal(t,
		[]string{"VACUUM (FULL, ANALYZE) public.orders_102009;"}, f.workers[1].Log())
	require.True(t, f.dialer.AllClosed())
}

func TestProcessVacuumAnalyzeColumns(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addDistributedTable(ctx, t)

	stmt := parseOne(t, "ANALYZE public.orders (id, total)").GetVacuumStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessVacuum(ctx, propagationOn(), stmt))
	require.Equal(t,
		[]string{"ANALYZE public.orders_102008 (id, total);"}, f.workers[0].Log())
}

func TestProcessVacuumSkipsLocalOnlyForms(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addDistributedTable(ctx, t)

	// Unqualified VACUUM and non-distributed relations stay local.
	for _, sql := range []string{"VACUUM", "VACUUM nosuch", "VACUUM pg_catalog.pg_class"} {
		stmt := parseOne(t, sql).GetVacuumStmt()
		require.NotNil(t, stmt, sql)
		require.NoError(t, f.propagator.ProcessVacuum(ctx, propagationOn(), stmt), sql)
	}
	require.Empty(t, f.dialer.OpenedConns())
}
