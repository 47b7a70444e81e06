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

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// localRecorder stands in for the coordinator connection, recording every
// statement executed locally.
type localRecorder struct {
	log []string
}

func (l *localRecorder) Exec(
	_ context.Context, sql string, _ ...any,
) (pgconn.CommandTag, error) {
	l.log = append(l.log, sql)
	return pgconn.CommandTag{}, nil
}

func TestExecStatementsRunsUntrackedStatementsLocallyOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	local := &localRecorder{}

	require.NoError(t, f.propagator.ExecStatements(ctx, propagationOn(), local,
		"CREATE TABLE t (a int)"))
	require.Len(t, local.log, 1)
	require.Empty(t, f.dialer.OpenedConns())
}

func TestExecStatementsPropagatesEnumCreation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	schema := f.cat.AddSchema(1, "public", "postgres")
	enum := f.cat.AddEnumType(200, "public", "status_t", "a")
	f.cat.AddDependency(enum, schema, catalog.DepNormal)
	local := &localRecorder{}

	require.NoError(t, f.propagator.ExecStatements(ctx, propagationOn(), local,
		"CREATE TYPE status_t AS ENUM ('a')"))

	require.Len(t, local.log, 1)
	for _, w := range f.workers {
		require.Contains(t, w.Log(), "CREATE TYPE public.status_t AS ENUM ('a');")
	}
}

func TestExecStatementsDropTypeRunsWorkersBeforeLocal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, enum, _ := f.addSalesTypes()
	require.NoError(t, f.registry.Record(ctx, enum))
	local := &localRecorder{}

	require.NoError(t, f.propagator.ExecStatements(ctx, propagationOn(), local,
		"DROP TYPE sales.status_t"))

	// The worker-side drop planned against live catalog state; the local
	// drop happened afterwards.
	require.Len(t, local.log, 1)
	for _, w := range f.workers {
		require.Equal(t, []string{"DROP TYPE sales.status_t;"}, w.Log())
	}
}

func TestExecStatementsSplitsMultipleStatements(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	local := &localRecorder{}

	require.NoError(t, f.propagator.ExecStatements(ctx, propagationOn(), local,
		"CREATE TABLE a (x int); CREATE TABLE b (y int)"))
	require.Len(t, local.log, 2)
}

func TestExecStatementsPropagatesCreateSchema(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cat.AddSchema(100, "sales", "fleetadmin")
	local := &localRecorder{}

	require.NoError(t, f.propagator.ExecStatements(ctx, propagationOn(), local,
		"CREATE SCHEMA sales"))
	require.Len(t, local.log, 1)
	for _, w := range f.workers {
		require.Equal(t, []string{
			"CREATE SCHEMA IF NOT EXISTS sales AUTHORIZATION fleetadmin;",
		}, w.Log())
	}
}
