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

package worker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/testutils/testcluster"
	"github.com/pgfleet/pgfleet/pkg/worker"
)

func newWorkerConn() (*testcluster.Worker, *testcluster.Conn) {
	w := testcluster.NewWorker(cluster.WorkerNode{ID: 1, Host: "w1", Port: 5432})
	return w, w.Open()
}

func TestCreateIfNotExistsCreatesMissingType(t *testing.T) {
	ctx := context.Background()
	w, conn := newWorkerConn()

	created, err := worker.CreateIfNotExists(ctx, conn,
		"CREATE TYPE sales.status_t AS ENUM ('new', 'done');")
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, w.HasType("sales.status_t"))
	require.Len(t, w.Log(), 1)
}

func TestCreateIfNotExistsSkipsExistingType(t *testing.T) {
	ctx := context.Background()
	w, conn := newWorkerConn()
	w.AddType("sales.status_t")

	created, err := worker.CreateIfNotExists(ctx, conn,
		"CREATE TYPE sales.status_t AS ENUM ('new', 'done');")
	require.NoError(t, err)
	require.False(t, created)
	require.Empty(t, w.Log())
}

func TestCreateIfNotExistsCompositeType(t *testing.T) {
	ctx := context.Background()
	w, conn := newWorkerConn()

	created, err := worker.CreateIfNotExists(ctx, conn,
		"CREATE TYPE sales.order_t AS (id integer, status sales.status_t);")
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, w.HasType("sales.order_t"))
}

func TestCreateIfNotExistsRejectsOtherStatements(t *testing.T) {
	ctx := context.Background()
	_, conn := newWorkerConn()

	tests := []string{
		"CREATE TABLE t (a int);",
		"DROP TYPE sales.status_t;",
		"SELECT 1;",
		"CREATE TYPE a AS ENUM ('x'); CREATE TYPE b AS ENUM ('y');",
	}
	for _, sql := range tests {
		_, err := worker.CreateIfNotExists(ctx, conn, sql)
		require.ErrorIs(t, err, worker.ErrUnsupportedStatement, sql)
	}
}

func TestCreateIfNotExistsQuotesUnsafeNames(t *testing.T) {
	ctx := context.Background()
	w, conn := newWorkerConn()

	created, err := worker.CreateIfNotExists(ctx, conn,
		`CREATE TYPE "Sales"."Status T" AS ENUM ('new');`)
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, w.HasType(`"Sales"."Status T"`))
}
