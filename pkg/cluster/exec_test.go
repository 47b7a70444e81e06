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

package cluster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/testutils/testcluster"
)

func TestWorkerNodeAddr(t *testing.T) {
	node := cluster.WorkerNode{ID: 7, Host: "w1.internal", Port: 6432}
	require.Equal(t, "w1.internal:6432", node.Addr())
}

func TestStaticNodesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	src := cluster.StaticNodes{{ID: 1, Host: "a", Port: 5432}}
	nodes, err := src.ActiveNodes(ctx)
	require.NoError(t, err)
	nodes[0].Host = "mutated"

	again, err := src.ActiveNodes(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", again[0].Host)
}

func TestExecuteCriticalMarksRemoteFailures(t *testing.T) {
	ctx := context.Background()
	w := testcluster.NewWorker(cluster.WorkerNode{ID: 1, Host: "w1", Port: 5432})
	w.FailContains = "DROP"
	conn := w.Open()

	require.NoError(t, cluster.ExecuteCritical(ctx, conn,
		cluster.Command{SQL: "CREATE SCHEMA IF NOT EXISTS s;"}))

	err := cluster.ExecuteCritical(ctx, conn, cluster.Command{SQL: "DROP TYPE t;"})
	require.Error(t, err)
	require.ErrorIs(t, err, cluster.ErrRemoteExecution)
	require.Contains(t, err.Error(), "w1:5432")
}

func TestExecuteCriticalIdempotentCreate(t *testing.T) {
	ctx := context.Background()
	w := testcluster.NewWorker(cluster.WorkerNode{ID: 1, Host: "w1", Port: 5432})
	w.AddType("public.status_t")
	conn := w.Open()

	// Already present: the create must not execute.
	require.NoError(t, cluster.ExecuteCritical(ctx, conn, cluster.Command{
		SQL:              "CREATE TYPE public.status_t AS ENUM ('a');",
		IdempotentCreate: true,
	}))
	require.Empty(t, w.Log())
}

func TestExecuteOnAllStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	w1 := testcluster.NewWorker(cluster.WorkerNode{ID: 1, Host: "w1", Port: 5432})
	w2 := testcluster.NewWorker(cluster.WorkerNode{ID: 2, Host: "w2", Port: 5432})
	w3 := testcluster.NewWorker(cluster.WorkerNode{ID: 3, Host: "w3", Port: 5432})
	w2.FailContains = "CREATE"

	conns := []cluster.Conn{w1.Open(), w2.Open(), w3.Open()}
	err := cluster.ExecuteOnAll(ctx, conns, cluster.Command{SQL: "CREATE SCHEMA s;"})
	require.Error(t, err)
	require.Len(t, w1.Log(), 1)
	require.Empty(t, w3.Log())
}

func TestCloseAll(t *testing.T) {
	ctx := context.Background()
	w := testcluster.NewWorker(cluster.WorkerNode{ID: 1, Host: "w1", Port: 5432})
	conns := []cluster.Conn{w.Open(), w.Open()}
	require.NoError(t, cluster.CloseAll(ctx, conns))
	for _, conn := range conns {
		require.True(t, conn.(*testcluster.Conn).Closed())
	}
}
