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

package cluster

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn is an exclusive connection to one worker node. Exclusive means no
// other part of the process shares it, so a sequence of Exec calls forms an
// uninterrupted session on the worker.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
	Node() WorkerNode
}

// Dialer opens exclusive connections to worker nodes.
type Dialer interface {
	Dial(ctx context.Context, node WorkerNode) (Conn, error)
}

// PGDialer dials workers with pgx. Every Dial opens a fresh connection;
// nothing is pooled, because propagation requires session-exclusive
// connections that are discarded when the enclosing operation finishes.
type PGDialer struct {
	// User authenticates against every worker. Propagated DDL must run as
	// the same role on each node so ownership comes out identical.
	User string
	// Database is the database to connect to on each worker.
	Database string
	// Options are appended verbatim to the connection string, for settings
	// like sslmode or password sources.
	Options string
}

var _ Dialer = (*PGDialer)(nil)

// Dial implements Dialer.
func (d *PGDialer) Dial(ctx context.Context, node WorkerNode) (Conn, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s",
		node.Host, node.Port, d.User, d.Database)
	if d.Options != "" {
		connStr += " " + d.Options
	}
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		connectionFailures.Inc()
		return nil, errors.Wrapf(err, "connecting to worker %s", node.Addr())
	}
	connectionsOpened.Inc()
	return &pgConn{conn: conn, node: node}, nil
}

type pgConn struct {
	conn *pgx.Conn
	node WorkerNode
}

var _ Conn = (*pgConn)(nil)

func (c *pgConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

func (c *pgConn) Node() WorkerNode {
	return c.node
}

// CloseAll closes every connection, keeping the first error. Used on both
// the success and failure paths of multi-node operations.
func CloseAll(ctx context.Context, conns []Conn) error {
	var firstErr error
	for _, conn := range conns {
		if err := conn.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
