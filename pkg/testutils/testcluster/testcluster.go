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

// Package testcluster provides in-memory worker nodes and a dialer for
// exercising propagation logic without a database.
package testcluster

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgfleet/pgfleet/pkg/cluster"
)

// Worker simulates one worker node: it records every executed statement and
// tracks which types exist so idempotent creation checks behave like a real
// node.
type Worker struct {
	Node cluster.WorkerNode

	mu    sync.Mutex
	types map[string]bool
	log   []string

	// FailContains makes Exec fail for any statement containing the given
	// substring. Empty disables failure injection.
	FailContains string
}

// NewWorker returns a Worker for the given node.
func NewWorker(node cluster.WorkerNode) *Worker {
	return &Worker{Node: node, types: make(map[string]bool)}
}

// Open returns a connection to this worker without going through a Dialer.
func (w *Worker) Open() *Conn {
	return &Conn{worker: w}
}

// AddType marks a type as already existing on this worker. The name must be
// the quoted qualified identifier used in creation checks.
func (w *Worker) AddType(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.types[name] = true
}

// HasType reports whether the named type exists on this worker.
func (w *Worker) HasType(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.types[name]
}

// Log returns the statements executed on this worker, in order.
func (w *Worker) Log() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.log))
	copy(out, w.log)
	return out
}

func (w *Worker) exec(sql string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailContains != "" && strings.Contains(sql, w.FailContains) {
		return errors.Newf("injected failure executing %q", sql)
	}
	w.log = append(w.log, sql)
	if name, ok := createdTypeName(sql); ok {
		w.types[name] = true
	}
	return nil
}

// createdTypeName extracts the type identifier from a CREATE TYPE statement,
// enough for existence bookkeeping in tests.
func createdTypeName(sql string) (string, bool) {
	const prefix = "CREATE TYPE "
	if !strings.HasPrefix(sql, prefix) {
		return "", false
	}
	rest := sql[len(prefix):]
	if i := strings.Index(rest, " AS"); i > 0 {
		return rest[:i], true
	}
	return "", false
}

// Dialer is an in-memory cluster.Dialer handing out connections to its
// Workers. It tracks how many connections were opened and whether each was
// closed.
type Dialer struct {
	Workers []*Worker

	// DialErr, when set, makes every Dial fail.
	DialErr error

	mu    sync.Mutex
	conns []*Conn
}

var _ cluster.Dialer = (*Dialer)(nil)

// Dial implements cluster.Dialer.
func (d *Dialer) Dial(_ context.Context, node cluster.WorkerNode) (cluster.Conn, error) {
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	for _, w := range d.Workers {
		if w.Node.ID == node.ID {
			conn := &Conn{worker: w}
			d.mu.Lock()
			d.conns = append(d.conns, conn)
			d.mu.Unlock()
			return conn, nil
		}
	}
	return nil, errors.Newf("no such worker node %s", node.Addr())
}

// Nodes returns a NodeSource listing every worker.
func (d *Dialer) Nodes() cluster.NodeSource {
	nodes := make(cluster.StaticNodes, 0, len(d.Workers))
	for _, w := range d.Workers {
		nodes = append(nodes, w.Node)
	}
	return nodes
}

// OpenedConns returns every connection ever handed out.
func (d *Dialer) OpenedConns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Conn, len(d.conns))
	copy(out, d.conns)
	return out
}

// AllClosed reports whether every handed-out connection was closed.
func (d *Dialer) AllClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, conn := range d.conns {
		if !conn.Closed() {
			return false
		}
	}
	return true
}

// Conn is an in-memory cluster.Conn bound to one Worker.
type Conn struct {
	worker *Worker

	mu     sync.Mutex
	closed bool
}

var _ cluster.Conn = (*Conn)(nil)

// Exec implements cluster.Conn.
func (c *Conn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, c.worker.exec(sql)
}

// QueryRow implements cluster.Conn. Only the type existence probe used by
// idempotent creation is understood.
func (c *Conn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "to_regtype") && len(args) == 1 {
		name, _ := args[0].(string)
		return boolRow{value: c.worker.HasType(name)}
	}
	return errRow{err: errors.Newf("unexpected query %q", sql)}
}

// Close implements cluster.Conn.
func (c *Conn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Node implements cluster.Conn.
func (c *Conn) Node() cluster.WorkerNode {
	return c.worker.Node
}

type boolRow struct {
	value bool
}

func (r boolRow) Scan(dest ...any) error {
	if len(dest) != 1 {
		return errors.Newf("expected one destination, got %d", len(dest))
	}
	b, ok := dest[0].(*bool)
	if !ok {
		return errors.Newf("expected *bool destination, got %T", dest[0])
	}
	*b = r.value
	return nil
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
