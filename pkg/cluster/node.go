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

// Package cluster tracks the worker nodes of a pgfleet installation and
// executes DDL commands on them over dedicated connections.
package cluster

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// WorkerNode identifies one worker by its connection endpoint.
type WorkerNode struct {
	ID   int64
	Host string
	Port int
}

// Addr returns host:port, the node's identity in logs and metrics.
func (n WorkerNode) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// NodeSource lists the worker nodes that must receive propagated DDL.
type NodeSource interface {
	// ActiveNodes returns every node currently accepting DDL, in a stable
	// order. Callers lock the node set at a higher level; the source itself
	// performs a plain read.
	ActiveNodes(ctx context.Context) ([]WorkerNode, error)
}

// StaticNodes is a fixed NodeSource, used by tests and by single-shot CLI
// invocations that pass workers on the command line.
type StaticNodes []WorkerNode

var _ NodeSource = StaticNodes(nil)

// ActiveNodes implements NodeSource.
func (s StaticNodes) ActiveNodes(context.Context) ([]WorkerNode, error) {
	out := make([]WorkerNode, len(s))
	copy(out, s)
	return out, nil
}

// NodeTableDDL creates the node table on the coordinator.
const NodeTableDDL = `
CREATE SCHEMA IF NOT EXISTS pgfleet;
CREATE TABLE IF NOT EXISTS pgfleet.node (
    nodeid   bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    nodehost text    NOT NULL,
    nodeport integer NOT NULL,
    isactive boolean NOT NULL DEFAULT true,
    UNIQUE (nodehost, nodeport)
);
`

// PGQuerier is the subset of pgx methods PGNodeSource needs.
type PGQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGNodeSource reads the node set from the pgfleet.node table on the
// coordinator.
type PGNodeSource struct {
	q PGQuerier
}

var _ NodeSource = (*PGNodeSource)(nil)

// NewPGNodeSource returns a PGNodeSource reading through q.
func NewPGNodeSource(q PGQuerier) *PGNodeSource {
	return &PGNodeSource{q: q}
}

// ActiveNodes implements NodeSource. Nodes come back ordered by id so every
// caller visits workers in the same order.
func (s *PGNodeSource) ActiveNodes(ctx context.Context) ([]WorkerNode, error) {
	rows, err := s.q.Query(ctx,
		`SELECT nodeid, nodehost, nodeport
		   FROM pgfleet.node
		  WHERE isactive
		  ORDER BY nodeid`)
	if err != nil {
		return nil, errors.Wrap(err, "listing worker nodes")
	}
	defer rows.Close()

	var nodes []WorkerNode
	for rows.Next() {
		var n WorkerNode
		if err := rows.Scan(&n.ID, &n.Host, &n.Port); err != nil {
			return nil, errors.Wrap(err, "scanning worker node")
		}
		nodes = append(nodes, n)
	}
	return nodes, errors.Wrap(rows.Err(), "listing worker nodes")
}

// AddNode registers a worker endpoint, activating it if it was previously
// deactivated.
func (s *PGNodeSource) AddNode(ctx context.Context, host string, port int) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO pgfleet.node (nodehost, nodeport)
		 VALUES ($1, $2)
		 ON CONFLICT (nodehost, nodeport) DO UPDATE SET isactive = true`,
		host, port)
	return errors.Wrapf(err, "adding worker node %s:%d", host, port)
}

// DeactivateNode marks a worker as inactive so propagation skips it.
func (s *PGNodeSource) DeactivateNode(ctx context.Context, host string, port int) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE pgfleet.node SET isactive = false
		  WHERE nodehost = $1 AND nodeport = $2`,
		host, port)
	if err != nil {
		return errors.Wrapf(err, "deactivating worker node %s:%d", host, port)
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf("worker node %s:%d is not registered", host, port)
	}
	return nil
}
