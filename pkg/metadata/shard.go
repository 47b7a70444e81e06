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

// Package metadata records where the shards of distributed tables are
// placed, so maintenance commands can be fanned out to the right workers.
package metadata

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
)

// ShardTableDDL creates the shard placement table on the coordinator.
const ShardTableDDL = `
CREATE SCHEMA IF NOT EXISTS pgfleet;
CREATE TABLE IF NOT EXISTS pgfleet.shard (
    shardid    bigint  PRIMARY KEY,
    relid      oid     NOT NULL,
    nodeid     bigint  NOT NULL REFERENCES pgfleet.node (nodeid)
);
`

// ShardPlacement locates one shard of a distributed table. The shard's
// physical relation on the worker is named <table>_<shardid> inside the
// table's own schema.
type ShardPlacement struct {
	ShardID    int64
	SchemaName string
	TableName  string
	Node       cluster.WorkerNode
}

// ShardSource lists the shard placements of a distributed table.
type ShardSource interface {
	PlacementsFor(ctx context.Context, rel catalog.ObjectID) ([]ShardPlacement, error)
}

// PGShardSource reads placements from the pgfleet.shard table, resolving
// table names through the system catalogs at read time so renames are
// picked up.
type PGShardSource struct {
	q cluster.PGQuerier
}

var _ ShardSource = (*PGShardSource)(nil)

// NewPGShardSource returns a PGShardSource reading through q.
func NewPGShardSource(q cluster.PGQuerier) *PGShardSource {
	return &PGShardSource{q: q}
}

// PlacementsFor implements ShardSource.
func (s *PGShardSource) PlacementsFor(
	ctx context.Context, rel catalog.ObjectID,
) ([]ShardPlacement, error) {
	rows, err := s.q.Query(ctx,
		`SELECT s.shardid, n.nspname, c.relname, w.nodeid, w.nodehost, w.nodeport
		   FROM pgfleet.shard s
		   JOIN pgfleet.node w ON w.nodeid = s.nodeid AND w.isactive
		   JOIN pg_catalog.pg_class c ON c.oid = s.relid
		   JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		  WHERE s.relid = $1
		  ORDER BY s.shardid`,
		uint32(rel))
	if err != nil {
		return nil, errors.Wrapf(err, "listing shard placements for relation %d", rel)
	}
	defer rows.Close()

	var placements []ShardPlacement
	for rows.Next() {
		var p ShardPlacement
		if err := rows.Scan(&p.ShardID, &p.SchemaName, &p.TableName,
			&p.Node.ID, &p.Node.Host, &p.Node.Port); err != nil {
			return nil, errors.Wrap(err, "scanning shard placement")
		}
		placements = append(placements, p)
	}
	return placements, errors.Wrapf(rows.Err(), "listing shard placements for relation %d", rel)
}

// MemShardSource is an in-memory ShardSource for tests.
type MemShardSource struct {
	mu         sync.Mutex
	placements map[catalog.ObjectID][]ShardPlacement
}

var _ ShardSource = (*MemShardSource)(nil)

// NewMemShardSource returns an empty MemShardSource.
func NewMemShardSource() *MemShardSource {
	return &MemShardSource{placements: make(map[catalog.ObjectID][]ShardPlacement)}
}

// AddPlacement registers a placement for a relation.
func (s *MemShardSource) AddPlacement(rel catalog.ObjectID, p ShardPlacement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placements[rel] = append(s.placements[rel], p)
}

// PlacementsFor implements ShardSource.
func (s *MemShardSource) PlacementsFor(
	_ context.Context, rel catalog.ObjectID,
) ([]ShardPlacement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ShardPlacement, len(s.placements[rel]))
	copy(out, s.placements[rel])
	return out, nil
}
