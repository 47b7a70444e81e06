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

package distobject

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// BootstrapDDL creates the registry table on the coordinator. The objid
// column keeps the local oid for operator convenience; equality lookups go
// through (classid, identifier), which is also the uniqueness key, so the
// registry survives oid churn across dump/restore.
const BootstrapDDL = `
CREATE SCHEMA IF NOT EXISTS pgfleet;
CREATE TABLE IF NOT EXISTS pgfleet.distributed_object (
    classid    oid  NOT NULL,
    objid      oid  NOT NULL,
    identifier text NOT NULL,
    UNIQUE (classid, identifier)
);
`

// PGQuerier is the subset of pgx methods PGStore needs; *pgx.Conn, pgx.Tx
// and *pgxpool.Pool all satisfy it.
type PGQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists the registry in the pgfleet.distributed_object table on
// the coordinator. Runs on whatever connection or transaction the querier
// wraps, so registry writes commit and roll back with the caller's
// transaction.
type PGStore struct {
	q PGQuerier
}

var _ Store = (*PGStore)(nil)

// NewPGStore returns a PGStore writing through q.
func NewPGStore(q PGQuerier) *PGStore {
	return &PGStore{q: q}
}

// Insert implements Store. Duplicate inserts resolve via the unique
// constraint as a benign no-op.
func (s *PGStore) Insert(
	ctx context.Context, classID catalog.ClassID, objectID catalog.ObjectID, identifier string,
) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO pgfleet.distributed_object (classid, objid, identifier)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (classid, identifier) DO NOTHING`,
		uint32(classID), uint32(objectID), identifier)
	return errors.Wrapf(err, "recording distributed object %q", identifier)
}

// Delete implements Store.
func (s *PGStore) Delete(
	ctx context.Context, classID catalog.ClassID, identifier string,
) error {
	_, err := s.q.Exec(ctx,
		`DELETE FROM pgfleet.distributed_object
		  WHERE classid = $1 AND identifier = $2`,
		uint32(classID), identifier)
	return errors.Wrapf(err, "unrecording distributed object %q", identifier)
}

// Exists implements Store.
func (s *PGStore) Exists(
	ctx context.Context, classID catalog.ClassID, identifier string,
) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM pgfleet.distributed_object
		     WHERE classid = $1 AND identifier = $2)`,
		uint32(classID), identifier,
	).Scan(&exists)
	return exists, errors.Wrapf(err, "looking up distributed object %q", identifier)
}
