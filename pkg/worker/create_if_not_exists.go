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

// Package worker implements the node-local half of DDL propagation: commands
// that must behave idempotently on a worker even though the underlying SQL
// statement does not support IF NOT EXISTS.
package worker

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfleet/pgfleet/pkg/deparse"
)

// ErrUnsupportedStatement is returned when a statement of an unexpected kind
// is submitted for idempotent creation. Only CREATE TYPE statements are
// accepted; everything else either supports IF NOT EXISTS natively or is not
// propagated this way.
var ErrUnsupportedStatement = errors.New("statement cannot be executed idempotently")

// Querier is the connection surface CreateIfNotExists needs; cluster.Conn
// and *pgx.Conn both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateIfNotExists executes a single CREATE TYPE statement, composite or
// enum, unless a type of that name already exists. It reports whether the
// statement was executed. Concurrent creation is not a concern: propagation
// holds an exclusive lock on the coordinator while this runs.
func CreateIfNotExists(ctx context.Context, q Querier, sql string) (bool, error) {
	typeName, err := statementTypeName(sql)
	if err != nil {
		return false, err
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT to_regtype($1) IS NOT NULL`, typeName).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "checking for existing type %s", typeName)
	}
	if exists {
		return false, nil
	}

	if _, err := q.Exec(ctx, sql); err != nil {
		return false, errors.Wrapf(err, "creating type %s", typeName)
	}
	return true, nil
}

// statementTypeName parses the statement and extracts the qualified name of
// the type it creates.
func statementTypeName(sql string) (string, error) {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return "", errors.Wrap(err, "parsing statement")
	}
	if len(result.Stmts) != 1 {
		return "", errors.Wrapf(ErrUnsupportedStatement,
			"expected a single statement, got %d", len(result.Stmts))
	}

	switch node := result.Stmts[0].Stmt.Node.(type) {
	case *pgquery.Node_CompositeTypeStmt:
		rel := node.CompositeTypeStmt.Typevar
		return deparse.QuoteQualifiedIdentifier(rel.Schemaname, rel.Relname), nil

	case *pgquery.Node_CreateEnumStmt:
		return deparse.QuoteNameList(node.CreateEnumStmt.TypeName), nil

	default:
		return "", errors.Wrapf(ErrUnsupportedStatement, "%T", result.Stmts[0].Stmt.Node)
	}
}
