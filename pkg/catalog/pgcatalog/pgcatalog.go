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

// Package pgcatalog implements catalog.Catalog against a live PostgreSQL
// coordinator using the pg_depend, pg_type, pg_namespace, pg_attribute and
// pg_enum system catalogs.
package pgcatalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// Querier is the subset of pgx query methods this package needs. Both
// *pgx.Conn and *pgxpool.Pool satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Catalog reads the coordinator's system catalogs. All queries run on the
// provided Querier, so a caller holding a transaction sees its own
// uncommitted catalog changes.
type Catalog struct {
	q Querier
}

var _ catalog.Catalog = (*Catalog)(nil)

// New returns a Catalog reading through q.
func New(q Querier) *Catalog {
	return &Catalog{q: q}
}

// DependencyEdges implements catalog.Catalog.
func (c *Catalog) DependencyEdges(
	ctx context.Context, from catalog.ObjectAddress,
) ([]catalog.DependencyEdge, error) {
	rows, err := c.q.Query(ctx,
		`SELECT refclassid, refobjid, refobjsubid, deptype
		   FROM pg_catalog.pg_depend
		  WHERE classid = $1 AND objid = $2`,
		uint32(from.ClassID), uint32(from.ObjectID))
	if err != nil {
		return nil, errors.Wrapf(err, "reading dependency edges of %s", from)
	}
	defer rows.Close()

	var edges []catalog.DependencyEdge
	for rows.Next() {
		var refClass, refObj uint32
		var refSub int32
		var depType string
		if err := rows.Scan(&refClass, &refObj, &refSub, &depType); err != nil {
			return nil, err
		}
		edge := catalog.DependencyEdge{
			Ref: catalog.ObjectAddress{
				ClassID:  catalog.ClassID(refClass),
				ObjectID: catalog.ObjectID(refObj),
				SubID:    refSub,
			},
		}
		if len(depType) == 1 {
			edge.DepType = catalog.DepType(depType[0])
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// ObjectIdentity implements catalog.Catalog using pg_identify_object, which
// produces the same qualified identity string on any compatible installation.
func (c *Catalog) ObjectIdentity(
	ctx context.Context, addr catalog.ObjectAddress,
) (string, error) {
	var identity string
	err := c.q.QueryRow(ctx,
		`SELECT identity FROM pg_catalog.pg_identify_object($1, $2, $3)`,
		uint32(addr.ClassID), uint32(addr.ObjectID), addr.SubID,
	).Scan(&identity)
	if err != nil {
		return "", errors.Wrapf(err, "identifying object %s", addr)
	}
	return identity, nil
}

// LookupTypeOID implements catalog.Catalog. The name goes through the
// server's type name parser, so qualified and search-path-relative names both
// resolve.
func (c *Catalog) LookupTypeOID(
	ctx context.Context, qualifiedName string,
) (catalog.ObjectID, error) {
	var oid *uint32
	err := c.q.QueryRow(ctx,
		`SELECT pg_catalog.to_regtype($1)::oid`, qualifiedName,
	).Scan(&oid)
	if err != nil {
		return catalog.InvalidObjectID, errors.Wrapf(err, "resolving type %q", qualifiedName)
	}
	if oid == nil {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "type %q", qualifiedName)
	}
	return catalog.ObjectID(*oid), nil
}

// LookupSchemaOID implements catalog.Catalog.
func (c *Catalog) LookupSchemaOID(
	ctx context.Context, name string,
) (catalog.ObjectID, error) {
	var oid uint32
	err := c.q.QueryRow(ctx,
		`SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = $1`, name,
	).Scan(&oid)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "schema %q", name)
	}
	if err != nil {
		return catalog.InvalidObjectID, errors.Wrapf(err, "resolving schema %q", name)
	}
	return catalog.ObjectID(oid), nil
}

// LookupRelationOID implements catalog.Catalog.
func (c *Catalog) LookupRelationOID(
	ctx context.Context, schema, name string,
) (catalog.ObjectID, error) {
	var oid uint32
	err := c.q.QueryRow(ctx,
		`SELECT c.oid
		   FROM pg_catalog.pg_class c
		   JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		  WHERE n.nspname = $1 AND c.relname = $2`,
		schema, name,
	).Scan(&oid)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "relation %q.%q", schema, name)
	}
	if err != nil {
		return catalog.InvalidObjectID, errors.Wrapf(err, "resolving relation %q.%q", schema, name)
	}
	return catalog.ObjectID(oid), nil
}

// LookupFunctionOID implements catalog.Catalog. The signature goes through
// the server's procedure name parser, so argument types may be written in
// any of their accepted spellings.
func (c *Catalog) LookupFunctionOID(
	ctx context.Context, signature string,
) (catalog.ObjectID, error) {
	var oid *uint32
	err := c.q.QueryRow(ctx,
		`SELECT pg_catalog.to_regprocedure($1)::oid`, signature,
	).Scan(&oid)
	if err != nil {
		return catalog.InvalidObjectID, errors.Wrapf(err, "resolving function %q", signature)
	}
	if oid == nil {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "function %q", signature)
	}
	return catalog.ObjectID(*oid), nil
}

// TypeKind implements catalog.Catalog.
func (c *Catalog) TypeKind(
	ctx context.Context, typeID catalog.ObjectID,
) (catalog.TypeKind, error) {
	var typType string
	err := c.q.QueryRow(ctx,
		`SELECT typtype FROM pg_catalog.pg_type WHERE oid = $1`, uint32(typeID),
	).Scan(&typType)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.TypeKindOther,
			errors.Wrapf(catalog.ErrObjectNotFound, "type oid %d", typeID)
	}
	if err != nil {
		return catalog.TypeKindOther, errors.Wrapf(err, "reading typtype of %d", typeID)
	}
	switch typType {
	case "e":
		return catalog.TypeKindEnum, nil
	case "c":
		return catalog.TypeKindComposite, nil
	default:
		return catalog.TypeKindOther, nil
	}
}

// SchemaName implements catalog.Catalog.
func (c *Catalog) SchemaName(
	ctx context.Context, schemaID catalog.ObjectID,
) (string, error) {
	var name string
	err := c.q.QueryRow(ctx,
		`SELECT nspname FROM pg_catalog.pg_namespace WHERE oid = $1`, uint32(schemaID),
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errors.Wrapf(catalog.ErrObjectNotFound, "schema oid %d", schemaID)
	}
	return name, err
}

// SchemaOwner implements catalog.Catalog.
func (c *Catalog) SchemaOwner(
	ctx context.Context, schemaID catalog.ObjectID,
) (string, error) {
	var owner string
	err := c.q.QueryRow(ctx,
		`SELECT pg_catalog.pg_get_userbyid(nspowner)
		   FROM pg_catalog.pg_namespace WHERE oid = $1`, uint32(schemaID),
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errors.Wrapf(catalog.ErrObjectNotFound, "schema oid %d", schemaID)
	}
	return owner, err
}

// CompositeAttributes implements catalog.Catalog. Dropped attributes are
// filtered out; collations are reported only when they differ from the
// attribute type's default collation.
func (c *Catalog) CompositeAttributes(
	ctx context.Context, typeID catalog.ObjectID,
) ([]catalog.CompositeAttribute, error) {
	rows, err := c.q.Query(ctx,
		`SELECT a.attname,
		        pg_catalog.format_type(a.atttypid, a.atttypmod),
		        COALESCE(
		            CASE WHEN a.attcollation <> at.typcollation
		                 THEN pg_catalog.quote_ident(cn.nspname) || '.' ||
		                      pg_catalog.quote_ident(co.collname)
		            END, '')
		   FROM pg_catalog.pg_type t
		   JOIN pg_catalog.pg_attribute a ON a.attrelid = t.typrelid
		   JOIN pg_catalog.pg_type at ON at.oid = a.atttypid
		   LEFT JOIN pg_catalog.pg_collation co ON co.oid = a.attcollation
		   LEFT JOIN pg_catalog.pg_namespace cn ON cn.oid = co.collnamespace
		  WHERE t.oid = $1 AND a.attnum > 0 AND NOT a.attisdropped
		  ORDER BY a.attnum`,
		uint32(typeID))
	if err != nil {
		return nil, errors.Wrapf(err, "reading attributes of type %d", typeID)
	}
	defer rows.Close()

	var attrs []catalog.CompositeAttribute
	for rows.Next() {
		var attr catalog.CompositeAttribute
		if err := rows.Scan(&attr.Name, &attr.TypeName, &attr.Collation); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, rows.Err()
}

// EnumLabels implements catalog.Catalog.
func (c *Catalog) EnumLabels(
	ctx context.Context, typeID catalog.ObjectID,
) ([]string, error) {
	rows, err := c.q.Query(ctx,
		`SELECT enumlabel FROM pg_catalog.pg_enum
		  WHERE enumtypid = $1 ORDER BY enumsortorder`,
		uint32(typeID))
	if err != nil {
		return nil, errors.Wrapf(err, "reading enum labels of type %d", typeID)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// CurrentSchema implements catalog.Catalog.
func (c *Catalog) CurrentSchema(ctx context.Context) (string, error) {
	var schema string
	err := c.q.QueryRow(ctx, `SELECT pg_catalog.current_schema()`).Scan(&schema)
	return schema, errors.Wrap(err, "reading current schema")
}
