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

// Package catalog defines how pgfleet addresses and introspects database
// objects on the coordinator. The Catalog interface is the read-only window
// onto the coordinator's system catalogs; the production implementation in
// pkg/catalog/pgcatalog reads them over a live connection, while tests use
// the in-memory fake in pkg/testutils/testcat.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrObjectNotFound is returned when a name or oid does not resolve to a
// live object. Callers must not retry without fixing the reference.
var ErrObjectNotFound = errors.New("object not found")

// CompositeAttribute describes one attribute of a composite type as needed
// to recreate the type elsewhere. TypeName is the qualified display name of
// the attribute's type; Collation is the qualified collation name, or empty
// when the attribute uses the type's default collation.
type CompositeAttribute struct {
	Name      string
	TypeName  string
	Collation string
}

// Catalog is the read-only catalog introspection contract. All reads observe
// live catalog state within the caller's transaction; implementations must
// not cache dependency information between calls.
type Catalog interface {
	// DependencyEdges returns every recorded dependency edge out of the
	// given object, regardless of strength.
	DependencyEdges(ctx context.Context, from ObjectAddress) ([]DependencyEdge, error)

	// ObjectIdentity returns the installation-independent qualified identity
	// of an object, e.g. "public.address_t" for a type. Fails only for
	// invalid addresses.
	ObjectIdentity(ctx context.Context, addr ObjectAddress) (string, error)

	// LookupTypeOID resolves a possibly-qualified type name. Returns
	// ErrObjectNotFound if no such type exists.
	LookupTypeOID(ctx context.Context, qualifiedName string) (ObjectID, error)

	// LookupSchemaOID resolves a schema by its single-part name. Returns
	// ErrObjectNotFound if no such schema exists.
	LookupSchemaOID(ctx context.Context, name string) (ObjectID, error)

	// LookupRelationOID resolves a relation within a schema. Returns
	// ErrObjectNotFound if no such relation exists.
	LookupRelationOID(ctx context.Context, schema, name string) (ObjectID, error)

	// LookupFunctionOID resolves a function by its textual signature, e.g.
	// "public.fn(integer, text)". Returns ErrObjectNotFound if no such
	// function exists.
	LookupFunctionOID(ctx context.Context, signature string) (ObjectID, error)

	// TypeKind reports whether a type is an enum, a composite, or anything
	// else.
	TypeKind(ctx context.Context, typeID ObjectID) (TypeKind, error)

	// SchemaName returns the name of a schema by oid.
	SchemaName(ctx context.Context, schemaID ObjectID) (string, error)

	// SchemaOwner returns the role owning a schema.
	SchemaOwner(ctx context.Context, schemaID ObjectID) (string, error)

	// CompositeAttributes returns the non-dropped attributes of a composite
	// type in attribute-number order.
	CompositeAttributes(ctx context.Context, typeID ObjectID) ([]CompositeAttribute, error)

	// EnumLabels returns the labels of an enum type in sort order.
	EnumLabels(ctx context.Context, typeID ObjectID) ([]string, error)

	// CurrentSchema returns the schema new objects are created in for the
	// current session, used to qualify bare names before propagation.
	CurrentSchema(ctx context.Context) (string, error)
}
