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

// Package testcat provides an in-memory catalog.Catalog for tests, populated
// through builder methods instead of a live database.
package testcat

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/deparse"
)

// Catalog is an in-memory catalog.Catalog. The zero value is not usable;
// construct with New.
type Catalog struct {
	edges         map[catalog.ObjectAddress][]catalog.DependencyEdge
	identities    map[catalog.ObjectAddress]string
	typesByName   map[string]catalog.ObjectID
	typeKinds     map[catalog.ObjectID]catalog.TypeKind
	schemasByName map[string]catalog.ObjectID
	schemaNames   map[catalog.ObjectID]string
	schemaOwners  map[catalog.ObjectID]string
	relations     map[string]catalog.ObjectID
	functions     map[string]catalog.ObjectID
	composites    map[catalog.ObjectID][]catalog.CompositeAttribute
	enums         map[catalog.ObjectID][]string
	currentSchema string
}

var _ catalog.Catalog = (*Catalog)(nil)

// New returns an empty Catalog whose current schema is "public".
func New() *Catalog {
	return &Catalog{
		edges:         make(map[catalog.ObjectAddress][]catalog.DependencyEdge),
		identities:    make(map[catalog.ObjectAddress]string),
		typesByName:   make(map[string]catalog.ObjectID),
		typeKinds:     make(map[catalog.ObjectID]catalog.TypeKind),
		schemasByName: make(map[string]catalog.ObjectID),
		schemaNames:   make(map[catalog.ObjectID]string),
		schemaOwners:  make(map[catalog.ObjectID]string),
		relations:     make(map[string]catalog.ObjectID),
		functions:     make(map[string]catalog.ObjectID),
		composites:    make(map[catalog.ObjectID][]catalog.CompositeAttribute),
		enums:         make(map[catalog.ObjectID][]string),
		currentSchema: "public",
	}
}

// SetCurrentSchema changes the schema reported by CurrentSchema.
func (c *Catalog) SetCurrentSchema(name string) { c.currentSchema = name }

// AddSchema registers a schema.
func (c *Catalog) AddSchema(id catalog.ObjectID, name, owner string) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.NamespaceRelationID, id)
	c.schemasByName[name] = id
	c.schemaNames[id] = name
	c.schemaOwners[id] = owner
	c.identities[addr] = name
	return addr
}

// AddEnumType registers an enum type under the given schema. Like the type
// name parser on the server, lookups resolve the quoted spelling, and the
// identity is the quoted qualified name.
func (c *Catalog) AddEnumType(
	id catalog.ObjectID, schema, name string, labels ...string,
) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.TypeRelationID, id)
	qualified := deparse.QuoteQualifiedIdentifier(schema, name)
	c.typesByName[qualified] = id
	c.typesByName[deparse.QuoteIdentifier(name)] = id
	c.typeKinds[id] = catalog.TypeKindEnum
	c.enums[id] = labels
	c.identities[addr] = qualified
	return addr
}

// AddCompositeType registers a composite type under the given schema,
// resolvable and identified like AddEnumType.
func (c *Catalog) AddCompositeType(
	id catalog.ObjectID, schema, name string, attrs ...catalog.CompositeAttribute,
) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.TypeRelationID, id)
	qualified := deparse.QuoteQualifiedIdentifier(schema, name)
	c.typesByName[qualified] = id
	c.typesByName[deparse.QuoteIdentifier(name)] = id
	c.typeKinds[id] = catalog.TypeKindComposite
	c.composites[id] = attrs
	c.identities[addr] = qualified
	return addr
}

// AddBaseType registers a type that is neither enum nor composite.
func (c *Catalog) AddBaseType(id catalog.ObjectID, name string) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.TypeRelationID, id)
	c.typesByName[name] = id
	c.typeKinds[id] = catalog.TypeKindOther
	c.identities[addr] = name
	return addr
}

// AddTypeName registers an additional lookup name for an existing type,
// like the pg_catalog spellings the parser substitutes for builtin types.
func (c *Catalog) AddTypeName(name string, id catalog.ObjectID) {
	c.typesByName[name] = id
}

// AddRelation registers a relation under the given schema.
func (c *Catalog) AddRelation(id catalog.ObjectID, schema, name string) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.RelationRelationID, id)
	c.relations[schema+"."+name] = id
	c.identities[addr] = schema + "." + name
	return addr
}

// AddFunction registers a function by its textual signature.
func (c *Catalog) AddFunction(id catalog.ObjectID, signature string) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.ProcRelationID, id)
	c.functions[signature] = id
	c.identities[addr] = signature
	return addr
}

// AddExtension registers an extension object, usable as the target of
// extension-strength dependency edges.
func (c *Catalog) AddExtension(id catalog.ObjectID, name string) catalog.ObjectAddress {
	addr := catalog.MakeObjectAddress(catalog.ExtensionRelationID, id)
	c.identities[addr] = name
	return addr
}

// AddDependency records a dependency edge "from requires to".
func (c *Catalog) AddDependency(
	from, to catalog.ObjectAddress, depType catalog.DepType,
) {
	c.edges[from] = append(c.edges[from], catalog.DependencyEdge{Ref: to, DepType: depType})
}

// DependencyEdges implements catalog.Catalog.
func (c *Catalog) DependencyEdges(
	_ context.Context, from catalog.ObjectAddress,
) ([]catalog.DependencyEdge, error) {
	return c.edges[from], nil
}

// ObjectIdentity implements catalog.Catalog.
func (c *Catalog) ObjectIdentity(
	_ context.Context, addr catalog.ObjectAddress,
) (string, error) {
	// Column references share the whole object's identity.
	whole := catalog.MakeObjectAddress(addr.ClassID, addr.ObjectID)
	identity, ok := c.identities[whole]
	if !ok {
		return "", errors.Wrapf(catalog.ErrObjectNotFound, "identity of %s", addr)
	}
	return identity, nil
}

// LookupTypeOID implements catalog.Catalog.
func (c *Catalog) LookupTypeOID(
	_ context.Context, qualifiedName string,
) (catalog.ObjectID, error) {
	id, ok := c.typesByName[qualifiedName]
	if !ok {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "type %q", qualifiedName)
	}
	return id, nil
}

// LookupSchemaOID implements catalog.Catalog.
func (c *Catalog) LookupSchemaOID(
	_ context.Context, name string,
) (catalog.ObjectID, error) {
	id, ok := c.schemasByName[name]
	if !ok {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "schema %q", name)
	}
	return id, nil
}

// LookupRelationOID implements catalog.Catalog.
func (c *Catalog) LookupRelationOID(
	_ context.Context, schema, name string,
) (catalog.ObjectID, error) {
	id, ok := c.relations[schema+"."+name]
	if !ok {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "relation %q.%q", schema, name)
	}
	return id, nil
}

// LookupFunctionOID implements catalog.Catalog.
func (c *Catalog) LookupFunctionOID(
	_ context.Context, signature string,
) (catalog.ObjectID, error) {
	id, ok := c.functions[signature]
	if !ok {
		return catalog.InvalidObjectID,
			errors.Wrapf(catalog.ErrObjectNotFound, "function %q", signature)
	}
	return id, nil
}

// TypeKind implements catalog.Catalog.
func (c *Catalog) TypeKind(
	_ context.Context, typeID catalog.ObjectID,
) (catalog.TypeKind, error) {
	kind, ok := c.typeKinds[typeID]
	if !ok {
		return catalog.TypeKindOther,
			errors.Wrapf(catalog.ErrObjectNotFound, "type oid %d", typeID)
	}
	return kind, nil
}

// SchemaName implements catalog.Catalog.
func (c *Catalog) SchemaName(
	_ context.Context, schemaID catalog.ObjectID,
) (string, error) {
	name, ok := c.schemaNames[schemaID]
	if !ok {
		return "", errors.Wrapf(catalog.ErrObjectNotFound, "schema oid %d", schemaID)
	}
	return name, nil
}

// SchemaOwner implements catalog.Catalog.
func (c *Catalog) SchemaOwner(
	_ context.Context, schemaID catalog.ObjectID,
) (string, error) {
	owner, ok := c.schemaOwners[schemaID]
	if !ok {
		return "", errors.Wrapf(catalog.ErrObjectNotFound, "schema oid %d", schemaID)
	}
	return owner, nil
}

// CompositeAttributes implements catalog.Catalog.
func (c *Catalog) CompositeAttributes(
	_ context.Context, typeID catalog.ObjectID,
) ([]catalog.CompositeAttribute, error) {
	attrs, ok := c.composites[typeID]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrObjectNotFound, "composite type oid %d", typeID)
	}
	return attrs, nil
}

// EnumLabels implements catalog.Catalog.
func (c *Catalog) EnumLabels(
	_ context.Context, typeID catalog.ObjectID,
) ([]string, error) {
	labels, ok := c.enums[typeID]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrObjectNotFound, "enum type oid %d", typeID)
	}
	return labels, nil
}

// CurrentSchema implements catalog.Catalog.
func (c *Catalog) CurrentSchema(context.Context) (string, error) {
	return c.currentSchema, nil
}
