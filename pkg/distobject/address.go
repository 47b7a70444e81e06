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

// Package distobject tracks which database objects have been propagated to
// every worker node. Objects are addressed portably by class and qualified
// identifier, since numeric oids are not stable across independently
// initialized installations.
package distobject

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// ErrUnsupportedClass is returned when a portable address carries an object
// class this subsystem cannot resolve. This is a programming or protocol
// error, never silently ignored.
var ErrUnsupportedClass = errors.New("unsupported object class")

// Address is the portable, installation-independent counterpart of a
// catalog.ObjectAddress: the class of the object plus its qualified textual
// identity. An Address constructed on the coordinator resolves to the same
// object on any worker that has it.
type Address struct {
	ClassID    catalog.ClassID
	Identifier string
}

// AddressFor maps a local object address to its portable form by reading the
// object's canonical qualified identity from the catalog.
func AddressFor(
	ctx context.Context, cat catalog.Catalog, addr catalog.ObjectAddress,
) (Address, error) {
	identity, err := cat.ObjectIdentity(ctx, addr)
	if err != nil {
		return Address{}, err
	}
	return Address{ClassID: addr.ClassID, Identifier: identity}, nil
}

// Resolve maps the portable address back to a local object address. The set
// of resolvable classes is a closed enumeration: schemas resolve by their
// single-part name, types through the type name parser. Any other class
// fails with ErrUnsupportedClass; an identifier that does not name a live
// object fails with catalog.ErrObjectNotFound.
func (a Address) Resolve(
	ctx context.Context, cat catalog.Catalog,
) (catalog.ObjectAddress, error) {
	switch a.ClassID {
	case catalog.TypeRelationID:
		typeID, err := cat.LookupTypeOID(ctx, a.Identifier)
		if err != nil {
			return catalog.ObjectAddress{}, err
		}
		return catalog.MakeObjectAddress(catalog.TypeRelationID, typeID), nil

	case catalog.NamespaceRelationID:
		schemaID, err := cat.LookupSchemaOID(ctx, a.Identifier)
		if err != nil {
			return catalog.ObjectAddress{}, err
		}
		return catalog.MakeObjectAddress(catalog.NamespaceRelationID, schemaID), nil

	default:
		return catalog.ObjectAddress{},
			errors.Wrapf(ErrUnsupportedClass, "class %d", a.ClassID)
	}
}
