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

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// Store is the persistence contract for the distributed-object registry.
// Insert must be idempotent: re-inserting an existing (classID, identifier)
// pair is a no-op, not an error. Exists must observe inserts made earlier in
// the same transaction.
type Store interface {
	Insert(ctx context.Context, classID catalog.ClassID, objectID catalog.ObjectID, identifier string) error
	Exists(ctx context.Context, classID catalog.ClassID, identifier string) (bool, error)
	Delete(ctx context.Context, classID catalog.ClassID, identifier string) error
}

// Registry is the single source of truth for "has this object been
// propagated to every worker". It records objects by their portable identity
// and answers membership queries for local addresses by computing that
// identity on the fly.
type Registry struct {
	cat   catalog.Catalog
	store Store
}

// NewRegistry returns a Registry recording into store, using cat to compute
// portable identities.
func NewRegistry(cat catalog.Catalog, store Store) *Registry {
	return &Registry{cat: cat, store: store}
}

// Record marks the object as distributed. Recording an already-recorded
// object is a no-op; callers rely on re-propagation being safe.
func (r *Registry) Record(ctx context.Context, addr catalog.ObjectAddress) error {
	identity, err := r.cat.ObjectIdentity(ctx, addr)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, addr.ClassID, addr.ObjectID, identity)
}

// IsDistributed reports whether the object has been recorded as distributed.
func (r *Registry) IsDistributed(ctx context.Context, addr catalog.ObjectAddress) (bool, error) {
	identity, err := r.cat.ObjectIdentity(ctx, addr)
	if err != nil {
		return false, err
	}
	return r.store.Exists(ctx, addr.ClassID, identity)
}

// Unrecord removes the object from the registry. Must run while the object
// still exists locally, since computing its identity needs the catalog entry.
// Unrecording an object that was never recorded is a no-op.
func (r *Registry) Unrecord(ctx context.Context, addr catalog.ObjectAddress) error {
	identity, err := r.cat.ObjectIdentity(ctx, addr)
	if err != nil {
		return err
	}
	return r.store.Delete(ctx, addr.ClassID, identity)
}
