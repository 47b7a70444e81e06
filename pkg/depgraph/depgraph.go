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

// Package depgraph walks the coordinator's object dependency graph to
// determine which objects must exist on a worker, and in what order, before
// a target object can be created there.
package depgraph

import (
	"context"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// DistributedSet answers whether an object is already recorded as present on
// every worker. distobject.Registry is the production implementation.
type DistributedSet interface {
	IsDistributed(ctx context.Context, addr catalog.ObjectAddress) (bool, error)
}

// Walker discovers the prerequisites of an object by recursively following
// dependency edges. Every walk reads live catalog state; nothing is cached
// between calls, since dependency edges change as DDL executes.
//
// The dependency graph restricted to the supported classes (schemas, enum
// and composite types) is assumed to be acyclic. A cycle would recurse
// forever; that is a corrupted catalog, not a case this walker defends
// against.
type Walker struct {
	Catalog     catalog.Catalog
	Distributed DistributedSet
}

// DependenciesFor returns the objects that must be created, in order, before
// target can safely be created on a worker. The result is a valid linear
// extension of the dependency graph: every prerequisite of an entry appears
// strictly before it. Objects that are already distributed, owned by an
// extension, or of an unsupported class are skipped along with their
// subtrees. The target itself is never included.
//
// Some returned objects may already exist on a subset of workers, so their
// creation commands must be idempotent.
func (w *Walker) DependenciesFor(
	ctx context.Context, target catalog.ObjectAddress,
) ([]catalog.ObjectAddress, error) {
	var deps []catalog.ObjectAddress
	if err := w.collect(ctx, target, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (w *Walker) collect(
	ctx context.Context, target catalog.ObjectAddress, acc *[]catalog.ObjectAddress,
) error {
	edges, err := w.Catalog.DependencyEdges(ctx, target)
	if err != nil {
		return err
	}

	// Dependencies are traversed depth first, appending each prerequisite
	// only after its own prerequisites. Edges we do not support creation for
	// are skipped and assumed to be satisfied on the workers by some other
	// process (extension installation, earlier propagation).
	for _, edge := range edges {
		if edge.DepType != catalog.DepNormal {
			continue
		}
		// A column-level reference requires the whole object, so the walk
		// tracks whole-object addresses only.
		dep := edge.Ref
		dep.SubID = 0
		if addressPresent(dep, *acc) {
			continue
		}
		follow, err := w.shouldFollow(ctx, dep)
		if err != nil {
			return err
		}
		if !follow {
			continue
		}

		if err := w.collect(ctx, dep, acc); err != nil {
			return err
		}
		*acc = append(*acc, dep)
	}
	return nil
}

// shouldFollow decides whether a prerequisite needs to be created on the
// workers, and therefore whether its own subtree needs traversal.
func (w *Walker) shouldFollow(ctx context.Context, dep catalog.ObjectAddress) (bool, error) {
	// Objects with a dependency on an extension are created by that
	// extension on each worker; never propagate them independently.
	owned, err := w.ownedByExtension(ctx, dep)
	if err != nil {
		return false, err
	}
	if owned {
		return false, nil
	}

	// Already-distributed objects only need to be propagated once.
	distributed, err := w.Distributed.IsDistributed(ctx, dep)
	if err != nil {
		return false, err
	}
	if distributed {
		return false, nil
	}

	switch dep.Class() {
	case catalog.ClassSchema:
		return true, nil

	case catalog.ClassType:
		kind, err := w.Catalog.TypeKind(ctx, dep.ObjectID)
		if err != nil {
			return false, err
		}
		switch kind {
		case catalog.TypeKindEnum, catalog.TypeKindComposite:
			return true, nil
		default:
			return false, nil
		}

	default:
		return false, nil
	}
}

// ownedByExtension reports whether the object has any extension-strength
// dependency edge, meaning it came into existence via CREATE EXTENSION.
func (w *Walker) ownedByExtension(ctx context.Context, addr catalog.ObjectAddress) (bool, error) {
	edges, err := w.Catalog.DependencyEdges(ctx, addr)
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		if edge.DepType == catalog.DepExtension {
			return true, nil
		}
	}
	return false, nil
}

// addressPresent reports whether the object is already in the accumulated
// list. Collected addresses are whole-object, so sub-ids do not participate.
func addressPresent(addr catalog.ObjectAddress, list []catalog.ObjectAddress) bool {
	for _, cur := range list {
		if addr.ClassID == cur.ClassID && addr.ObjectID == cur.ObjectID {
			return true
		}
	}
	return false
}
