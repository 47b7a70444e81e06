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

package commands

import (
	"context"

	"github.com/cockroachdb/errors"
	pgquery "github.com/pganalyze/pg_query_go/v6"
	"go.uber.org/zap"

	"github.com/pgfleet/pgfleet/pkg/catalog"
	"github.com/pgfleet/pgfleet/pkg/cluster"
	"github.com/pgfleet/pgfleet/pkg/deparse"
	"github.com/pgfleet/pgfleet/pkg/util/logutil"
)

// ProcessDropFunction propagates DROP FUNCTION for the distributed functions
// named by the statement. Runs before the local drop. The worker-side drop
// always carries IF EXISTS, since a function recorded as distributed may
// still be missing from a worker added after a failed repair.
func (p *Propagator) ProcessDropFunction(
	ctx context.Context, pc *PropagationContext, stmt *pgquery.DropStmt,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}

	var distributedFuncs []*pgquery.ObjectWithArgs
	for _, obj := range stmt.Objects {
		fn := obj.GetObjectWithArgs()
		if fn == nil {
			return errors.AssertionFailedf("DROP FUNCTION object is not an ObjectWithArgs")
		}
		sig, err := deparse.FunctionSignature(ctx, p.Catalog, fn)
		if err != nil {
			if errors.Is(err, catalog.ErrObjectNotFound) && stmt.MissingOk {
				continue
			}
			return err
		}
		funcID, err := p.Catalog.LookupFunctionOID(ctx, sig)
		if err != nil {
			if errors.Is(err, catalog.ErrObjectNotFound) && stmt.MissingOk {
				continue
			}
			return err
		}
		addr := catalog.MakeObjectAddress(catalog.ProcRelationID, funcID)
		distributed, err := p.Registry.IsDistributed(ctx, addr)
		if err != nil {
			return err
		}
		if !distributed {
			continue
		}
		if err := p.Registry.Unrecord(ctx, addr); err != nil {
			return err
		}
		distributedFuncs = append(distributedFuncs, fn)
	}
	if len(distributedFuncs) == 0 {
		return nil
	}

	sql, err := deparse.DropFunctionStmt(
		ctx, p.Catalog, distributedFuncs, stmt.Behavior, true /* missingOK */)
	if err != nil {
		return err
	}
	logutil.BgLogger().Info("propagating function drop",
		zap.Int("functions", len(distributedFuncs)))
	return p.executeOnAllWorkers(ctx, pc, []cluster.Command{{SQL: sql}})
}

// ProcessAlterFunction is a deliberate no-op beyond a warning: function
// bodies and properties are not tracked by the registry, so changes to them
// stay local. The operator re-creates the function on workers explicitly
// when needed.
func (p *Propagator) ProcessAlterFunction(
	_ context.Context, pc *PropagationContext, signature string,
) error {
	if !pc.ShouldPropagate() {
		return nil
	}
	logutil.BgLogger().Warn("ALTER FUNCTION is not propagated to workers",
		zap.String("function", signature))
	return nil
}
