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

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

func TestProcessDropFunctionPropagatesOnlyDistributed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cat.AddBaseType(23, "integer")
	f.cat.AddTypeName("pg_catalog.int4", 23)
	fn := f.cat.AddFunction(700, "sales.place_order(integer)")
	require.NoError(t, f.registry.Record(ctx, fn))
	f.cat.AddFunction(701, "sales.audit(integer)")

	stmt := parseOne(t,
		"DROP FUNCTION sales.place_order(integer), sales.audit(integer)").GetDropStmt()
	require.NotNil(t, stmt)

	require.NoError(t, f.propagator.ProcessDropFunction(ctx, propagationOn(), stmt))
	for _, w := range f.workers {
		require.Equal(t,
			[]string{"DROP FUNCTION IF EXISTS sales.place_order(integer);"}, w.Log())
	}
	distributed, err := f.registry.IsDistributed(ctx, fn)
	require.NoError(t, err)
	require.False(t, distributed)
}

func TestProcessDropFunctionMissingOk(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	stmt := parseOne(t, "DROP FUNCTION IF EXISTS nosuch(integer)").GetDropStmt()
	require.NotNil(t, stmt)
	require.NoError(t, f.propagator.ProcessDropFunction(ctx, propagationOn(), stmt))
	require.Empty(t, f.dialer.OpenedConns())

	strict := parseOne(t, "DROP FUNCTION nosuch(integer)").GetDropStmt()
	err := f.propagator.ProcessDropFunction(ctx, propagationOn(), strict)
	require.ErrorIs(t, err, catalog.ErrObjectNotFound)
}
