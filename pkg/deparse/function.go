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

package deparse

import (
	"context"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// DropFunctionStmt deparses DROP FUNCTION for the given function signatures.
// Argument types are resolved to their canonical identities so the command
// binds the same functions on every node regardless of search path.
func DropFunctionStmt(
	ctx context.Context, cat catalog.Catalog, funcs []*pgquery.ObjectWithArgs,
	behavior pgquery.DropBehavior, missingOK bool,
) (string, error) {
	var sql strings.Builder
	sql.WriteString("DROP FUNCTION ")
	if missingOK {
		sql.WriteString("IF EXISTS ")
	}
	for i, fn := range funcs {
		if i > 0 {
			sql.WriteString(", ")
		}
		sig, err := FunctionSignature(ctx, cat, fn)
		if err != nil {
			return "", err
		}
		sql.WriteString(sig)
	}
	if behavior == pgquery.DropBehavior_DROP_CASCADE {
		sql.WriteString(" CASCADE")
	}
	sql.WriteString(";")
	return sql.String(), nil
}

// FunctionSignature renders the qualified signature of an ObjectWithArgs,
// e.g. "public.fn(integer, text)", with argument types resolved to their
// canonical identities.
func FunctionSignature(
	ctx context.Context, cat catalog.Catalog, fn *pgquery.ObjectWithArgs,
) (string, error) {
	sig := QuoteNameList(fn.Objname)
	if fn.ArgsUnspecified {
		return sig, nil
	}
	argTypes := make([]string, 0, len(fn.Objargs))
	for _, arg := range fn.Objargs {
		typeName := arg.GetTypeName()
		if typeName == nil {
			continue
		}
		identifier, err := resolveTypeIdentifier(ctx, cat, QuoteTypeName(typeName))
		if err != nil {
			return "", err
		}
		argTypes = append(argTypes, identifier)
	}
	return sig + "(" + strings.Join(argTypes, ", ") + ")", nil
}
