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

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// CreateSchemaCommand rebuilds an idempotent CREATE SCHEMA statement for an
// existing schema. System schemas already exist on every node, so they yield
// an empty command.
func CreateSchemaCommand(
	ctx context.Context, cat catalog.Catalog, schemaID catalog.ObjectID,
) (string, error) {
	name, err := cat.SchemaName(ctx, schemaID)
	if err != nil {
		return "", err
	}
	if IsSystemSchema(name) {
		return "", nil
	}
	owner, err := cat.SchemaOwner(ctx, schemaID)
	if err != nil {
		return "", err
	}
	return "CREATE SCHEMA IF NOT EXISTS " + QuoteIdentifier(name) +
		" AUTHORIZATION " + QuoteIdentifier(owner) + ";", nil
}

// IsSystemSchema reports whether the schema ships with every installation
// and must never be created or dropped by propagation.
func IsSystemSchema(name string) bool {
	return name == "information_schema" || strings.HasPrefix(name, "pg_")
}
