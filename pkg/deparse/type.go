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

// Package deparse turns parsed DDL statements and live catalog state into
// portable SQL text that can be replayed on any worker node. Identifiers are
// always emitted fully qualified; nothing in the output depends on the
// originating session's search path.
package deparse

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

// ErrUnsupportedType is returned when asked to recreate a type that is
// neither an enum nor a composite. Only those two kinds can be recreated
// from catalog state.
var ErrUnsupportedType = errors.New("only enum and composite types can be recreated")

// CompositeTypeStmt deparses CREATE TYPE ... AS (...). The statement's type
// name must already be schema-qualified; commands.qualifyRangeVar does that
// for statements arriving from a session.
func CompositeTypeStmt(
	ctx context.Context, cat catalog.Catalog, stmt *pgquery.CompositeTypeStmt,
) (string, error) {
	var sql strings.Builder
	identifier := QuoteQualifiedIdentifier(stmt.Typevar.Schemaname, stmt.Typevar.Relname)
	sql.WriteString("CREATE TYPE " + identifier + " AS (")
	for i, col := range stmt.Coldeflist {
		if i > 0 {
			sql.WriteString(", ")
		}
		def := col.GetColumnDef()
		if def == nil {
			return "", errors.AssertionFailedf("composite type column is not a ColumnDef")
		}
		if err := appendColumnDef(ctx, cat, &sql, def); err != nil {
			return "", err
		}
	}
	sql.WriteString(");")
	return sql.String(), nil
}

// CreateEnumStmt deparses CREATE TYPE ... AS ENUM (...). The statement's
// name list must already be schema-qualified.
func CreateEnumStmt(
	_ context.Context, _ catalog.Catalog, stmt *pgquery.CreateEnumStmt,
) (string, error) {
	schema, name, err := splitQualifiedNameList(stmt.TypeName)
	if err != nil {
		return "", err
	}
	var sql strings.Builder
	sql.WriteString("CREATE TYPE " + QuoteQualifiedIdentifier(schema, name) + " AS ENUM (")
	for i, val := range stmt.Vals {
		if i > 0 {
			sql.WriteString(", ")
		}
		label := val.GetString_()
		if label == nil {
			return "", errors.AssertionFailedf("enum value is not a string node")
		}
		sql.WriteString(QuoteLiteral(label.Sval))
	}
	sql.WriteString(");")
	return sql.String(), nil
}

// AlterEnumStmt deparses ALTER TYPE ... ADD VALUE / RENAME VALUE against the
// type's canonical qualified identifier.
func AlterEnumStmt(
	ctx context.Context, cat catalog.Catalog, stmt *pgquery.AlterEnumStmt,
) (string, error) {
	identifier, err := resolveTypeIdentifier(ctx, cat, QuoteNameList(stmt.TypeName))
	if err != nil {
		return "", err
	}

	var sql strings.Builder
	sql.WriteString("ALTER TYPE " + identifier)
	if stmt.OldVal != "" {
		sql.WriteString(" RENAME VALUE " + QuoteLiteral(stmt.OldVal) +
			" TO " + QuoteLiteral(stmt.NewVal) + ";")
		return sql.String(), nil
	}

	sql.WriteString(" ADD VALUE ")
	if stmt.SkipIfNewValExists {
		sql.WriteString("IF NOT EXISTS ")
	}
	sql.WriteString(QuoteLiteral(stmt.NewVal))
	if stmt.NewValNeighbor != "" {
		if stmt.NewValIsAfter {
			sql.WriteString(" AFTER ")
		} else {
			sql.WriteString(" BEFORE ")
		}
		sql.WriteString(QuoteLiteral(stmt.NewValNeighbor))
	}
	sql.WriteString(";")
	return sql.String(), nil
}

// AlterEnumStmtIdempotent deparses the statement with IF NOT EXISTS forced
// on, producing the retry command suggested after a partial ADD VALUE
// propagation.
func AlterEnumStmtIdempotent(
	ctx context.Context, cat catalog.Catalog, stmt *pgquery.AlterEnumStmt,
) (string, error) {
	if stmt.OldVal != "" {
		return AlterEnumStmt(ctx, cat, stmt)
	}
	guarded := &pgquery.AlterEnumStmt{
		TypeName:           stmt.TypeName,
		NewVal:             stmt.NewVal,
		NewValNeighbor:     stmt.NewValNeighbor,
		NewValIsAfter:      stmt.NewValIsAfter,
		SkipIfNewValExists: true,
	}
	return AlterEnumStmt(ctx, cat, guarded)
}

// AlterTypeStmt deparses ALTER TYPE ... ADD/DROP/ALTER ATTRIBUTE for
// composite types.
func AlterTypeStmt(
	ctx context.Context, cat catalog.Catalog, stmt *pgquery.AlterTableStmt,
) (string, error) {
	typeName := QuoteQualifiedIdentifier(stmt.Relation.Schemaname, stmt.Relation.Relname)
	identifier, err := resolveTypeIdentifier(ctx, cat, typeName)
	if err != nil {
		return "", err
	}

	var sql strings.Builder
	sql.WriteString("ALTER TYPE " + identifier)
	for i, cmdNode := range stmt.Cmds {
		if i > 0 {
			sql.WriteString(",")
		}
		cmd := cmdNode.GetAlterTableCmd()
		if cmd == nil {
			return "", errors.AssertionFailedf("alter type subcommand is not an AlterTableCmd")
		}
		if err := appendAlterTypeCmd(ctx, cat, &sql, cmd); err != nil {
			return "", err
		}
	}
	sql.WriteString(";")
	return sql.String(), nil
}

func appendAlterTypeCmd(
	ctx context.Context, cat catalog.Catalog, sql *strings.Builder, cmd *pgquery.AlterTableCmd,
) error {
	switch cmd.Subtype {
	case pgquery.AlterTableType_AT_AddColumn:
		sql.WriteString(" ADD ATTRIBUTE ")
		def := cmd.Def.GetColumnDef()
		if def == nil {
			return errors.AssertionFailedf("ADD ATTRIBUTE without a ColumnDef")
		}
		return appendColumnDef(ctx, cat, sql, def)

	case pgquery.AlterTableType_AT_DropColumn:
		sql.WriteString(" DROP ATTRIBUTE " + QuoteIdentifier(cmd.Name))
		if cmd.Behavior == pgquery.DropBehavior_DROP_CASCADE {
			sql.WriteString(" CASCADE")
		}
		return nil

	case pgquery.AlterTableType_AT_AlterColumnType:
		sql.WriteString(" ALTER ATTRIBUTE " + QuoteIdentifier(cmd.Name) + " SET DATA TYPE ")
		def := cmd.Def.GetColumnDef()
		if def == nil {
			return errors.AssertionFailedf("ALTER ATTRIBUTE without a ColumnDef")
		}
		if err := appendColumnDef(ctx, cat, sql, def); err != nil {
			return err
		}
		if cmd.Behavior == pgquery.DropBehavior_DROP_CASCADE {
			sql.WriteString(" CASCADE")
		}
		return nil

	default:
		return errors.Newf("unsupported subcommand %v in ALTER TYPE", cmd.Subtype)
	}
}

// DropTypeStmt deparses DROP TYPE for an already-filtered list of type
// names. Each name is emitted as its canonical qualified identifier.
func DropTypeStmt(
	ctx context.Context, cat catalog.Catalog, typeNames []*pgquery.TypeName,
	behavior pgquery.DropBehavior,
) (string, error) {
	var sql strings.Builder
	sql.WriteString("DROP TYPE ")
	for i, typeName := range typeNames {
		if i > 0 {
			sql.WriteString(", ")
		}
		identifier, err := resolveTypeIdentifier(ctx, cat, QuoteTypeName(typeName))
		if err != nil {
			return "", err
		}
		sql.WriteString(identifier)
	}
	if behavior == pgquery.DropBehavior_DROP_CASCADE {
		sql.WriteString(" CASCADE")
	}
	sql.WriteString(";")
	return sql.String(), nil
}

// RecreateCompositeTypeCommand rebuilds the portable CREATE TYPE statement
// of an existing composite type from catalog state.
func RecreateCompositeTypeCommand(
	ctx context.Context, cat catalog.Catalog, typeID catalog.ObjectID,
) (string, error) {
	identifier, err := cat.ObjectIdentity(ctx,
		catalog.MakeObjectAddress(catalog.TypeRelationID, typeID))
	if err != nil {
		return "", err
	}
	attrs, err := cat.CompositeAttributes(ctx, typeID)
	if err != nil {
		return "", err
	}

	var sql strings.Builder
	sql.WriteString("CREATE TYPE " + identifier + " AS (")
	for i, attr := range attrs {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(QuoteIdentifier(attr.Name) + " " + attr.TypeName)
		if attr.Collation != "" {
			sql.WriteString(" COLLATE " + attr.Collation)
		}
	}
	sql.WriteString(");")
	return sql.String(), nil
}

// RecreateEnumTypeCommand rebuilds the portable CREATE TYPE ... AS ENUM
// statement of an existing enum type from catalog state.
func RecreateEnumTypeCommand(
	ctx context.Context, cat catalog.Catalog, typeID catalog.ObjectID,
) (string, error) {
	identifier, err := cat.ObjectIdentity(ctx,
		catalog.MakeObjectAddress(catalog.TypeRelationID, typeID))
	if err != nil {
		return "", err
	}
	labels, err := cat.EnumLabels(ctx, typeID)
	if err != nil {
		return "", err
	}

	var sql strings.Builder
	sql.WriteString("CREATE TYPE " + identifier + " AS ENUM (")
	for i, label := range labels {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(QuoteLiteral(label))
	}
	sql.WriteString(");")
	return sql.String(), nil
}

// RecreateTypeCommand rebuilds the creation statement for an enum or
// composite type; any other kind fails with ErrUnsupportedType.
func RecreateTypeCommand(
	ctx context.Context, cat catalog.Catalog, typeID catalog.ObjectID,
) (string, error) {
	kind, err := cat.TypeKind(ctx, typeID)
	if err != nil {
		return "", err
	}
	switch kind {
	case catalog.TypeKindEnum:
		return RecreateEnumTypeCommand(ctx, cat, typeID)
	case catalog.TypeKindComposite:
		return RecreateCompositeTypeCommand(ctx, cat, typeID)
	default:
		return "", errors.Wrapf(ErrUnsupportedType, "type oid %d", typeID)
	}
}

// appendColumnDef deparses one fully qualified attribute definition. The
// column name is omitted when unset, as in ALTER ATTRIBUTE ... SET DATA TYPE.
func appendColumnDef(
	ctx context.Context, cat catalog.Catalog, sql *strings.Builder, def *pgquery.ColumnDef,
) error {
	identifier, err := resolveTypeIdentifier(ctx, cat, QuoteTypeName(def.TypeName))
	if err != nil {
		return err
	}
	if def.Colname != "" {
		sql.WriteString(QuoteIdentifier(def.Colname) + " ")
	}
	sql.WriteString(identifier)
	if def.CollClause != nil {
		sql.WriteString(" COLLATE " + QuoteNameList(def.CollClause.Collname))
	}
	return nil
}

// resolveTypeIdentifier resolves a quoted, possibly-qualified type name to
// the installation-independent identity of the type it denotes. The name must
// be in the quoted spelling, since the catalog's type name parser case-folds
// unquoted identifiers.
func resolveTypeIdentifier(
	ctx context.Context, cat catalog.Catalog, typeName string,
) (string, error) {
	typeID, err := cat.LookupTypeOID(ctx, typeName)
	if err != nil {
		return "", err
	}
	return cat.ObjectIdentity(ctx,
		catalog.MakeObjectAddress(catalog.TypeRelationID, typeID))
}

// QuoteTypeName renders a parsed TypeName as a quoted dotted name, the
// spelling the catalog's type name parser resolves case-sensitively.
func QuoteTypeName(typeName *pgquery.TypeName) string {
	if typeName == nil {
		return ""
	}
	return QuoteNameList(typeName.Names)
}

// QuoteNameList joins a parsed name list ("schema", "object") with dots,
// quoting each part.
func QuoteNameList(names []*pgquery.Node) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if s := name.GetString_(); s != nil {
			parts = append(parts, QuoteIdentifier(s.Sval))
		}
	}
	return strings.Join(parts, ".")
}

// splitQualifiedNameList splits a name list into schema and object name.
// Lists longer than two parts (catalog-qualified) are rejected.
func splitQualifiedNameList(names []*pgquery.Node) (schema, name string, err error) {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if s := n.GetString_(); s != nil {
			parts = append(parts, s.Sval)
		}
	}
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", errors.Newf("improper qualified name: %q", strings.Join(parts, "."))
	}
}
