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

import "strings"

// QuoteIdentifier returns the identifier in a form safe to embed in a SQL
// statement: bare when it is a plain lower-case identifier that is not a
// keyword, double-quoted with embedded quotes doubled otherwise. This matches
// the server's quote_ident.
func QuoteIdentifier(ident string) string {
	if isBareIdentifier(ident) && !quotedKeywords[ident] {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteQualifiedIdentifier quotes schema.name, omitting the schema part when
// it is empty.
func QuoteQualifiedIdentifier(schema, name string) string {
	if schema == "" {
		return QuoteIdentifier(name)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
}

// QuoteLiteral returns the string as a SQL literal. The E'' form is used
// when the value contains backslashes, so the output is independent of the
// server's standard_conforming_strings setting.
func QuoteLiteral(literal string) string {
	quoted := strings.ReplaceAll(literal, `'`, `''`)
	if strings.Contains(quoted, `\`) {
		return `E'` + strings.ReplaceAll(quoted, `\`, `\\`) + `'`
	}
	return `'` + quoted + `'`
}

// quotedKeywords holds the keywords of the reserved, type/function-name and
// column-name categories of the PostgreSQL grammar. They cannot appear bare
// in every identifier position, so quote_ident quotes them regardless of
// case; unreserved keywords are valid identifiers everywhere and stay bare.
var quotedKeywords = func() map[string]bool {
	words := []string{
		// Reserved.
		"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
		"asymmetric", "both", "case", "cast", "check", "collate", "column",
		"constraint", "create", "current_catalog", "current_date",
		"current_role", "current_time", "current_timestamp", "current_user",
		"default", "deferrable", "desc", "distinct", "do", "else", "end",
		"except", "false", "fetch", "for", "foreign", "from", "grant",
		"group", "having", "in", "initially", "intersect", "into", "lateral",
		"leading", "limit", "localtime", "localtimestamp", "not", "null",
		"offset", "on", "only", "or", "order", "placing", "primary",
		"references", "returning", "select", "session_user", "some",
		"symmetric", "system_user", "table", "then", "to", "trailing",
		"true", "union", "unique", "user", "using", "variadic", "when",
		"where", "window", "with",
		// Reserved except in type and function names.
		"authorization", "binary", "collation", "concurrently", "cross",
		"current_schema", "freeze", "full", "ilike", "inner", "is", "isnull",
		"join", "left", "like", "natural", "notnull", "outer", "overlaps",
		"right", "similar", "tablesample", "verbose",
		// Reserved except as column names.
		"between", "bigint", "bit", "boolean", "char", "character",
		"coalesce", "dec", "decimal", "exists", "extract", "float",
		"greatest", "grouping", "inout", "int", "integer", "interval",
		"least", "national", "nchar", "none", "normalize", "nullif",
		"numeric", "out", "overlay", "position", "precision", "real", "row",
		"setof", "smallint", "substring", "time", "timestamp", "treat",
		"trim", "values", "varchar", "xmlattributes", "xmlconcat",
		"xmlelement", "xmlexists", "xmlforest", "xmlnamespaces", "xmlparse",
		"xmlpi", "xmlroot", "xmlserialize", "xmltable",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

func isBareIdentifier(ident string) bool {
	if ident == "" {
		return false
	}
	for i, r := range ident {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '$'):
		default:
			return false
		}
	}
	return true
}
