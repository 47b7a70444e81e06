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
	"strconv"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"
)

// VacuumPrefix renders the command keyword and option list of a VACUUM or
// ANALYZE statement, without any relation. The parenthesized option syntax
// is always used when options are present, so the output does not depend on
// legacy keyword ordering rules.
func VacuumPrefix(stmt *pgquery.VacuumStmt) string {
	var sql strings.Builder
	if stmt.IsVacuumcmd {
		sql.WriteString("VACUUM")
	} else {
		sql.WriteString("ANALYZE")
	}
	if len(stmt.Options) == 0 {
		return sql.String()
	}
	sql.WriteString(" (")
	for i, opt := range stmt.Options {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(vacuumOption(opt.GetDefElem()))
	}
	sql.WriteString(")")
	return sql.String()
}

// VacuumColumnList renders the parenthesized column list of a VacuumRelation,
// or the empty string when all columns are analyzed.
func VacuumColumnList(rel *pgquery.VacuumRelation) string {
	if rel == nil || len(rel.VaCols) == 0 {
		return ""
	}
	cols := make([]string, 0, len(rel.VaCols))
	for _, col := range rel.VaCols {
		if s := col.GetString_(); s != nil {
			cols = append(cols, QuoteIdentifier(s.Sval))
		}
	}
	return " (" + strings.Join(cols, ", ") + ")"
}

// HasVacuumOption reports whether the statement carries the named option,
// case-insensitively.
func HasVacuumOption(stmt *pgquery.VacuumStmt, name string) bool {
	for _, opt := range stmt.Options {
		def := opt.GetDefElem()
		if def != nil && strings.EqualFold(def.Defname, name) {
			return true
		}
	}
	return false
}

func vacuumOption(def *pgquery.DefElem) string {
	if def == nil {
		return ""
	}
	name := strings.ToUpper(def.Defname)
	if def.Arg == nil {
		return name
	}
	return name + " " + vacuumOptionValue(def.Arg)
}

func vacuumOptionValue(arg *pgquery.Node) string {
	switch {
	case arg.GetInteger() != nil:
		return strconv.FormatInt(int64(arg.GetInteger().Ival), 10)
	case arg.GetBoolean() != nil:
		if arg.GetBoolean().Boolval {
			return "TRUE"
		}
		return "FALSE"
	case arg.GetString_() != nil:
		// Option values like INDEX_CLEANUP AUTO arrive as strings and are
		// keywords, not literals.
		return strings.ToUpper(arg.GetString_().Sval)
	case arg.GetFloat() != nil:
		return arg.GetFloat().Fval
	default:
		return ""
	}
}
