// Package sqlgen renders a build session's relational records as SQL. The
// output is deterministic: tables follow catalog registration order, rows
// follow session insertion order, and every table gets a delete guard so
// re-applying a build is idempotent.
package sqlgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/build"
	"github.com/cory-johannsen/worldforge/internal/codec"
	"github.com/cory-johannsen/worldforge/internal/schema"
)

// Generator renders SQL from compiled sessions.
type Generator struct {
	log *zap.Logger
}

// NewGenerator builds a Generator. A nil logger is replaced with a no-op
// logger.
func NewGenerator(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

// Statements returns one statement per element, ready for transactional
// application: for each relational table with rows, a DELETE guard keyed on
// the leading column followed by one multi-row INSERT.
//
// Postcondition: Repeated calls over the same session return identical
// statements in identical order.
func (g *Generator) Statements(s *build.Session) ([]string, error) {
	var stmts []string
	for _, rt := range s.Registry().Types() {
		if rt.Storage != schema.StorageRelational {
			continue
		}
		rows := s.Records(rt.Name)
		if len(rows) == 0 {
			continue
		}
		block, err := tableStatements(rt, rows)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: Generator.Statements: %w", err)
		}
		stmts = append(stmts, block...)
	}
	return stmts, nil
}

// Script renders the statements as a single SQL file with a header naming
// the build and a comment line per table.
func (g *Generator) Script(s *build.Session) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "-- world content build %s\n", s.ID())
	b.WriteString("-- generated by forge; do not edit by hand\n")

	tables := 0
	statements := 0
	for _, rt := range s.Registry().Types() {
		if rt.Storage != schema.StorageRelational {
			continue
		}
		rows := s.Records(rt.Name)
		if len(rows) == 0 {
			continue
		}
		block, err := tableStatements(rt, rows)
		if err != nil {
			return "", fmt.Errorf("sqlgen: Generator.Script: %w", err)
		}
		fmt.Fprintf(&b, "\n-- %s: %d row(s)\n", rt.Table, len(rows))
		for _, stmt := range block {
			b.WriteString(stmt)
			b.WriteByte('\n')
		}
		tables++
		statements += len(block)
	}

	g.log.Info("sql generated",
		zap.String("build_id", s.ID().String()),
		zap.Int("tables", tables),
		zap.Int("statements", statements),
	)
	return b.String(), nil
}

func tableStatements(rt *schema.RecordType, rows []*codec.Record) ([]string, error) {
	for i, rec := range rows {
		if len(rec.Values) != len(rt.Fields) {
			return nil, fmt.Errorf("%s row %d: %d values for %d fields",
				rt.Name, i, len(rec.Values), len(rt.Fields))
		}
	}
	return []string{deleteGuard(rt, rows), insertStatement(rt, rows)}, nil
}

// deleteGuard removes any prior rows for the keys about to be inserted.
// Identity tables key on the identity column; child tables key on the
// owning id in their leading column, which drops the owner's whole row set.
func deleteGuard(rt *schema.RecordType, rows []*codec.Record) string {
	seen := make(map[uint32]struct{}, len(rows))
	var keys []uint32
	for _, rec := range rows {
		k := rec.Values[0].U32
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.FormatUint(uint64(k), 10)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s);",
		rt.Table, rt.Fields[0].Name, strings.Join(parts, ", "))
}

func insertStatement(rt *schema.RecordType, rows []*codec.Record) string {
	cols := make([]string, len(rt.Fields))
	for i, f := range rt.Fields {
		cols[i] = f.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES\n", rt.Table, strings.Join(cols, ", "))
	for i, rec := range rows {
		b.WriteByte('(')
		for j, v := range rec.Values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(renderValue(v))
		}
		b.WriteByte(')')
		if i < len(rows)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString(";")
	return b.String()
}

func renderValue(v codec.Value) string {
	switch v.Kind {
	case schema.F32:
		// Shortest representation that round-trips through float32.
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32)
	case schema.Str:
		return quoteString(v.Str)
	default:
		return strconv.FormatUint(uint64(v.U32), 10)
	}
}

// quoteString renders a standard SQL string literal. Embedded quotes are
// doubled; backslashes are literal under standard_conforming_strings.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
