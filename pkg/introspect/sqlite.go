package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// SQLite reads schema metadata from sqlite_master and PRAGMA table_info.
type SQLite struct {
	ex runtime.Executor
}

// NewSQLite returns a SQLite schema provider.
func NewSQLite(ex runtime.Executor) *SQLite {
	return &SQLite{ex: ex}
}

// Tables lists the user tables of the database.
func (p *SQLite) Tables(ctx context.Context) ([]string, error) {
	records, err := p.ex.Query(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("introspect: list tables: %w", err)
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name, ok := asString(rec["name"]); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// TableFields returns the ordered field descriptors of one table. PRAGMA
// statements cannot take bound parameters, so the table name is quoted into
// the statement text.
func (p *SQLite) TableFields(ctx context.Context, table string) ([]*schema.Field, error) {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	records, err := p.ex.Query(ctx, "PRAGMA table_info("+quoted+")")
	if err != nil {
		return nil, fmt.Errorf("introspect: fields of %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil, &runtime.TableError{Table: table}
	}

	fields := make([]*schema.Field, 0, len(records))
	for _, rec := range records {
		name, _ := asString(rec["name"])
		colType, _ := asString(rec["type"])
		notNull, _ := rec["notnull"].(int64)
		fields = append(fields, schema.ParseField(
			name,
			colType,
			notNull == 0,
			sqliteDefault(optString(rec["dflt_value"])),
		))
	}
	return fields, nil
}

// sqliteDefault unquotes literal defaults ('draft' -> draft).
func sqliteDefault(def *string) *string {
	if def == nil {
		return nil
	}
	s := strings.Trim(*def, "'")
	return &s
}
