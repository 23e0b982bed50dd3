package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// MySQL reads schema metadata from information_schema for the connection's
// current database.
type MySQL struct {
	ex runtime.Executor
}

// NewMySQL returns a MySQL schema provider.
func NewMySQL(ex runtime.Executor) *MySQL {
	return &MySQL{ex: ex}
}

// Tables lists the base tables of the current database.
func (p *MySQL) Tables(ctx context.Context) ([]string, error) {
	records, err := p.ex.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("introspect: list tables: %w", err)
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name, ok := asString(rec["table_name"]); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// TableFields returns the ordered field descriptors of one table.
// column_type carries the full declared spelling (length, unsigned, enum
// members), which ParseField depends on.
func (p *MySQL) TableFields(ctx context.Context, table string) ([]*schema.Field, error) {
	records, err := p.ex.Query(ctx, `
		SELECT column_name, column_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("introspect: fields of %s: %w", table, err)
	}
	if len(records) == 0 {
		return nil, &runtime.TableError{Table: table}
	}

	fields := make([]*schema.Field, 0, len(records))
	for _, rec := range records {
		name, _ := asString(rec["column_name"])
		colType, _ := asString(rec["column_type"])
		nullable, _ := asString(rec["is_nullable"])
		fields = append(fields, schema.ParseField(
			name,
			colType,
			strings.EqualFold(nullable, "YES"),
			optString(rec["column_default"]),
		))
	}
	return fields, nil
}
