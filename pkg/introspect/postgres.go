package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// Postgres reads schema metadata from information_schema for the public
// schema.
type Postgres struct {
	ex runtime.Executor
}

// NewPostgres returns a PostgreSQL schema provider.
func NewPostgres(ex runtime.Executor) *Postgres {
	return &Postgres{ex: ex}
}

// Tables lists the base tables of the public schema.
func (p *Postgres) Tables(ctx context.Context) ([]string, error) {
	records, err := p.ex.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
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
func (p *Postgres) TableFields(ctx context.Context, table string) ([]*schema.Field, error) {
	records, err := p.ex.Query(ctx, `
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
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
		dataType, _ := asString(rec["data_type"])
		nullable, _ := asString(rec["is_nullable"])
		fields = append(fields, schema.ParseField(
			name,
			rawType(dataType, rec["character_maximum_length"]),
			strings.EqualFold(nullable, "YES"),
			normalizeDefault(optString(rec["column_default"])),
		))
	}
	return fields, nil
}

// rawType reattaches the declared length so data_type reads like the DDL
// spelling ("character varying(255)").
func rawType(dataType string, maxLength any) string {
	switch n := maxLength.(type) {
	case int64:
		if n > 0 {
			return dataType + "(" + strconv.FormatInt(n, 10) + ")"
		}
	case []byte:
		if len(n) > 0 {
			return dataType + "(" + string(n) + ")"
		}
	}
	return dataType
}

// normalizeDefault strips the cast suffix Postgres appends to literal
// defaults ('draft'::text) and drops expression defaults like nextval().
func normalizeDefault(def *string) *string {
	if def == nil {
		return nil
	}
	s := *def
	if strings.HasPrefix(s, "nextval(") {
		return nil
	}
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "'")
	return &s
}
