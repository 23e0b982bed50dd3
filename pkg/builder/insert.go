package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// InsertQuery builds and runs an INSERT of one record.
type InsertQuery struct {
	ex     runtime.Executor
	d      dialect.Dialect
	table  *schema.Table
	fields []string
	values map[string]any
}

// NewInsert creates an INSERT builder bound to a table.
func NewInsert(ex runtime.Executor, d dialect.Dialect, table *schema.Table) *InsertQuery {
	return &InsertQuery{ex: ex, d: d, table: table, values: make(map[string]any)}
}

// Set assigns one field value. First assignment fixes the field's position
// in the compiled column list.
func (q *InsertQuery) Set(field string, value any) *InsertQuery {
	if _, ok := q.values[field]; !ok {
		q.fields = append(q.fields, field)
	}
	q.values[field] = value
	return q
}

// Values assigns fields from a map, in the table's declaration order so the
// compiled SQL is deterministic.
func (q *InsertQuery) Values(values map[string]any) *InsertQuery {
	for _, f := range q.table.Fields {
		if v, ok := values[f.Name]; ok {
			q.Set(f.Name, v)
		}
	}
	return q
}

// ToSQL compiles the INSERT. RETURNING is appended on dialects that support
// it so the generated identity comes back with the statement.
func (q *InsertQuery) ToSQL() (string, []any, error) {
	if q.table == nil {
		return "", nil, fmt.Errorf("builder: no table bound")
	}
	if len(q.fields) == 0 {
		return "", nil, fmt.Errorf("builder: no values to insert")
	}

	cols := make([]string, len(q.fields))
	placeholders := make([]string, len(q.fields))
	args := make([]any, len(q.fields))
	for i, f := range q.fields {
		cols[i] = q.d.Quote(f)
		placeholders[i] = q.d.Placeholder(i + 1)
		args[i] = q.values[f]
	}

	var sql strings.Builder
	sql.WriteString("INSERT INTO ")
	sql.WriteString(q.d.Quote(q.table.Name))
	sql.WriteString(" (")
	sql.WriteString(strings.Join(cols, ", "))
	sql.WriteString(") VALUES (")
	sql.WriteString(strings.Join(placeholders, ", "))
	sql.WriteString(")")

	if q.d.SupportsReturning && q.table.Identity() != nil {
		sql.WriteString(" RETURNING ")
		sql.WriteString(q.d.Quote(schema.IdentityField))
	}

	return sql.String(), args, nil
}

// Run compiles and executes the INSERT, returning the generated identity.
// A table without an identity field, like a many-to-many join table, has
// nothing to retrieve: the statement executes plainly and the identity is
// nil. pgx's database/sql driver rejects LastInsertId, so the retrieval
// must be skipped rather than attempted and ignored.
func (q *InsertQuery) Run(ctx context.Context) (any, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	if q.table.Identity() == nil {
		_, err := q.ex.Exec(ctx, sql, args...)
		return nil, err
	}
	return q.ex.Insert(ctx, sql, args...)
}
