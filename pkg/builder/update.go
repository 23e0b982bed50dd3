package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// UpdateQuery builds and runs an UPDATE.
type UpdateQuery struct {
	ex     runtime.Executor
	d      dialect.Dialect
	table  *schema.Table
	fields []string
	sets   map[string]any
	where  []Condition
	limit  *int
	offset *int
}

// NewUpdate creates an UPDATE builder bound to a table.
func NewUpdate(ex runtime.Executor, d dialect.Dialect, table *schema.Table) *UpdateQuery {
	return &UpdateQuery{ex: ex, d: d, table: table, sets: make(map[string]any)}
}

// Set assigns one field value.
func (q *UpdateQuery) Set(field string, value any) *UpdateQuery {
	if _, ok := q.sets[field]; !ok {
		q.fields = append(q.fields, field)
	}
	q.sets[field] = value
	return q
}

// SetMap assigns fields from a map in the table's declaration order.
func (q *UpdateQuery) SetMap(values map[string]any) *UpdateQuery {
	for _, f := range q.table.Fields {
		if v, ok := values[f.Name]; ok {
			q.Set(f.Name, v)
		}
	}
	return q
}

// Where appends an AND-ed condition fragment. An UPDATE with no where
// clause touches the whole table; that is allowed and up to the caller.
func (q *UpdateQuery) Where(fragment string, args ...any) *UpdateQuery {
	q.where = append(q.where, Condition{Fragment: fragment, Args: args})
	return q
}

// Limit sets the LIMIT clause. Dialects that do not allow LIMIT on UPDATE
// drop it at compilation, leaving the call site untouched.
func (q *UpdateQuery) Limit(limit int) *UpdateQuery {
	q.limit = &limit
	return q
}

// Offset sets the OFFSET clause, gated the same way as Limit.
func (q *UpdateQuery) Offset(offset int) *UpdateQuery {
	q.offset = &offset
	return q
}

// ToSQL compiles the UPDATE.
func (q *UpdateQuery) ToSQL() (string, []any, error) {
	if q.table == nil {
		return "", nil, fmt.Errorf("builder: no table bound")
	}
	if len(q.fields) == 0 {
		return "", nil, fmt.Errorf("builder: no fields to update")
	}

	var sql strings.Builder
	var args []any
	n := 1

	sql.WriteString("UPDATE ")
	sql.WriteString(q.d.Quote(q.table.Name))
	sql.WriteString(" SET ")

	parts := make([]string, len(q.fields))
	for i, f := range q.fields {
		parts[i] = q.d.Quote(f) + " = " + q.d.Placeholder(n)
		args = append(args, q.sets[f])
		n++
	}
	sql.WriteString(strings.Join(parts, ", "))

	whereSQL, whereArgs, err := compileWhere(q.where, q.d, &n)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if q.d.UpdateLimit {
		if q.limit != nil {
			sql.WriteString(" LIMIT ")
			sql.WriteString(q.d.Placeholder(n))
			n++
			args = append(args, *q.limit)
		}
		if q.offset != nil {
			sql.WriteString(" OFFSET ")
			sql.WriteString(q.d.Placeholder(n))
			n++
			args = append(args, *q.offset)
		}
	}

	return sql.String(), args, nil
}

// Run compiles and executes the UPDATE, returning the affected-row count.
func (q *UpdateQuery) Run(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	return q.ex.Exec(ctx, sql, args...)
}
