package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// DeleteQuery builds and runs a DELETE.
type DeleteQuery struct {
	ex     runtime.Executor
	d      dialect.Dialect
	table  *schema.Table
	where  []Condition
	limit  *int
	offset *int
}

// NewDelete creates a DELETE builder bound to a table.
func NewDelete(ex runtime.Executor, d dialect.Dialect, table *schema.Table) *DeleteQuery {
	return &DeleteQuery{ex: ex, d: d, table: table}
}

// Where appends an AND-ed condition fragment. A DELETE with no where clause
// empties the table; that is allowed and up to the caller.
func (q *DeleteQuery) Where(fragment string, args ...any) *DeleteQuery {
	q.where = append(q.where, Condition{Fragment: fragment, Args: args})
	return q
}

// Limit sets the LIMIT clause. Dialects that do not allow LIMIT on DELETE
// drop it at compilation, leaving the call site untouched.
func (q *DeleteQuery) Limit(limit int) *DeleteQuery {
	q.limit = &limit
	return q
}

// Offset sets the OFFSET clause, gated the same way as Limit.
func (q *DeleteQuery) Offset(offset int) *DeleteQuery {
	q.offset = &offset
	return q
}

// ToSQL compiles the DELETE.
func (q *DeleteQuery) ToSQL() (string, []any, error) {
	if q.table == nil {
		return "", nil, fmt.Errorf("builder: no table bound")
	}

	var sql strings.Builder
	var args []any
	n := 1

	sql.WriteString("DELETE FROM ")
	sql.WriteString(q.d.Quote(q.table.Name))

	whereSQL, whereArgs, err := compileWhere(q.where, q.d, &n)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if q.d.DeleteLimit {
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

// Run compiles and executes the DELETE, returning the affected-row count.
func (q *DeleteQuery) Run(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	return q.ex.Exec(ctx, sql, args...)
}
