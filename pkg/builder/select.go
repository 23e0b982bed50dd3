package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// SelectQuery builds and runs a SELECT over one table.
type SelectQuery struct {
	ex      runtime.Executor
	d       dialect.Dialect
	table   *schema.Table
	columns []string
	joins   []Join
	where   []Condition
	groupBy []string
	orderBy []OrderBy
	limit   *int
	offset  *int
	single  bool
}

// NewSelect creates a SELECT builder bound to a table, with no clauses yet.
func NewSelect(ex runtime.Executor, d dialect.Dialect, table *schema.Table) *SelectQuery {
	return &SelectQuery{ex: ex, d: d, table: table}
}

// Columns restricts the selected columns. The default is *.
func (q *SelectQuery) Columns(cols ...string) *SelectQuery {
	q.columns = cols
	return q
}

// Where appends an AND-ed condition fragment with its bound values.
func (q *SelectQuery) Where(fragment string, args ...any) *SelectQuery {
	q.where = append(q.where, Condition{Fragment: fragment, Args: args})
	return q
}

// Join appends a JOIN clause.
func (q *SelectQuery) Join(table, on string, args ...any) *SelectQuery {
	q.joins = append(q.joins, Join{Table: table, On: on, Args: args})
	return q
}

// GroupBy adds GROUP BY fields.
func (q *SelectQuery) GroupBy(fields ...string) *SelectQuery {
	q.groupBy = append(q.groupBy, fields...)
	return q
}

// OrderBy adds an ORDER BY term.
func (q *SelectQuery) OrderBy(field string, direction Direction) *SelectQuery {
	q.orderBy = append(q.orderBy, OrderBy{Field: field, Direction: direction})
	return q
}

// OrderByAsc adds an ascending ORDER BY term.
func (q *SelectQuery) OrderByAsc(field string) *SelectQuery {
	return q.OrderBy(field, Asc)
}

// OrderByDesc adds a descending ORDER BY term.
func (q *SelectQuery) OrderByDesc(field string) *SelectQuery {
	return q.OrderBy(field, Desc)
}

// Limit sets the LIMIT clause.
func (q *SelectQuery) Limit(limit int) *SelectQuery {
	q.limit = &limit
	return q
}

// Offset sets the OFFSET clause.
func (q *SelectQuery) Offset(offset int) *SelectQuery {
	q.offset = &offset
	return q
}

// Single switches the query to single-row mode. RelatedTo sets this when
// the relation can match at most one row.
func (q *SelectQuery) Single() *SelectQuery {
	q.single = true
	return q
}

// IsSingle reports whether the query is in single-row mode.
func (q *SelectQuery) IsSingle() bool { return q.single }

// ToSQL compiles the query into SQL text plus its bound values, in
// positional order.
func (q *SelectQuery) ToSQL() (string, []any, error) {
	if q.table == nil {
		return "", nil, fmt.Errorf("builder: no table bound")
	}

	var sql strings.Builder
	var args []any
	n := 1

	sql.WriteString("SELECT ")
	if len(q.columns) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(q.columns, ", "))
	}
	sql.WriteString(" FROM ")
	sql.WriteString(q.d.Quote(q.table.Name))

	for _, join := range q.joins {
		sql.WriteString(" JOIN ")
		sql.WriteString(q.d.Quote(join.Table))
		sql.WriteString(" ON ")
		sql.WriteString(q.d.Rebind(join.On, &n))
		args = append(args, join.Args...)
	}

	whereSQL, whereArgs, err := compileWhere(q.where, q.d, &n)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if len(q.groupBy) > 0 {
		sql.WriteString(" GROUP BY ")
		sql.WriteString(strings.Join(q.groupBy, ", "))
	}

	if len(q.orderBy) > 0 {
		parts := make([]string, len(q.orderBy))
		for i, o := range q.orderBy {
			parts[i] = o.Field + " " + string(o.Direction)
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

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

	return sql.String(), args, nil
}

// All compiles and runs the query, returning the raw records in result
// order.
func (q *SelectQuery) All(ctx context.Context) ([]runtime.Record, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return q.ex.Query(ctx, sql, args...)
}

// One runs the query limited to one row. Returns ErrNotFound when nothing
// matches.
func (q *SelectQuery) One(ctx context.Context) (runtime.Record, error) {
	q.Limit(1)
	records, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, runtime.ErrNotFound
	}
	return records[0], nil
}

// Count runs SELECT COUNT(*) with the same join and where clauses.
func (q *SelectQuery) Count(ctx context.Context) (int64, error) {
	if q.table == nil {
		return 0, fmt.Errorf("builder: no table bound")
	}

	var sql strings.Builder
	var args []any
	n := 1

	sql.WriteString("SELECT COUNT(*) FROM ")
	sql.WriteString(q.d.Quote(q.table.Name))

	for _, join := range q.joins {
		sql.WriteString(" JOIN ")
		sql.WriteString(q.d.Quote(join.Table))
		sql.WriteString(" ON ")
		sql.WriteString(q.d.Rebind(join.On, &n))
		args = append(args, join.Args...)
	}

	whereSQL, whereArgs, err := compileWhere(q.where, q.d, &n)
	if err != nil {
		return 0, err
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	records, err := q.ex.Query(ctx, sql.String(), args...)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	for _, v := range records[0] {
		switch count := v.(type) {
		case int64:
			return count, nil
		case []byte:
			var c int64
			_, err := fmt.Sscan(string(count), &c)
			return c, err
		}
	}
	return 0, fmt.Errorf("builder: unreadable count result")
}
