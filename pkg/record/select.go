package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/loamdb/loam/pkg/builder"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// SelectQuery wraps the raw SELECT builder and maps its results into Rows.
// A relation lookup that fails inside the fluent chain is held and
// surfaced when the query runs, keeping the chain unbroken.
type SelectQuery struct {
	table *Table
	q     *builder.SelectQuery
	err   error
}

// Where appends an AND-ed condition fragment with its bound values.
func (s *SelectQuery) Where(fragment string, args ...any) *SelectQuery {
	s.q.Where(fragment, args...)
	return s
}

// Join appends a JOIN clause.
func (s *SelectQuery) Join(table, on string, args ...any) *SelectQuery {
	s.q.Join(table, on, args...)
	return s
}

// OrderBy adds an ORDER BY term.
func (s *SelectQuery) OrderBy(field string, direction builder.Direction) *SelectQuery {
	s.q.OrderBy(field, direction)
	return s
}

// OrderByAsc adds an ascending ORDER BY term.
func (s *SelectQuery) OrderByAsc(field string) *SelectQuery {
	s.q.OrderByAsc(field)
	return s
}

// OrderByDesc adds a descending ORDER BY term.
func (s *SelectQuery) OrderByDesc(field string) *SelectQuery {
	s.q.OrderByDesc(field)
	return s
}

// GroupBy adds GROUP BY fields.
func (s *SelectQuery) GroupBy(fields ...string) *SelectQuery {
	s.q.GroupBy(fields...)
	return s
}

// Limit sets the LIMIT clause.
func (s *SelectQuery) Limit(limit int) *SelectQuery {
	s.q.Limit(limit)
	return s
}

// Offset sets the OFFSET clause.
func (s *SelectQuery) Offset(offset int) *SelectQuery {
	s.q.Offset(offset)
	return s
}

// Single switches the query to single-row mode.
func (s *SelectQuery) Single() *SelectQuery {
	s.q.Single()
	return s
}

// IsSingle reports whether the query is in single-row mode.
func (s *SelectQuery) IsSingle() bool { return s.q.IsSingle() }

// Raw exposes the underlying SELECT builder.
func (s *SelectQuery) Raw() *builder.SelectQuery { return s.q }

// RelatedTo narrows the query to rows related to the given row, using the
// inferred relation between the row's table and this query's table.
//
// When the row's table carries the join field the query matches at most
// the one record it points at and flips into single-row mode. When this
// query's table carries it, the query matches the rows pointing back at
// the given row. A join table bridges the two otherwise.
func (s *SelectQuery) RelatedTo(row *Row) *SelectQuery {
	rel, err := s.table.db.resolver.Resolve(row.table.meta, s.table.meta)
	if err != nil {
		s.fail(err)
		return s
	}

	switch rel.Kind {
	case HasOne:
		s.q.Where(schema.IdentityField+" = ?", row.values[rel.JoinField.Name])
		s.q.Single()
	case HasMany:
		s.q.Where(rel.JoinField.Name+" = ?", row.ID())
	case ManyToMany:
		join := rel.JoinTable.Name
		s.q.Columns(s.table.meta.Name + ".*")
		s.q.Join(join, join+"."+rel.TargetJoin.Name+" = "+s.table.meta.Name+"."+schema.IdentityField)
		s.q.Where(join+"."+rel.SourceJoin.Name+" = ?", row.ID())
	}
	return s
}

// RelatedToAny narrows the query to rows related to any of the given rows,
// which must all belong to one table. Bound values travel as an IN list.
func (s *SelectQuery) RelatedToAny(rows ...*Row) *SelectQuery {
	if len(rows) == 0 {
		return s
	}
	if len(rows) == 1 {
		return s.RelatedTo(rows[0])
	}
	source := rows[0].table
	for _, row := range rows[1:] {
		if row.table.Name() != source.Name() {
			s.fail(fmt.Errorf("loam: related rows span tables %q and %q", source.Name(), row.table.Name()))
			return s
		}
	}

	rel, err := s.table.db.resolver.Resolve(source.meta, s.table.meta)
	if err != nil {
		s.fail(err)
		return s
	}

	switch rel.Kind {
	case HasOne:
		values := make([]any, len(rows))
		for i, row := range rows {
			values[i] = row.values[rel.JoinField.Name]
		}
		s.q.Where(schema.IdentityField+" IN ", values...)
	case HasMany:
		s.q.Where(rel.JoinField.Name+" IN ", rowIDs(rows)...)
	case ManyToMany:
		join := rel.JoinTable.Name
		s.q.Columns(s.table.meta.Name + ".*")
		s.q.Join(join, join+"."+rel.TargetJoin.Name+" = "+s.table.meta.Name+"."+schema.IdentityField)
		s.q.Where(join+"."+rel.SourceJoin.Name+" IN ", rowIDs(rows)...)
	}
	return s
}

func (s *SelectQuery) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func rowIDs(rows []*Row) []any {
	ids := make([]any, len(rows))
	for i, row := range rows {
		ids[i] = row.ID()
	}
	return ids
}

// ToSQL compiles the query into SQL text plus its bound values.
func (s *SelectQuery) ToSQL() (string, []any, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.q.ToSQL()
}

// All runs the query and maps every record into a Row.
func (s *SelectQuery) All(ctx context.Context) ([]*Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	records, err := s.q.All(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]*Row, 0, len(records))
	for _, rec := range records {
		row, err := s.table.hydrate(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// One runs the query limited to one row. Returns ErrNotFound when nothing
// matches.
func (s *SelectQuery) One(ctx context.Context) (*Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, err := s.q.One(ctx)
	if err != nil {
		return nil, err
	}
	return s.table.hydrate(rec)
}

// Count runs SELECT COUNT(*) with the same join and where clauses.
func (s *SelectQuery) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.q.Count(ctx)
}

// Exists reports whether the query matches at least one row.
func (s *SelectQuery) Exists(ctx context.Context) (bool, error) {
	_, err := s.Limit(1).One(ctx)
	if errors.Is(err, runtime.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
