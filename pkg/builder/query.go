// Package builder constructs and executes parameterized SQL statements.
//
// Every builder accumulates clauses, compiles lazily when it runs, and
// recompiles if more clauses are added before a re-run. Compiled SQL always
// places clauses in the same order — join, where, group/order, limit,
// offset — regardless of the order the methods were called, and every
// literal value travels as a bound parameter, never interpolated into the
// statement text.
package builder

import (
	"fmt"
	"strings"

	"github.com/loamdb/loam/pkg/dialect"
)

// Condition is one AND-ed WHERE fragment with its bound values. Fragments
// use ? placeholders; compilation rebinds them to the dialect's markers.
type Condition struct {
	Fragment string
	Args     []any
}

// Join is one JOIN clause.
type Join struct {
	Table string
	On    string
	Args  []any
}

// Direction is an ORDER BY sort direction.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "ASC"
	// Desc sorts descending.
	Desc Direction = "DESC"
)

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Field     string
	Direction Direction
}

// expand ensures a fragment carries exactly one ? per bound value. A
// fragment with no placeholder gets them appended, so Where("age > ", 18)
// compiles to "age > ?" and Where("id IN ", 1, 2) to "id IN (?, ?)".
func expand(fragment string, args []any) (string, error) {
	n := strings.Count(fragment, "?")
	if n == 0 && len(args) > 0 {
		if len(args) == 1 {
			return fragment + "?", nil
		}
		return fragment + "(?" + strings.Repeat(", ?", len(args)-1) + ")", nil
	}
	if n != len(args) {
		return "", fmt.Errorf("builder: fragment %q has %d placeholders for %d values", fragment, n, len(args))
	}
	return fragment, nil
}

// compileWhere renders conditions as an AND-joined WHERE clause, rebinding
// placeholders starting at *n.
func compileWhere(conds []Condition, d dialect.Dialect, n *int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		fragment, err := expand(c.Fragment, c.Args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, d.Rebind(fragment, n))
		args = append(args, c.Args...)
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}
