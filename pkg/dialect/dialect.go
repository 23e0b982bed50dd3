// Package dialect captures the per-database SQL differences the builders
// consult: placeholder style, identifier quoting, RETURNING support, and
// whether LIMIT/OFFSET are legal on UPDATE and DELETE statements.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes one supported database flavor. Values are plain data so
// adapters can tweak a copy (for instance to suppress delete limits) without
// the builders or their call sites changing.
type Dialect struct {
	// Name identifies the dialect: "postgres", "mysql" or "sqlite".
	Name string

	// Driver is the database/sql driver name to open connections with.
	Driver string

	// SupportsReturning reports whether INSERT ... RETURNING is available
	// for reading generated identities.
	SupportsReturning bool

	// DeleteLimit and UpdateLimit gate LIMIT/OFFSET clauses on DELETE and
	// UPDATE. When false the builders silently drop those clauses.
	DeleteLimit bool
	UpdateLimit bool

	dollar bool // $n placeholders instead of ?
	quote  byte
}

// Postgres is the PostgreSQL dialect, served by the pgx stdlib driver.
var Postgres = Dialect{
	Name:              "postgres",
	Driver:            "pgx",
	SupportsReturning: true,
	dollar:            true,
	quote:             '"',
}

// MySQL is the MySQL/MariaDB dialect.
var MySQL = Dialect{
	Name:        "mysql",
	Driver:      "mysql",
	DeleteLimit: true,
	UpdateLimit: true,
	quote:       '`',
}

// SQLite is the SQLite dialect, served by the cgo-free modernc driver.
var SQLite = Dialect{
	Name:              "sqlite",
	Driver:            "sqlite",
	SupportsReturning: true,
	quote:             '"',
}

// ByName resolves a dialect from its name.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("dialect: unknown dialect %q", name)
}

// Placeholder returns the n-th bound-parameter marker (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.dollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote wraps an identifier in the dialect's quoting characters.
func (d Dialect) Quote(ident string) string {
	q := d.quote
	if q == 0 {
		q = '"'
	}
	return string(q) + ident + string(q)
}

// Rebind rewrites the ? placeholders of a fragment into the dialect's
// markers, numbering from *n, and advances *n past the fragment. For ?-based
// dialects the fragment passes through with only the count updated.
func (d Dialect) Rebind(fragment string, n *int) string {
	if !d.dollar {
		*n += strings.Count(fragment, "?")
		return fragment
	}
	var b strings.Builder
	b.Grow(len(fragment) + 4)
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' {
			b.WriteString("$" + strconv.Itoa(*n))
			*n++
			continue
		}
		b.WriteByte(fragment[i])
	}
	return b.String()
}
