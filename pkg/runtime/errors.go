// Package runtime provides the database handle, configuration and error
// types shared by the rest of the module.
package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a single-row query matches nothing.
	ErrNotFound = errors.New("loam: record not found")

	// ErrUnknownField is returned when a field name resolves to nothing on
	// its table, including after locale-suffix fallback.
	ErrUnknownField = errors.New("loam: unknown field")

	// ErrUnknownTable is returned when a table name is not in the registry.
	ErrUnknownTable = errors.New("loam: unknown table")

	// ErrNotRelated is returned when two tables have no discoverable
	// relation: no join field on either side and no join table.
	ErrNotRelated = errors.New("loam: tables not related")

	// ErrNoIdentity is returned when an operation needs an identity field
	// and the table does not declare one.
	ErrNoIdentity = errors.New("loam: table has no identity field")
)

// FieldError reports an unknown field access.
type FieldError struct {
	Table string
	Field string
}

// Error returns the error string.
func (e *FieldError) Error() string {
	return fmt.Sprintf("loam: unknown field %q on table %q", e.Field, e.Table)
}

// Is reports whether the target matches ErrUnknownField.
func (e *FieldError) Is(err error) bool { return err == ErrUnknownField }

// TableError reports a reference to a table the registry does not know.
type TableError struct {
	Table string
}

// Error returns the error string.
func (e *TableError) Error() string {
	return fmt.Sprintf("loam: unknown table %q", e.Table)
}

// Is reports whether the target matches ErrUnknownTable.
func (e *TableError) Is(err error) bool { return err == ErrUnknownTable }

// RelationError reports a relation request between unrelated tables. It is
// raised before any mutation is attempted.
type RelationError struct {
	From string
	To   string
}

// Error returns the error string.
func (e *RelationError) Error() string {
	return fmt.Sprintf("loam: tables %q and %q are not related", e.From, e.To)
}

// Is reports whether the target matches ErrNotRelated.
func (e *RelationError) Is(err error) bool { return err == ErrNotRelated }

// QueryError wraps a database error together with the SQL that caused it.
// The underlying error passes through unmodified for errors.Is/As.
type QueryError struct {
	Query string
	Err   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("loam: query error: %v\nquery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error { return e.Err }
