// Package introspect implements schema.Provider for each supported
// database, reading table and column metadata from the catalogs the
// database itself exposes.
package introspect

import (
	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// ForDialect returns the provider matching a dialect.
func ForDialect(d dialect.Dialect, ex runtime.Executor) schema.Provider {
	switch d.Name {
	case dialect.MySQL.Name:
		return NewMySQL(ex)
	case dialect.SQLite.Name:
		return NewSQLite(ex)
	default:
		return NewPostgres(ex)
	}
}

// asString normalizes the raw catalog values drivers hand back, which arrive
// as string or []byte depending on the driver.
func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// optString returns nil for NULL catalog values.
func optString(v any) *string {
	s, ok := asString(v)
	if !ok {
		return nil
	}
	return &s
}
