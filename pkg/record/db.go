// Package record maps raw database records into mutable Row entities bound
// to their tables, and navigates relations inferred from naming convention
// alone: a field named {table}_id links to that table, and a join table
// named after two tables links them many-to-many.
package record

import (
	"context"
	"io"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/introspect"
	"github.com/loamdb/loam/pkg/registry"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// DB ties an executor, a dialect, a table registry, the relation resolver
// and an identity-cache session together. Rows and queries hang off it.
//
// DB itself holds no mutable state beyond the session; Row and query
// objects are not safe for concurrent use and callers must serialize
// access to them.
type DB struct {
	ex         runtime.Executor
	d          dialect.Dialect
	reg        *registry.Registry
	converters *schema.ConverterRegistry
	resolver   *Resolver
	session    *Session
	locale     string
}

// Option configures a DB.
type Option func(*DB)

// WithLocale enables locale-suffixed field fallback: a miss on "title"
// resolves to "title_en" when the locale is "en".
func WithLocale(locale string) Option {
	return func(db *DB) { db.locale = locale }
}

// WithSession injects an identity-cache session, so tests and units of
// work can run with isolated caches.
func WithSession(s *Session) Option {
	return func(db *DB) { db.session = s }
}

// WithConverters replaces the field-type converter registry.
func WithConverters(c *schema.ConverterRegistry) Option {
	return func(db *DB) { db.converters = c }
}

// New assembles a DB from its parts.
func New(ex runtime.Executor, d dialect.Dialect, reg *registry.Registry, opts ...Option) *DB {
	db := &DB{
		ex:         ex,
		d:          d,
		reg:        reg,
		converters: schema.DefaultConverters,
		resolver:   NewResolver(reg),
		session:    NewSession(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open connects per the config, discovers the schema through the dialect's
// introspection provider, and returns a ready DB.
func Open(ctx context.Context, cfg *runtime.Config, opts ...Option) (*DB, error) {
	rdb, err := runtime.Open(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := reg.Load(ctx, introspect.ForDialect(rdb.Dialect(), rdb)); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	if cfg.Locale != "" {
		opts = append([]Option{WithLocale(cfg.Locale)}, opts...)
	}
	return New(rdb, rdb.Dialect(), reg, opts...), nil
}

// Table returns the table bound to this DB.
func (db *DB) Table(name string) (*Table, error) {
	meta, err := db.reg.Table(name)
	if err != nil {
		return nil, err
	}
	return &Table{db: db, meta: meta}, nil
}

// Has reports whether the registry knows a table.
func (db *DB) Has(name string) bool { return db.reg.Has(name) }

// Tables returns the known table names in registration order.
func (db *DB) Tables() []string { return db.reg.Names() }

// Locale returns the active locale, empty when disabled.
func (db *DB) Locale() string { return db.locale }

// Session returns the identity-cache session.
func (db *DB) Session() *Session { return db.session }

// Resolver returns the relation resolver.
func (db *DB) Resolver() *Resolver { return db.resolver }

// Close releases the underlying connection when the DB owns one.
func (db *DB) Close() error {
	if c, ok := db.ex.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
