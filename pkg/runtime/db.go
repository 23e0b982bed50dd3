package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/loamdb/loam/pkg/dialect"
)

// Record is one raw result row: field name to driver value, before any
// field-type conversion.
type Record map[string]any

// Executor is the connection contract the builders execute against: it
// accepts compiled SQL plus an ordered bound-value list and returns either
// raw records, an affected-row count, or a generated identity.
type Executor interface {
	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...any) ([]Record, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Insert runs an insert statement and returns the generated identity.
	Insert(ctx context.Context, query string, args ...any) (any, error)
}

// DB wraps *sql.DB with the dialect it speaks. It is safe for concurrent
// use to the extent database/sql is; the objects layered on top are not.
type DB struct {
	sqldb *sql.DB
	d     dialect.Dialect
}

// Open opens a connection per the config and verifies it with a ping.
func Open(cfg *Config) (*DB, error) {
	d, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("loam: DSN must not be empty")
	}

	sqldb, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("loam: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("loam: ping: %w", err)
	}

	return &DB{sqldb: sqldb, d: d}, nil
}

// OpenDB wraps an existing *sql.DB. Used by tests and by callers that
// manage the pool themselves.
func OpenDB(d dialect.Dialect, sqldb *sql.DB) *DB {
	return &DB{sqldb: sqldb, d: d}
}

// Dialect returns the dialect this handle speaks.
func (db *DB) Dialect() dialect.Dialect { return db.d }

// Raw returns the underlying *sql.DB.
func (db *DB) Raw() *sql.DB { return db.sqldb }

// Close closes the pool.
func (db *DB) Close() error { return db.sqldb.Close() }

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error { return db.sqldb.PingContext(ctx) }

// Query executes a statement and materializes every row as a Record in
// result order. The rows handle is released on every exit path.
func (db *DB) Query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := db.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(cols))
		targets := make([]any, len(cols))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return records, nil
}

// Exec executes a statement and returns the affected-row count.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := db.sqldb.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}
	return n, nil
}

// Insert executes an insert and returns the generated identity. Statements
// compiled with RETURNING scan it from the result; the others fall back to
// LastInsertId.
func (db *DB) Insert(ctx context.Context, query string, args ...any) (any, error) {
	if db.d.SupportsReturning && strings.Contains(query, " RETURNING ") {
		var id any
		if err := db.sqldb.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		return id, nil
	}

	res, err := db.sqldb.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return id, nil
}
