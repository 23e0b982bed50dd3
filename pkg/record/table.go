package record

import (
	"context"
	"fmt"

	"github.com/loamdb/loam/pkg/builder"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// Table binds a table's schema to a DB. It spawns queries and rows and
// fills in defaults for fresh records.
type Table struct {
	db   *DB
	meta *schema.Table
}

// Name returns the table name.
func (t *Table) Name() string { return t.meta.Name }

// Meta returns the table schema.
func (t *Table) Meta() *schema.Table { return t.meta }

// DB returns the owning DB.
func (t *Table) DB() *DB { return t.db }

// Select starts a row query over this table.
func (t *Table) Select() *SelectQuery {
	return &SelectQuery{table: t, q: builder.NewSelect(t.db.ex, t.db.d, t.meta)}
}

// Insert starts a raw insert into this table.
func (t *Table) Insert() *builder.InsertQuery {
	return builder.NewInsert(t.db.ex, t.db.d, t.meta)
}

// Update starts a raw update of this table.
func (t *Table) Update() *builder.UpdateQuery {
	return builder.NewUpdate(t.db.ex, t.db.d, t.meta)
}

// Delete starts a raw delete from this table.
func (t *Table) Delete() *builder.DeleteQuery {
	return builder.NewDelete(t.db.ex, t.db.d, t.meta)
}

// Defaults completes a partial value map into a full record: present keys
// are kept, absent fields take their schema default, then nil when
// nullable, then the zero value of their kind. The identity field stays
// nil so the row reads as unsaved. Unknown keys are rejected.
func (t *Table) Defaults(values map[string]any) (map[string]any, error) {
	for name := range values {
		if !t.meta.Has(name) {
			return nil, &runtime.FieldError{Table: t.meta.Name, Field: name}
		}
	}

	out := make(map[string]any, len(t.meta.Fields))
	for _, f := range t.meta.Fields {
		if v, ok := values[f.Name]; ok {
			out[f.Name] = v
			continue
		}
		switch {
		case f.Name == schema.IdentityField:
			out[f.Name] = nil
		case f.Default != nil:
			out[f.Name] = f.Default
		case f.Nullable:
			out[f.Name] = nil
		default:
			out[f.Name] = schema.ZeroValue(f.Kind)
		}
	}
	return out, nil
}

// NewRow builds a fresh unsaved row from a partial value map. Keys resolve
// through the locale fallback before defaults are applied, and the row is
// born changed so Save persists it.
func (t *Table) NewRow(values map[string]any) (*Row, error) {
	resolved := make(map[string]any, len(values))
	for name, v := range values {
		field, ok := t.resolveField(name)
		if !ok {
			return nil, &runtime.FieldError{Table: t.meta.Name, Field: name}
		}
		resolved[field] = v
	}
	full, err := t.Defaults(resolved)
	if err != nil {
		return nil, err
	}
	return &Row{table: t, values: full, changed: true, related: make(map[string]any)}, nil
}

// Find loads the row with the given identity. Tables without an identity
// field, such as join tables, cannot be addressed this way and return
// ErrNoIdentity.
func (t *Table) Find(ctx context.Context, id any) (*Row, error) {
	if t.meta.Identity() == nil {
		return nil, runtime.ErrNoIdentity
	}
	return t.Select().Where(schema.IdentityField+" = ?", id).One(ctx)
}

// JoinField returns this table's field referencing another table, if any.
func (t *Table) JoinField(other *Table) (*schema.Field, bool) {
	return t.meta.Field(JoinFieldName(other.Name()))
}

// JoinTable returns the many-to-many join table between this table and
// another, trying both name orders.
func (t *Table) JoinTable(other *Table) (*Table, bool) {
	rel, err := t.db.resolver.Resolve(t.meta, other.meta)
	if err != nil || rel.Kind != ManyToMany {
		return nil, false
	}
	return &Table{db: t.db, meta: rel.JoinTable}, true
}

// Cache records a row in the session under its identity. Rows without an
// identity are not cacheable and are ignored.
func (t *Table) Cache(row *Row) {
	if id := row.ID(); id != nil {
		t.db.session.Put(t.meta.Name, id, row)
	}
}

// resolveField maps a requested name onto a schema field, falling back to
// the locale-suffixed variant when the direct name is absent.
func (t *Table) resolveField(name string) (string, bool) {
	if t.meta.Has(name) {
		return name, true
	}
	if t.db.locale != "" {
		localized := name + "_" + t.db.locale
		if t.meta.Has(localized) {
			return localized, true
		}
	}
	return "", false
}

// hydrate turns a raw record into a Row, decoding values through the
// converter registry. When the session already holds a row for the same
// identity that instance is refreshed and returned, so callers always see
// one object per persisted record.
func (t *Table) hydrate(rec runtime.Record) (*Row, error) {
	values := make(map[string]any, len(rec))
	for name, raw := range rec {
		f, ok := t.meta.Field(name)
		if !ok {
			// Joined-in column outside the schema, keep it verbatim.
			values[name] = raw
			continue
		}
		v, err := t.decode(f, raw)
		if err != nil {
			return nil, fmt.Errorf("loam: decode %s.%s: %w", t.meta.Name, name, err)
		}
		values[name] = v
	}

	if id, ok := values[schema.IdentityField]; ok && id != nil {
		if cached, hit := t.db.session.Get(t.meta.Name, id); hit {
			cached.values = values
			cached.changed = false
			return cached, nil
		}
	}

	row := &Row{table: t, values: values, related: make(map[string]any)}
	t.Cache(row)
	return row, nil
}

func (t *Table) decode(f *schema.Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return t.db.converters.For(f).Decode(raw)
}

func (t *Table) encode(f *schema.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return t.db.converters.For(f).Encode(v)
}
