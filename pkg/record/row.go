package record

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// Row is one mutable record of a table. Field access resolves through the
// locale fallback, writes flip the dirty flag, and Save only touches the
// database when the flag is set. Related rows load lazily and are cached
// on the row until a join field changes.
//
// Row is not safe for concurrent use.
type Row struct {
	table   *Table
	values  map[string]any
	changed bool
	related map[string]any
}

// Table returns the table this row belongs to.
func (r *Row) Table() *Table { return r.table }

// ID returns the identity value, nil while the row is unsaved.
func (r *Row) ID() any { return r.values[schema.IdentityField] }

// Changed reports whether the row has unsaved modifications.
func (r *Row) Changed() bool { return r.changed }

// Get returns a field value. A miss on the direct name falls back to the
// locale-suffixed variant, then to the cached related rows, and finally
// signals a field error.
func (r *Row) Get(name string) (any, error) {
	if field, ok := r.table.resolveField(name); ok {
		return r.values[field], nil
	}
	if v, ok := r.related[r.relationKey(name)]; ok {
		return v, nil
	}
	return nil, &runtime.FieldError{Table: r.table.Name(), Field: name}
}

// Set writes a field value, resolving the name like Get does. Writing a
// value equal to the current one leaves the dirty flag alone; changing a
// join field also drops the related row cached under it.
func (r *Row) Set(name string, value any) error {
	field, ok := r.table.resolveField(name)
	if !ok {
		return &runtime.FieldError{Table: r.table.Name(), Field: name}
	}
	if reflect.DeepEqual(r.values[field], value) {
		return nil
	}
	r.values[field] = value
	r.changed = true
	if base, found := strings.CutSuffix(field, "_id"); found {
		delete(r.related, base)
	}
	return nil
}

// SetMap writes several fields, stopping at the first unknown name.
func (r *Row) SetMap(values map[string]any) error {
	for name, v := range values {
		if err := r.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Save persists pending changes. A clean row is a no-op. A row without an
// identity is inserted and picks up the generated identity; otherwise the
// matching record is updated. The row comes back clean and cached in the
// session, and is returned for chaining.
func (r *Row) Save(ctx context.Context) (*Row, error) {
	if !r.changed {
		return r, nil
	}

	if r.ID() == nil {
		ins := r.table.Insert()
		for _, f := range r.table.meta.Fields {
			if f.Name == schema.IdentityField {
				continue
			}
			v, err := r.table.encode(f, r.values[f.Name])
			if err != nil {
				return nil, err
			}
			ins.Set(f.Name, v)
		}
		id, err := ins.Run(ctx)
		if err != nil {
			return nil, err
		}
		if id != nil {
			if f := r.table.meta.Identity(); f != nil {
				if id, err = r.table.decode(f, id); err != nil {
					return nil, err
				}
			}
			r.values[schema.IdentityField] = id
		}
	} else {
		upd := r.table.Update()
		for _, f := range r.table.meta.Fields {
			if f.Name == schema.IdentityField {
				continue
			}
			v, err := r.table.encode(f, r.values[f.Name])
			if err != nil {
				return nil, err
			}
			upd.Set(f.Name, v)
		}
		if _, err := upd.Where(schema.IdentityField+" = ?", r.ID()).Run(ctx); err != nil {
			return nil, err
		}
	}

	r.changed = false
	r.table.Cache(r)
	return r, nil
}

// Delete removes the row's record. The identity is cleared and the row
// marked changed, so a later Save re-inserts it as a fresh record.
// Deleting an unsaved row is a no-op.
func (r *Row) Delete(ctx context.Context) error {
	id := r.ID()
	if id == nil {
		return nil
	}
	if _, err := r.table.Delete().Where(schema.IdentityField+" = ?", id).Run(ctx); err != nil {
		return err
	}
	r.table.db.session.Evict(r.table.Name(), id)
	r.values[schema.IdentityField] = nil
	r.changed = true
	return nil
}

// Related returns the row or rows related under the given name. The name
// is a table name, or its plural for the many side. Results are cached on
// the row; a has-one with no match caches and returns nil.
func (r *Row) Related(ctx context.Context, name string) (any, error) {
	key := r.relationKey(name)
	if key == "" {
		return nil, &runtime.FieldError{Table: r.table.Name(), Field: name}
	}
	if v, ok := r.related[key]; ok {
		return v, nil
	}

	target, err := r.table.db.Table(key)
	if err != nil {
		return nil, err
	}
	q := target.Select().RelatedTo(r)
	if q.err != nil {
		return nil, q.err
	}

	if q.IsSingle() {
		row, err := q.One(ctx)
		if err != nil && !errors.Is(err, runtime.ErrNotFound) {
			return nil, err
		}
		if row == nil {
			r.related[key] = nil
			return nil, nil
		}
		r.related[key] = row
		return row, nil
	}

	rows, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	r.related[key] = rows
	return rows, nil
}

// Select starts a query over another table narrowed to rows related to
// this one.
func (r *Row) Select(other *Table) *SelectQuery {
	return other.Select().RelatedTo(r)
}

// Relate links this row to the given rows. Every relation is resolved
// before anything is written, so one unrelated table leaves all rows
// untouched. Link fields on the far side are persisted immediately; the
// call finishes by saving this row.
func (r *Row) Relate(ctx context.Context, others ...*Row) error {
	rels, err := r.resolveAll(others)
	if err != nil {
		return err
	}

	for i, other := range others {
		rel := rels[i]
		switch rel.Kind {
		case HasOne:
			if err := r.Set(rel.JoinField.Name, other.ID()); err != nil {
				return err
			}
		case HasMany:
			if err := other.Set(rel.JoinField.Name, r.ID()); err != nil {
				return err
			}
			if _, err := other.Save(ctx); err != nil {
				return err
			}
		case ManyToMany:
			join := &Table{db: r.table.db, meta: rel.JoinTable}
			_, err := join.Insert().
				Set(rel.SourceJoin.Name, r.ID()).
				Set(rel.TargetJoin.Name, other.ID()).
				Run(ctx)
			if err != nil {
				return err
			}
		}
		delete(r.related, other.table.Name())
	}

	_, err = r.Save(ctx)
	return err
}

// Unrelate severs the link between this row and the given rows. Link
// fields are nulled; a many-to-many link removes exactly the join records
// pairing the two rows. Like Relate, all relations are resolved up front
// and the call finishes by saving this row.
func (r *Row) Unrelate(ctx context.Context, others ...*Row) error {
	rels, err := r.resolveAll(others)
	if err != nil {
		return err
	}

	for i, other := range others {
		rel := rels[i]
		switch rel.Kind {
		case HasOne:
			if err := r.Set(rel.JoinField.Name, nil); err != nil {
				return err
			}
		case HasMany:
			if err := other.Set(rel.JoinField.Name, nil); err != nil {
				return err
			}
			if _, err := other.Save(ctx); err != nil {
				return err
			}
		case ManyToMany:
			join := &Table{db: r.table.db, meta: rel.JoinTable}
			_, err := join.Delete().
				Where(rel.SourceJoin.Name+" = ?", r.ID()).
				Where(rel.TargetJoin.Name+" = ?", other.ID()).
				Run(ctx)
			if err != nil {
				return err
			}
		}
		delete(r.related, other.table.Name())
	}

	_, err = r.Save(ctx)
	return err
}

// UnrelateAll severs every link between this row and the given tables:
// the whole far side of a has-many, every join record of a many-to-many.
func (r *Row) UnrelateAll(ctx context.Context, tables ...*Table) error {
	rels := make([]*Relation, len(tables))
	for i, t := range tables {
		rel, err := r.table.db.resolver.Resolve(r.table.meta, t.meta)
		if err != nil {
			return err
		}
		rels[i] = rel
	}

	for i, t := range tables {
		rel := rels[i]
		switch rel.Kind {
		case HasOne:
			if err := r.Set(rel.JoinField.Name, nil); err != nil {
				return err
			}
		case HasMany:
			_, err := t.Update().
				Set(rel.JoinField.Name, nil).
				Where(rel.JoinField.Name+" = ?", r.ID()).
				Run(ctx)
			if err != nil {
				return err
			}
		case ManyToMany:
			join := &Table{db: r.table.db, meta: rel.JoinTable}
			if _, err := join.Delete().Where(rel.SourceJoin.Name+" = ?", r.ID()).Run(ctx); err != nil {
				return err
			}
		}
		delete(r.related, t.Name())
	}

	_, err := r.Save(ctx)
	return err
}

// ToMap returns a copy of the row's field values.
func (r *Row) ToMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the row's field values as a JSON object.
func (r *Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// resolveAll resolves the relation to every given row before any write
// happens, so a single unrelated table aborts the whole batch cleanly.
func (r *Row) resolveAll(others []*Row) ([]*Relation, error) {
	rels := make([]*Relation, len(others))
	for i, other := range others {
		rel, err := r.table.db.resolver.Resolve(r.table.meta, other.table.meta)
		if err != nil {
			return nil, err
		}
		rels[i] = rel
	}
	return rels, nil
}

// relationKey maps a navigation name onto the related table name,
// singularizing plural forms like "comments".
func (r *Row) relationKey(name string) string {
	if r.table.db.Has(name) {
		return name
	}
	if singular := inflect.Singularize(name); singular != name && r.table.db.Has(singular) {
		return singular
	}
	return ""
}
