package record

import (
	"strings"
	"sync"

	"github.com/loamdb/loam/pkg/registry"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// Kind classifies how two tables relate.
type Kind int

const (
	// HasOne means the source table carries a {target}_id field.
	HasOne Kind = iota + 1
	// HasMany means the target table carries a {source}_id field.
	HasMany
	// ManyToMany means a join table named after the two tables carries
	// a join field for each side.
	ManyToMany
)

func (k Kind) String() string {
	switch k {
	case HasOne:
		return "has-one"
	case HasMany:
		return "has-many"
	case ManyToMany:
		return "many-to-many"
	}
	return "unknown"
}

// Relation describes the inferred link from a source table to a target.
type Relation struct {
	Kind Kind

	// JoinField is the {table}_id field carrying the link. For HasOne it
	// lives on the source table, for HasMany on the target.
	JoinField *schema.Field

	// JoinTable and its two fields are set for ManyToMany only.
	JoinTable  *schema.Table
	SourceJoin *schema.Field
	TargetJoin *schema.Field
}

// Resolver infers relations between registered tables. Resolution tries
// has-one first, then has-many, then a many-to-many join table, and the
// outcome is cached per ordered table pair, negative results included.
type Resolver struct {
	reg *registry.Registry

	mu    sync.Mutex
	cache map[string]*Relation
}

// NewResolver builds a resolver over a table registry.
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg, cache: make(map[string]*Relation)}
}

// Resolve infers the relation from source to target. It returns a
// RelationError when no naming convention connects the two tables.
func (r *Resolver) Resolve(source, target *schema.Table) (*Relation, error) {
	key := source.Name + "\x00" + target.Name

	r.mu.Lock()
	rel, hit := r.cache[key]
	r.mu.Unlock()

	if !hit {
		rel = r.infer(source, target)
		r.mu.Lock()
		r.cache[key] = rel
		r.mu.Unlock()
	}
	if rel == nil {
		return nil, &runtime.RelationError{From: source.Name, To: target.Name}
	}
	return rel, nil
}

// Invalidate drops cached relations touching a table. Call it after the
// registry changes shape.
func (r *Resolver) Invalidate(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		from, to, _ := strings.Cut(key, "\x00")
		if from == table || to == table {
			delete(r.cache, key)
		}
	}
}

func (r *Resolver) infer(source, target *schema.Table) *Relation {
	if f, ok := source.Field(JoinFieldName(target.Name)); ok {
		return &Relation{Kind: HasOne, JoinField: f}
	}
	if f, ok := target.Field(JoinFieldName(source.Name)); ok {
		return &Relation{Kind: HasMany, JoinField: f}
	}

	// Join table: either name order counts, but it must carry both
	// join fields to qualify.
	for _, name := range []string{source.Name + "_" + target.Name, target.Name + "_" + source.Name} {
		if !r.reg.Has(name) {
			continue
		}
		join, err := r.reg.Table(name)
		if err != nil {
			continue
		}
		src, okSrc := join.Field(JoinFieldName(source.Name))
		tgt, okTgt := join.Field(JoinFieldName(target.Name))
		if okSrc && okTgt {
			return &Relation{Kind: ManyToMany, JoinTable: join, SourceJoin: src, TargetJoin: tgt}
		}
	}
	return nil
}

// JoinFieldName returns the conventional name of the field referencing a
// table, "post_id" for "post".
func JoinFieldName(table string) string { return table + "_id" }
