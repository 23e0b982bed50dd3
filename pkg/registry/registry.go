// Package registry keeps the table schemas discovered from a Provider.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// Registry is a thread-safe, name-keyed store of table schemas. It is
// populated once from a schema.Provider and read everywhere else.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*schema.Table
	order  []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tables: make(map[string]*schema.Table)}
}

// Load discovers every table the provider exposes and registers it.
func (r *Registry) Load(ctx context.Context, p schema.Provider) error {
	names, err := p.Tables(ctx)
	if err != nil {
		return fmt.Errorf("registry: discover tables: %w", err)
	}
	for _, name := range names {
		fields, err := p.TableFields(ctx, name)
		if err != nil {
			return fmt.Errorf("registry: discover %s: %w", name, err)
		}
		table, err := schema.NewTable(name, fields)
		if err != nil {
			return err
		}
		if err := r.Register(table); err != nil {
			return err
		}
	}
	return nil
}

// Register adds one table. Registering the same name twice is a no-op so
// Load can be re-run after schema changes without churn.
func (r *Registry) Register(t *schema.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[t.Name]; ok {
		return nil
	}
	r.tables[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Table retrieves a table schema by name.
func (r *Registry) Table(name string) (*schema.Table, error) {
	r.mu.RLock()
	t, ok := r.tables[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &runtime.TableError{Table: name}
	}
	return t, nil
}

// Has reports whether the registry knows a table.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.tables[name]
	r.mu.RUnlock()
	return ok
}

// Names returns the registered table names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Clear removes every table. Used by tests that need isolation.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.tables = make(map[string]*schema.Table)
	r.order = nil
	r.mu.Unlock()
}
