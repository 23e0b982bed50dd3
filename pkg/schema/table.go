package schema

import "fmt"

// IdentityField is the conventional name of the identity column every table
// is expected to carry.
const IdentityField = "id"

// Table holds the ordered field set of one table. Field names are unique
// within a table.
type Table struct {
	Name   string
	Fields []*Field

	index map[string]*Field
}

// NewTable builds a Table from an ordered field list. Duplicate field names
// are rejected.
func NewTable(name string, fields []*Field) (*Table, error) {
	t := &Table{
		Name:   name,
		Fields: fields,
		index:  make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		if _, ok := t.index[f.Name]; ok {
			return nil, fmt.Errorf("schema: duplicate field %q in table %q", f.Name, name)
		}
		t.index[f.Name] = f
	}
	return t, nil
}

// Field returns the descriptor for name.
func (t *Table) Field(name string) (*Field, bool) {
	f, ok := t.index[name]
	return f, ok
}

// Has reports whether the table declares a field with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Identity returns the identity field, or nil when the table does not follow
// the convention.
func (t *Table) Identity() *Field {
	return t.index[IdentityField]
}

// FieldNames returns the field names in declaration order.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}
