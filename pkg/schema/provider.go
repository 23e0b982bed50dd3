package schema

import "context"

// Provider supplies table names and per-field metadata from some schema
// source. The rest of the system depends only on this contract, never on a
// particular introspection mechanism.
type Provider interface {
	// Tables lists the table names visible to the connection.
	Tables(ctx context.Context) ([]string, error)

	// TableFields returns the ordered field descriptors of one table.
	TableFields(ctx context.Context, table string) ([]*Field, error)
}
