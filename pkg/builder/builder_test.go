package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loamdb/loam/pkg/schema"
)

// postTable builds the table used across the builder tests.
func postTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("post", []*schema.Field{
		schema.ParseField("id", "int(10) unsigned", false, nil),
		schema.ParseField("title", "varchar(255)", false, nil),
		schema.ParseField("age", "int(11)", true, nil),
		schema.ParseField("category_id", "int(10) unsigned", true, nil),
	})
	require.NoError(t, err)
	return tbl
}

// joinTable builds a join table that carries no identity field of its own.
func joinTable(t *testing.T) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable("post_tag", []*schema.Field{
		schema.ParseField("post_id", "int(10) unsigned", false, nil),
		schema.ParseField("tag_id", "int(10) unsigned", false, nil),
	})
	require.NoError(t, err)
	return tbl
}
