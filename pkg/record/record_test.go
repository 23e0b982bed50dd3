package record

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/registry"
	"github.com/loamdb/loam/pkg/runtime"
	"github.com/loamdb/loam/pkg/schema"
)

// blogRegistry wires up the schema the record tests run against: posts in
// categories, comments on posts, tags joined through post_tag.
func blogRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	tables := []struct {
		name   string
		fields []*schema.Field
	}{
		{"category", []*schema.Field{
			schema.ParseField("id", "int(10) unsigned", false, nil),
			schema.ParseField("name", "varchar(100)", false, nil),
		}},
		{"post", []*schema.Field{
			schema.ParseField("id", "int(10) unsigned", false, nil),
			schema.ParseField("title_en", "varchar(255)", false, nil),
			schema.ParseField("title_de", "varchar(255)", true, nil),
			schema.ParseField("category_id", "int(10) unsigned", true, nil),
		}},
		{"comment", []*schema.Field{
			schema.ParseField("id", "int(10) unsigned", false, nil),
			schema.ParseField("post_id", "int(10) unsigned", false, nil),
			schema.ParseField("body", "text", true, nil),
		}},
		{"tag", []*schema.Field{
			schema.ParseField("id", "int(10) unsigned", false, nil),
			schema.ParseField("name", "varchar(100)", false, nil),
		}},
		// post_tag carries no identity column of its own, join tables
		// usually don't.
		{"post_tag", []*schema.Field{
			schema.ParseField("post_id", "int(10) unsigned", false, nil),
			schema.ParseField("tag_id", "int(10) unsigned", false, nil),
		}},
	}
	for _, tt := range tables {
		tbl, err := schema.NewTable(tt.name, tt.fields)
		require.NoError(t, err)
		require.NoError(t, reg.Register(tbl))
	}
	return reg
}

// testDB builds a DB over the blog schema backed by sqlmock, with the
// locale fallback active.
func testDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	rdb := runtime.OpenDB(dialect.MySQL, sqldb)
	return New(rdb, dialect.MySQL, blogRegistry(t), WithLocale("en")), mock
}

// testPostgresDB builds the same schema over the postgres dialect.
func testPostgresDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	rdb := runtime.OpenDB(dialect.Postgres, sqldb)
	return New(rdb, dialect.Postgres, blogRegistry(t), WithLocale("en")), mock
}

// loadPost plays a single-row fetch through the mock and returns the
// hydrated row.
func loadPost(t *testing.T, db *DB, mock sqlmock.Sqlmock, id int64) *Row {
	t.Helper()
	tbl, err := db.Table("post")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `post` WHERE id = \\? LIMIT \\?").
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title_en", "title_de", "category_id"}).
			AddRow(id, "hello", "hallo", int64(2)))

	row, err := tbl.Find(context.Background(), id)
	require.NoError(t, err)
	return row
}

func loadCategory(t *testing.T, db *DB, mock sqlmock.Sqlmock, id int64) *Row {
	t.Helper()
	tbl, err := db.Table("category")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `category` WHERE id = \\? LIMIT \\?").
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(id, "news"))

	row, err := tbl.Find(context.Background(), id)
	require.NoError(t, err)
	return row
}

func loadTag(t *testing.T, db *DB, mock sqlmock.Sqlmock, id int64) *Row {
	t.Helper()
	tbl, err := db.Table("tag")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `tag` WHERE id = \\? LIMIT \\?").
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(id, "golang"))

	row, err := tbl.Find(context.Background(), id)
	require.NoError(t, err)
	return row
}
