package builder

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdb/loam/pkg/dialect"
	"github.com/loamdb/loam/pkg/runtime"
)

func TestInsertQuery_ToSQL(t *testing.T) {
	table := postTable(t)

	t.Run("mysql", func(t *testing.T) {
		sql, args, err := NewInsert(nil, dialect.MySQL, table).
			Set("title", "hello").
			Set("age", 3).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO `post` (`title`, `age`) VALUES (?, ?)", sql)
		assert.Equal(t, []any{"hello", 3}, args)
	})

	t.Run("postgres appends returning", func(t *testing.T) {
		sql, args, err := NewInsert(nil, dialect.Postgres, table).
			Set("title", "hello").
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "post" ("title") VALUES ($1) RETURNING "id"`, sql)
		assert.Equal(t, []any{"hello"}, args)
	})

	t.Run("postgres skips returning when the table has no identity", func(t *testing.T) {
		sql, args, err := NewInsert(nil, dialect.Postgres, joinTable(t)).
			Set("post_id", 1).
			Set("tag_id", 2).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "post_tag" ("post_id", "tag_id") VALUES ($1, $2)`, sql)
		assert.Equal(t, []any{1, 2}, args)
	})

	t.Run("values follows declaration order", func(t *testing.T) {
		sql, args, err := NewInsert(nil, dialect.MySQL, table).
			Values(map[string]any{"age": 3, "title": "hello"}).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO `post` (`title`, `age`) VALUES (?, ?)", sql)
		assert.Equal(t, []any{"hello", 3}, args)
	})

	t.Run("empty insert is rejected", func(t *testing.T) {
		_, _, err := NewInsert(nil, dialect.MySQL, table).ToSQL()
		require.Error(t, err)
	})
}

func TestInsertQuery_Run(t *testing.T) {
	table := postTable(t)

	t.Run("mysql identity via last insert id", func(t *testing.T) {
		sqldb, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqldb.Close()

		mock.ExpectExec("INSERT INTO `post`").
			WithArgs("hello").
			WillReturnResult(sqlmock.NewResult(11, 1))

		db := runtime.OpenDB(dialect.MySQL, sqldb)
		id, err := NewInsert(db, dialect.MySQL, table).Set("title", "hello").Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres identity via returning", func(t *testing.T) {
		sqldb, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqldb.Close()

		mock.ExpectQuery(`INSERT INTO "post" .* RETURNING "id"`).
			WithArgs("hello").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

		db := runtime.OpenDB(dialect.Postgres, sqldb)
		id, err := NewInsert(db, dialect.Postgres, table).Set("title", "hello").Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	// pgx's database/sql driver has no LastInsertId, so a table without an
	// identity field must not reach that path.
	t.Run("postgres table without identity returns nil", func(t *testing.T) {
		sqldb, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqldb.Close()

		mock.ExpectExec(`INSERT INTO "post_tag" \("post_id", "tag_id"\) VALUES \(\$1, \$2\)`).
			WithArgs(1, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		db := runtime.OpenDB(dialect.Postgres, sqldb)
		id, err := NewInsert(db, dialect.Postgres, joinTable(t)).
			Set("post_id", 1).
			Set("tag_id", 2).
			Run(context.Background())
		require.NoError(t, err)
		assert.Nil(t, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
