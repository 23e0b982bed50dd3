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

func TestUpdateQuery_ToSQL(t *testing.T) {
	table := postTable(t)

	t.Run("basic", func(t *testing.T) {
		sql, args, err := NewUpdate(nil, dialect.MySQL, table).
			Set("title", "new").
			Where("id = ?", 1).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "UPDATE `post` SET `title` = ? WHERE id = ?", sql)
		assert.Equal(t, []any{"new", 1}, args)
	})

	t.Run("postgres numbering spans set and where", func(t *testing.T) {
		sql, args, err := NewUpdate(nil, dialect.Postgres, table).
			Set("title", "new").
			Set("age", 5).
			Where("id = ?", 1).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "post" SET "title" = $1, "age" = $2 WHERE id = $3`, sql)
		assert.Equal(t, []any{"new", 5, 1}, args)
	})

	t.Run("no where is allowed", func(t *testing.T) {
		sql, _, err := NewUpdate(nil, dialect.MySQL, table).Set("age", 0).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "UPDATE `post` SET `age` = ?", sql)
	})

	t.Run("limit kept where the dialect allows it", func(t *testing.T) {
		sql, args, err := NewUpdate(nil, dialect.MySQL, table).
			Set("age", 0).
			Limit(10).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "UPDATE `post` SET `age` = ? LIMIT ?", sql)
		assert.Equal(t, []any{0, 10}, args)
	})

	t.Run("limit suppressed where the dialect forbids it", func(t *testing.T) {
		sql, args, err := NewUpdate(nil, dialect.Postgres, table).
			Set("age", 0).
			Limit(10).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "post" SET "age" = $1`, sql)
		assert.Equal(t, []any{0}, args)
	})

	t.Run("no sets is rejected", func(t *testing.T) {
		_, _, err := NewUpdate(nil, dialect.MySQL, table).ToSQL()
		require.Error(t, err)
	})
}

func TestUpdateQuery_Run(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	mock.ExpectExec("UPDATE `post` SET `title` = \\? WHERE id = \\?").
		WithArgs("new", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	db := runtime.OpenDB(dialect.MySQL, sqldb)
	n, err := NewUpdate(db, dialect.MySQL, postTable(t)).
		Set("title", "new").
		Where("id = ?", 1).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
