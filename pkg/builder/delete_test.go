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

func TestDeleteQuery_ToSQL(t *testing.T) {
	table := postTable(t)

	t.Run("basic", func(t *testing.T) {
		sql, args, err := NewDelete(nil, dialect.MySQL, table).
			Where("id = ?", 1).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM `post` WHERE id = ?", sql)
		assert.Equal(t, []any{1}, args)
	})

	t.Run("no where is allowed", func(t *testing.T) {
		sql, _, err := NewDelete(nil, dialect.MySQL, table).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM `post`", sql)
	})

	t.Run("limit kept where the dialect allows it", func(t *testing.T) {
		sql, args, err := NewDelete(nil, dialect.MySQL, table).
			Where("age > ?", 90).
			Limit(5).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM `post` WHERE age > ? LIMIT ?", sql)
		assert.Equal(t, []any{90, 5}, args)
	})

	t.Run("limit suppressed where the dialect forbids it", func(t *testing.T) {
		sql, args, err := NewDelete(nil, dialect.Postgres, table).
			Where("age > ?", 90).
			Limit(5).
			ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `DELETE FROM "post" WHERE age > $1`, sql)
		assert.Equal(t, []any{90}, args)
	})

	t.Run("adapter toggle suppresses without changing call sites", func(t *testing.T) {
		d := dialect.MySQL
		d.DeleteLimit = false
		sql, _, err := NewDelete(nil, d, table).Where("age > ?", 90).Limit(5).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM `post` WHERE age > ?", sql)
	})
}

func TestDeleteQuery_Run(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	mock.ExpectExec("DELETE FROM `post` WHERE id = \\?").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	db := runtime.OpenDB(dialect.MySQL, sqldb)
	n, err := NewDelete(db, dialect.MySQL, postTable(t)).
		Where("id = ?", 1).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
