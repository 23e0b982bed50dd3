//go:build integration
// +build integration

package loam_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loamdb/loam/pkg/record"
	"github.com/loamdb/loam/pkg/runtime"
)

// setupTestDB creates a PostgreSQL container and returns its DSN
func setupTestDB(t *testing.T) string {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	return connStr
}

// createTestSchema lays down the blog tables the discovery will find
func createTestSchema(t *testing.T, ctx context.Context, rdb *runtime.DB) {
	statements := []string{
		`CREATE TABLE category (
			id serial PRIMARY KEY,
			name varchar(100) NOT NULL
		)`,
		`CREATE TABLE post (
			id serial PRIMARY KEY,
			title_en varchar(255) NOT NULL,
			title_de varchar(255),
			category_id integer
		)`,
		`CREATE TABLE comment (
			id serial PRIMARY KEY,
			post_id integer NOT NULL,
			body text
		)`,
		`CREATE TABLE tag (
			id serial PRIMARY KEY,
			name varchar(100) NOT NULL
		)`,
		`CREATE TABLE post_tag (
			post_id integer NOT NULL,
			tag_id integer NOT NULL,
			PRIMARY KEY (post_id, tag_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := rdb.Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}
}

func openTestDB(t *testing.T) *record.DB {
	ctx := context.Background()
	dsn := setupTestDB(t)

	cfg := &runtime.Config{Driver: "postgres", DSN: dsn, Locale: "en"}
	rdb, err := runtime.Open(cfg)
	require.NoError(t, err)
	createTestSchema(t, ctx, rdb)
	require.NoError(t, rdb.Close())

	db, err := record.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIntegration_DiscoveryAndRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	assert.ElementsMatch(t, []string{"category", "post", "comment", "tag", "post_tag"}, db.Tables())

	categories, err := db.Table("category")
	require.NoError(t, err)
	posts, err := db.Table("post")
	require.NoError(t, err)

	news, err := categories.NewRow(map[string]any{"name": "news"})
	require.NoError(t, err)
	_, err = news.Save(ctx)
	require.NoError(t, err)
	require.NotNil(t, news.ID())

	// Locale fallback resolves "title" onto title_en.
	post, err := posts.NewRow(map[string]any{"title": "hello world"})
	require.NoError(t, err)
	_, err = post.Save(ctx)
	require.NoError(t, err)

	title, err := post.Get("title")
	require.NoError(t, err)
	assert.Equal(t, "hello world", title)

	// A clean row saves without touching the database.
	assert.False(t, post.Changed())
	_, err = post.Save(ctx)
	require.NoError(t, err)

	// Reloading by identity hands back the same instance.
	again, err := posts.Find(ctx, post.ID())
	require.NoError(t, err)
	assert.Same(t, post, again)
}

func TestIntegration_Relations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	categories, err := db.Table("category")
	require.NoError(t, err)
	posts, err := db.Table("post")
	require.NoError(t, err)
	comments, err := db.Table("comment")
	require.NoError(t, err)
	tags, err := db.Table("tag")
	require.NoError(t, err)

	news, err := categories.NewRow(map[string]any{"name": "news"})
	require.NoError(t, err)
	_, err = news.Save(ctx)
	require.NoError(t, err)

	post, err := posts.NewRow(map[string]any{"title": "hello"})
	require.NoError(t, err)
	_, err = post.Save(ctx)
	require.NoError(t, err)

	golang, err := tags.NewRow(map[string]any{"name": "golang"})
	require.NoError(t, err)
	_, err = golang.Save(ctx)
	require.NoError(t, err)

	// has-one, far side of a has-many and many-to-many in one call.
	require.NoError(t, post.Relate(ctx, news, golang))

	related, err := post.Related(ctx, "category")
	require.NoError(t, err)
	assert.Same(t, news, related.(*record.Row))

	for i := 0; i < 2; i++ {
		comment, err := comments.NewRow(map[string]any{"body": "nice"})
		require.NoError(t, err)
		require.NoError(t, comment.Relate(ctx, post))
	}

	// Pluralized navigation over the many side.
	v, err := post.Related(ctx, "comments")
	require.NoError(t, err)
	assert.Len(t, v.([]*record.Row), 2)

	postTags, err := post.Select(tags).All(ctx)
	require.NoError(t, err)
	require.Len(t, postTags, 1)
	assert.Same(t, golang, postTags[0])

	// Unrelating removes exactly the join record.
	require.NoError(t, post.Unrelate(ctx, golang))
	count, err := tags.Select().RelatedTo(post).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Unrelated tables refuse before writing anything.
	err = news.Relate(ctx, golang)
	assert.ErrorIs(t, err, runtime.ErrNotRelated)
}

func TestIntegration_DeleteAndReinsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	posts, err := db.Table("post")
	require.NoError(t, err)

	post, err := posts.NewRow(map[string]any{"title": "short lived"})
	require.NoError(t, err)
	_, err = post.Save(ctx)
	require.NoError(t, err)
	firstID := post.ID()

	require.NoError(t, post.Delete(ctx))
	assert.Nil(t, post.ID())

	count, err := posts.Select().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The cleared row saves again as a fresh record.
	_, err = post.Save(ctx)
	require.NoError(t, err)
	require.NotNil(t, post.ID())
	assert.NotEqual(t, firstID, post.ID())
}
