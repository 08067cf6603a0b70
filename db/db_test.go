// ABOUTME: Tests for store opening, entity access, bookmarks, and views
// ABOUTME: Runs against in-memory stores plus on-disk badger and sqlite
package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/kinship/config"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []config.StoreConfig{
		{Backend: config.BackendMemory},
		{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")},
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "sqlite", "kinship.db")},
	}

	for _, cfg := range cases {
		t.Run(cfg.Backend, func(t *testing.T) {
			database, err := Open(cfg)
			require.NoError(t, err)
			defer database.Close()

			ctx := context.Background()
			user, err := database.CreateUser(ctx, "alice", "Alice")
			require.NoError(t, err)
			assert.Equal(t, "alice", user.ID)

			got, err := database.GetUser(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "Alice", got.Fields["name"])
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(config.StoreConfig{Backend: "couch"})
	assert.Error(t, err)
}

func TestGetKindMismatch(t *testing.T) {
	ctx := context.Background()
	database := NewTestDB(t)

	_, err := database.CreateUser(ctx, "alice", "Alice")
	require.NoError(t, err)

	_, err = database.GetRelationship(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = database.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBookmarks(t *testing.T) {
	ctx := context.Background()
	database := NewTestDB(t)

	rel, err := database.CreateRelationship(ctx, models.UserRef("alice"), models.UserRef("bob"), nil)
	require.NoError(t, err)

	b, err := database.Bookmark(ctx, models.UserRef("alice"), rel.Subject())
	require.NoError(t, err)
	assert.Equal(t, "alice:bookmarked:"+rel.ID, b.ID)

	_, err = database.Bookmark(ctx, models.UserRef("alice"), rel.Subject())
	assert.ErrorIs(t, err, models.ErrStoreConflict)

	_, err = database.Bookmark(ctx, models.UserRef("carol"), rel.Subject())
	require.NoError(t, err)

	mine, err := database.BookmarksByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, rel.ID, mine[0].Bookmarked.ID)

	of, err := database.BookmarksOf(ctx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, of, 2)

	require.NoError(t, database.Unbookmark(ctx, "alice", rel.ID))
	assert.ErrorIs(t, database.Unbookmark(ctx, "alice", rel.ID), models.ErrNotFound)

	of, err = database.BookmarksOf(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, of, 1)
	assert.Equal(t, "carol", of[0].User.ID)
}

func TestDependentsScopedToRoot(t *testing.T) {
	ctx := context.Background()
	database := NewTestDB(t)

	// "r1" must not match "r10" or "r1x".
	for _, target := range []string{"r1", "r10", "r1x"} {
		_, err := database.Bookmark(ctx, models.UserRef("alice"), models.RelationshipRef(target))
		require.NoError(t, err)
	}

	docs, err := database.Dependents(ctx, BookmarksDesign, ByBookmarked, "r1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alice:bookmarked:r1", docs[0].ID())
}

func TestAdjustedFieldReduce(t *testing.T) {
	ctx := context.Background()
	database := NewTestDB(t)

	for actor, by := range map[string]int64{"a": 1, "b": 1, "c": -1} {
		doc, err := docstore.Encode(models.Adjustment{
			ID:   models.AdjustmentID(actor, "r1", models.FieldStrength),
			Type: models.KindAdjustment,
			User: models.UserRef(actor),
			Adjusted: models.Adjusted{
				Doc:   models.RelationshipRef("r1"),
				Field: models.FieldDelta{Name: models.FieldStrength, By: by},
			},
		})
		require.NoError(t, err)
		_, err = database.Store.Create(ctx, doc)
		require.NoError(t, err)
	}

	opts := docstore.RangeOf("r1", models.FieldStrength)
	opts.Reduce = true
	rows, err := database.Store.Query(ctx, AdjustmentsDesign, ByAdjustedField, opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0].Value)

	byUser, err := database.Dependents(ctx, AdjustmentsDesign, ByUser, "c")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
}
