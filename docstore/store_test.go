// ABOUTME: Tests for the document store over both backends
// ABOUTME: Covers revisions, conflicts, range queries, reduce, bulk independence, and multi-get
package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoresByTarget = View{
	Design: "scores",
	Name:   "by_target",
	Map: func(doc Doc, emit EmitFunc) {
		if doc.String("type") != "score" {
			return
		}
		emit(Key(doc.String("target"), doc.String("field")), doc.Value("by"))
	},
	Reduce: Sum,
}

func score(id, target, field string, by int) Doc {
	return Doc{"_id": id, "type": "score", "target": target, "field": field, "by": by}
}

func backends(t *testing.T) map[string]*Store {
	t.Helper()

	sqliteBackend, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteBackend.Close() })

	return map[string]*Store{
		"badger": NewTestStore(t, scoresByTarget),
		"sqlite": Open(sqliteBackend, scoresByTarget),
	}
}

func TestCreateGetPutDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			doc := Doc{"_id": "a", "n": 1}
			rev, err := store.Create(ctx, doc)
			require.NoError(t, err)
			assert.NotEmpty(t, rev)
			assert.Equal(t, rev, doc.Rev(), "Create should write the revision back")

			_, err = store.Create(ctx, Doc{"_id": "a"})
			assert.ErrorIs(t, err, ErrConflict, "duplicate id must conflict")

			got, err := store.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, float64(1), got["n"])

			got["n"] = 2
			rev2, err := store.Put(ctx, got)
			require.NoError(t, err)
			assert.NotEqual(t, rev, rev2)

			stale := Doc{"_id": "a", "_rev": rev, "n": 3}
			_, err = store.Put(ctx, stale)
			assert.ErrorIs(t, err, ErrConflict, "stale revision must conflict")

			assert.ErrorIs(t, store.Delete(ctx, "a", rev), ErrConflict)
			require.NoError(t, store.Delete(ctx, "a", rev2))

			_, err = store.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, "a", ""), ErrNotFound)
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	_, err := store.Create(ctx, Doc{"_id": "counter", "n": 1})
	require.NoError(t, err)

	next, err := store.Update(ctx, "counter", func(d Doc) (Doc, error) {
		d["n"] = d["n"].(float64) + 1
		return d, nil
	})
	require.NoError(t, err)
	assert.Equal(t, float64(2), next["n"])

	boom := errors.New("rejected")
	_, err = store.Update(ctx, "counter", func(Doc) (Doc, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = store.Update(ctx, "missing", func(d Doc) (Doc, error) { return d, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryRangeAndReduce(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, d := range []Doc{
				score("s1", "r1", "strength", 1),
				score("s2", "r1", "strength", 1),
				score("s3", "r1", "strength", -1),
				score("s4", "r1", "warmth", 5),
				score("s5", "r10", "strength", 7),
				score("s6", "r2", "strength", 9),
				{"_id": "other", "type": "note"},
			} {
				_, err := store.Create(ctx, d)
				require.NoError(t, err)
			}

			rows, err := store.Query(ctx, "scores", "by_target", QueryOptions{
				StartKey: Key("r1"), EndKey: Key("r1", HighKey), IncludeDocs: true,
			})
			require.NoError(t, err)
			require.Len(t, rows, 4, "range must stop before r10 and r2")
			for _, r := range rows {
				assert.Equal(t, "r1", r.Key[0])
				require.NotNil(t, r.Doc)
				assert.Equal(t, r.ID, r.Doc.ID())
			}
			assert.Equal(t, "strength", rows[0].Key[1])
			assert.Equal(t, "warmth", rows[3].Key[1])

			opts := RangeOf("r1", "strength")
			opts.Reduce = true
			reduced, err := store.Query(ctx, "scores", "by_target", opts)
			require.NoError(t, err)
			require.Len(t, reduced, 1)
			assert.Equal(t, float64(1), reduced[0].Value)

			empty := RangeOf("nobody", "strength")
			empty.Reduce = true
			none, err := store.Query(ctx, "scores", "by_target", empty)
			require.NoError(t, err)
			assert.Empty(t, none)

			_, err = store.Query(ctx, "scores", "missing", QueryOptions{})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBulkEntriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, faulty := NewFaultyTestStore(t)

	for _, id := range []string{"keep", "drop-1", "drop-2"} {
		_, err := store.Create(ctx, Doc{"_id": id})
		require.NoError(t, err)
	}

	faulty.FailDelete(func(id string) error {
		if id == "drop-2" {
			return ErrInjected
		}
		return nil
	})

	d1, _ := store.Get(ctx, "drop-1")
	d2, _ := store.Get(ctx, "drop-2")
	results, err := store.Bulk(ctx, []Doc{
		d1.MarkDeleted(),
		d2.MarkDeleted(),
		{"_id": "fresh"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrInjected)
	assert.NoError(t, results[2].Err)
	assert.NotEmpty(t, results[2].Rev)

	bulkErr := BulkErrors(results)
	require.Error(t, bulkErr)
	assert.True(t, strings.Contains(bulkErr.Error(), "drop-2"))

	exists, err := store.Exists(ctx, "drop-1")
	require.NoError(t, err)
	assert.False(t, exists, "successful entries apply even when siblings fail")
	exists, err = store.Exists(ctx, "drop-2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFetchKeepsRequestOrder(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	_, err := store.Create(ctx, Doc{"_id": "b"})
	require.NoError(t, err)
	_, err = store.Create(ctx, Doc{"_id": "a"})
	require.NoError(t, err)

	rows, err := store.Fetch(ctx, []string{"b", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[0].Doc.ID())
	assert.ErrorIs(t, rows[1].Err, ErrNotFound)
	assert.Nil(t, rows[1].Doc)
	assert.Equal(t, "a", rows[2].Doc.ID())
}

func TestScanFailureSurfacesFromQuery(t *testing.T) {
	store, faulty := NewFaultyTestStore(t, scoresByTarget)
	faulty.FailScan(func() error { return ErrInjected })

	_, err := store.Query(context.Background(), "scores", "by_target", RangeOf("r1"))
	assert.ErrorIs(t, err, ErrInjected)

	faulty.Heal()
	_, err = store.Query(context.Background(), "scores", "by_target", RangeOf("r1"))
	assert.NoError(t, err)
}
