package docstore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID        string    `json:"id" firestore:"id"`
	Owner     string    `json:"owner" firestore:"owner"`
	Status    string    `json:"status" firestore:"status"`
	Read      bool      `json:"read" firestore:"read"`
	Score     float64   `json:"score" firestore:"score"`
	Image     *string   `json:"image" firestore:"image"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	Version   int64     `json:"version" firestore:"version"`
}

func backends(t *testing.T) map[string]Store {
	logger := zerolog.New(io.Discard)
	sqlite, err := NewSQLiteStore(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreConformance(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			runConformance(t, store)
		})
	}
}

func runConformance(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	img := "http://img/1.png"

	docs := []testDoc{
		{ID: "a", Owner: "u1", Status: "pending", Score: 3, CreatedAt: base, Image: &img, Version: 1},
		{ID: "b", Owner: "u1", Status: "confirmed", Score: 5, CreatedAt: base.Add(time.Hour), Version: 1},
		{ID: "c", Owner: "u2", Status: "pending", Score: 1, CreatedAt: base.Add(2 * time.Hour), Read: true, Version: 1},
	}
	for _, d := range docs {
		require.NoError(t, store.Create(ctx, "things", d.ID, d))
	}

	t.Run("CreateDuplicate", func(t *testing.T) {
		err := store.Create(ctx, "things", "a", docs[0])
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("Get", func(t *testing.T) {
		snap, err := store.Get(ctx, "things", "a")
		require.NoError(t, err)
		assert.Equal(t, "a", snap.ID())

		var got testDoc
		require.NoError(t, snap.DataTo(&got))
		assert.Equal(t, "u1", got.Owner)
		require.NotNil(t, got.Image)
		assert.Equal(t, img, *got.Image)
		assert.True(t, got.CreatedAt.Equal(base))
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "things", "zzz")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("FindFilterAndOrder", func(t *testing.T) {
		snaps, err := store.Find(ctx, "things", Query{
			Filters: []Filter{Eq("owner", "u1")},
			OrderBy: "createdAt",
			Desc:    true,
		})
		require.NoError(t, err)
		require.Len(t, snaps, 2)
		assert.Equal(t, "b", snaps[0].ID())
		assert.Equal(t, "a", snaps[1].ID())
	})

	t.Run("FindBoolAndLimit", func(t *testing.T) {
		snaps, err := store.Find(ctx, "things", Query{
			Filters: []Filter{Eq("read", false)},
			OrderBy: "score",
			Limit:   1,
		})
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "a", snaps[0].ID())
	})

	t.Run("FindUnsupportedOperator", func(t *testing.T) {
		_, err := store.Find(ctx, "things", Query{Filters: []Filter{{Field: "score", Op: ">", Value: 1}}})
		assert.ErrorIs(t, err, ErrUnsupportedQuery)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := store.Count(ctx, "things", Eq("status", "pending"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = store.Count(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("UpdateRemovesNilFields", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, "things", "a", map[string]any{
			"status": "rejected",
			"image":  nil,
		}))

		var got testDoc
		snap, err := store.Get(ctx, "things", "a")
		require.NoError(t, err)
		require.NoError(t, snap.DataTo(&got))
		assert.Equal(t, "rejected", got.Status)
		assert.Nil(t, got.Image)
		assert.Equal(t, "u1", got.Owner)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := store.Update(ctx, "things", "zzz", map[string]any{"status": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateIfVersion", func(t *testing.T) {
		require.NoError(t, store.UpdateIfVersion(ctx, "things", "b", 1, map[string]any{"status": "cancelled"}))

		err := store.UpdateIfVersion(ctx, "things", "b", 1, map[string]any{"status": "completed"})
		assert.ErrorIs(t, err, ErrVersionMismatch)

		var got testDoc
		snap, err := store.Get(ctx, "things", "b")
		require.NoError(t, err)
		require.NoError(t, snap.DataTo(&got))
		assert.Equal(t, "cancelled", got.Status)
		assert.Equal(t, int64(2), got.Version)

		err = store.UpdateIfVersion(ctx, "things", "zzz", 1, map[string]any{"status": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Set", func(t *testing.T) {
		d := testDoc{ID: "c", Owner: "u3", Status: "pending", CreatedAt: base}
		require.NoError(t, store.Set(ctx, "things", "c", d))
		n, err := store.Count(ctx, "things", Eq("owner", "u3"))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("BatchIsAtomic", func(t *testing.T) {
		err := store.Batch(ctx, []Write{
			UpdateWrite("things", "a", map[string]any{"read": true}),
			UpdateWrite("things", "missing", map[string]any{"read": true}),
		})
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := store.Count(ctx, "things", Eq("read", true))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("Batch", func(t *testing.T) {
		require.NoError(t, store.Batch(ctx, []Write{
			UpdateWrite("things", "a", map[string]any{"read": true}),
			SetWrite("things", "d", testDoc{ID: "d", Owner: "u4"}),
			DeleteWrite("things", "b"),
		}))

		_, err := store.Get(ctx, "things", "b")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Get(ctx, "things", "d")
		assert.NoError(t, err)
		n, err := store.Count(ctx, "things", Eq("read", true))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "things", "d"))
		require.NoError(t, store.Delete(ctx, "things", "d"))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, sign(compareValues(nil, false)))
	assert.Equal(t, -1, sign(compareValues(true, 1.0)))
	assert.Equal(t, 1, sign(compareValues(2.0, 1.5)))
	assert.Equal(t, 0, compareValues("abc", "abc"))
	assert.Equal(t, -1, sign(compareValues("abc", "abd")))

	// chronological, not lexical: +02:00 offset makes the first one earlier
	earlier := "2024-05-01T10:00:00+02:00"
	later := "2024-05-01T09:00:00Z"
	assert.Equal(t, -1, sign(compareValues(earlier, later)))
}

func TestEqualValues(t *testing.T) {
	assert.True(t, equalValues(1.0, 1.0))
	assert.False(t, equalValues(1.0, "1"))
	assert.False(t, equalValues(nil, false))
	assert.True(t, equalValues(map[string]any{"a": 1.0}, map[string]any{"a": 1.0}))
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
