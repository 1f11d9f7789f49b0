package repository

import (
	"context"
	"testing"
	"time"

	"notesapi/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedStore(t *testing.T) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewCachedStore(setupSQLite(t), client, time.Minute)
	return store, mr
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	store, mr := setupCachedStore(t)

	note, err := store.CreateNote(ctx, "u1", "Alice", "title", "content")
	require.NoError(t, err)
	assert.False(t, mr.Exists(noteCacheKey(note.ID)))

	got, err := store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.Title, got.Title)
	assert.True(t, mr.Exists(noteCacheKey(note.ID)))
	assert.Equal(t, time.Minute, mr.TTL(noteCacheKey(note.ID)))

	cached, err := store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, cached.ID)
	assert.True(t, got.CreatedAt.Equal(cached.CreatedAt))
}

func TestCachedStoreInvalidatesOnMutation(t *testing.T) {
	ctx := context.Background()
	store, mr := setupCachedStore(t)

	note, err := store.CreateNote(ctx, "u1", "", "title", "content")
	require.NoError(t, err)
	_, err = store.GetNote(ctx, note.ID)
	require.NoError(t, err)

	_, err = store.PatchEnrichment(ctx, note.ID, strPtr("s"), floatPtr(0.9))
	require.NoError(t, err)
	assert.False(t, mr.Exists(noteCacheKey(note.ID)))

	got, err := store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "s", *got.Summary)

	_, err = store.UpdateContent(ctx, note.ID, nil, strPtr("changed"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(noteCacheKey(note.ID)))

	require.NoError(t, store.DeleteNote(ctx, note.ID))
	_, err = store.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, model.ErrNoteNotFound)
}

// pausingStore runs afterGet once, between the inner read and the
// cache fill.
type pausingStore struct {
	NoteStore
	afterGet func()
}

func (s *pausingStore) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	note, err := s.NoteStore.GetNote(ctx, id)
	if s.afterGet != nil {
		hook := s.afterGet
		s.afterGet = nil
		hook()
	}
	return note, err
}

func TestCachedStoreSkipsFillRacingMutation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &pausingStore{NoteStore: setupSQLite(t)}
	store := NewCachedStore(inner, client, time.Minute)

	t.Run("delete", func(t *testing.T) {
		note, err := store.CreateNote(ctx, "u1", "", "title", "content")
		require.NoError(t, err)

		inner.afterGet = func() {
			require.NoError(t, store.DeleteNote(ctx, note.ID))
		}
		_, err = store.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.False(t, mr.Exists(noteCacheKey(note.ID)))

		_, err = store.GetNote(ctx, note.ID)
		assert.ErrorIs(t, err, model.ErrNoteNotFound)
	})

	t.Run("enrichment patch", func(t *testing.T) {
		note, err := store.CreateNote(ctx, "u1", "", "title", "content")
		require.NoError(t, err)

		inner.afterGet = func() {
			n, err := store.PatchEnrichment(ctx, note.ID, strPtr("summary"), floatPtr(0.7))
			require.NoError(t, err)
			require.EqualValues(t, 1, n)
		}
		stale, err := store.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Nil(t, stale.Summary)
		assert.False(t, mr.Exists(noteCacheKey(note.ID)))

		got, err := store.GetNote(ctx, note.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Summary)
		assert.Equal(t, "summary", *got.Summary)
		assert.True(t, mr.Exists(noteCacheKey(note.ID)))
		assert.True(t, mr.Exists(noteGenerationKey(note.ID)))
	})
}

func TestCachedStoreFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store, mr := setupCachedStore(t)

	note, err := store.CreateNote(ctx, "u1", "", "title", "content")
	require.NoError(t, err)

	mr.Close()

	got, err := store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)
	require.NoError(t, store.DeleteNote(ctx, note.ID))
}
