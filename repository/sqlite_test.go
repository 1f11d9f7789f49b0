package repository

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"notesapi/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns start, start+step, start+2*step, ...
type steppingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newSteppingClock(start time.Time, step time.Duration) *steppingClock {
	return &steppingClock{next: start, step: step}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

func setupSQLite(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "notes.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func enrich(t *testing.T, store NoteStore, id int64) {
	t.Helper()
	n, err := store.PatchEnrichment(context.Background(), id, strPtr("summary"), floatPtr(0.5))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSQLiteCreateAndGet(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	store := setupSQLite(t, WithClock(newSteppingClock(start, time.Second).Now))

	created, err := store.CreateNote(ctx, "u1", "Alice", "Hello", "World")
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Nil(t, created.Summary)
	assert.Nil(t, created.SentimentScore)
	assert.Equal(t, start.Truncate(time.Millisecond), created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.GetNote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.GetNote(ctx, created.ID+100)
	assert.ErrorIs(t, err, model.ErrNoteNotFound)
}

func TestSQLiteIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	first, err := store.CreateNote(ctx, "u1", "", "a", "")
	require.NoError(t, err)
	require.NoError(t, store.DeleteNote(ctx, first.ID))

	second, err := store.CreateNote(ctx, "u1", "", "b", "")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestSQLiteUpdateContent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := setupSQLite(t, WithClock(newSteppingClock(start, time.Minute).Now))

	note, err := store.CreateNote(ctx, "u1", "Alice", "old title", "old content")
	require.NoError(t, err)

	t.Run("TitleOnly", func(t *testing.T) {
		updated, err := store.UpdateContent(ctx, note.ID, strPtr("new title"), nil)
		require.NoError(t, err)
		assert.Equal(t, "new title", updated.Title)
		assert.Equal(t, "old content", updated.Content)
		assert.Equal(t, note.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
		assert.Equal(t, "u1", updated.AuthorID)
	})

	t.Run("NoFields", func(t *testing.T) {
		before, err := store.GetNote(ctx, note.ID)
		require.NoError(t, err)
		after, err := store.UpdateContent(ctx, note.ID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.UpdateContent(ctx, note.ID+1, strPtr("x"), nil)
		assert.ErrorIs(t, err, model.ErrNoteNotFound)
	})

	t.Run("TitleTooLong", func(t *testing.T) {
		_, err := store.UpdateContent(ctx, note.ID, strPtr(strings.Repeat("é", model.MaxTitleLength+1)), nil)
		assert.ErrorIs(t, err, model.ErrIntegrity)
	})
}

func TestSQLiteDeleteNote(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	note, err := store.CreateNote(ctx, "u1", "", "t", "c")
	require.NoError(t, err)

	require.NoError(t, store.DeleteNote(ctx, note.ID))
	assert.ErrorIs(t, store.DeleteNote(ctx, note.ID), model.ErrNoteNotFound)

	_, err = store.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, model.ErrNoteNotFound)
}

func TestSQLitePatchEnrichment(t *testing.T) {
	ctx := context.Background()
	store := setupSQLite(t)

	note, err := store.CreateNote(ctx, "u1", "", "t", "c")
	require.NoError(t, err)

	n, err := store.PatchEnrichment(ctx, note.ID, strPtr("short"), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "short", *got.Summary)
	assert.Nil(t, got.SentimentScore)
	assert.False(t, got.Enriched())

	n, err = store.PatchEnrichment(ctx, note.ID+42, strPtr("x"), floatPtr(0.1))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.PatchEnrichment(ctx, note.ID, strPtr("x"), floatPtr(1.5))
	assert.ErrorIs(t, err, model.ErrIntegrity)
}

func TestSQLiteListEnrichedSeek(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Every pair of notes shares a created_at so ties are broken by id.
	clock := newSteppingClock(start, 0)
	store := setupSQLite(t, WithClock(clock.Now))

	var ids []int64
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			clock.mu.Lock()
			clock.next = start.Add(time.Duration(i) * time.Second)
			clock.mu.Unlock()
		}
		note, err := store.CreateNote(ctx, "u1", "", "t", "c")
		require.NoError(t, err)
		ids = append(ids, note.ID)
	}
	// Unenriched notes never show up.
	for _, id := range ids[:5] {
		enrich(t, store, id)
	}

	page, err := store.ListEnriched(ctx, model.PageQuery{Limit: 10, Order: model.OrderDesc})
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, []int64{ids[4], ids[3], ids[2], ids[1], ids[0]}, noteIDs(page))

	last := page[1]
	rest, err := store.ListEnriched(ctx, model.PageQuery{
		Limit: 10,
		Order: model.OrderDesc,
		After: &model.Cursor{CreatedAt: last.CreatedAt, ID: last.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, noteIDs(rest))

	asc, err := store.ListEnriched(ctx, model.PageQuery{
		Limit: 2,
		Order: model.OrderAsc,
		After: &model.Cursor{CreatedAt: page[4].CreatedAt, ID: page[4].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[2]}, noteIDs(asc))
}

func TestSQLiteCreateRejectsOversizedFields(t *testing.T) {
	store := setupSQLite(t)
	_, err := store.CreateNote(context.Background(), "u1", "", strings.Repeat("x", model.MaxTitleLength+1), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrIntegrity))
}

func noteIDs(notes []*model.Note) []int64 {
	ids := make([]int64, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	return ids
}
