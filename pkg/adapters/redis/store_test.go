package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomber1/notes-web/pkg/core"
)

func setupTestRedis(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewStore("redis://"+s.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	assert.NoError(t, store.Ping(context.Background()))

	_, err := NewStore("not a url")
	assert.Error(t, err)
}

func TestStore_CreateAndGet(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store, mr := setupTestRedis(t, WithNow(func() time.Time { return at }))
	ctx := context.Background()

	id, err := store.CreateNote(ctx, core.Content{Title: "A", Body: "B"}, core.ColorYellow)
	require.NoError(t, err)

	assert.Equal(t, "A", mr.HGet(DefaultPrefix+"note:"+id.String(), "title"))
	ok, err := mr.SIsMember(DefaultPrefix+"index", id.String())
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := store.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, core.Content{Title: "A", Body: "B"}, n.Content)
	assert.Equal(t, core.ColorYellow, n.Color)
	assert.False(t, n.Archived)
	assert.True(t, n.CreatedAt.Equal(at))
	assert.True(t, n.UpdatedAt.Equal(at))
}

func TestStore_Mutations(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	id, err := store.CreateNote(ctx, core.Content{Title: "A"}, core.ColorBlue)
	require.NoError(t, err)

	require.NoError(t, store.UpdateNote(ctx, id, core.Content{Title: "A2", Body: "x"}, core.ColorBlue))
	require.NoError(t, store.SetColor(ctx, id, core.ColorGreen))
	require.NoError(t, store.ArchiveNote(ctx, id))

	n, err := store.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Content{Title: "A2", Body: "x"}, n.Content)
	assert.Equal(t, core.ColorGreen, n.Color)
	assert.True(t, n.Archived)

	require.NoError(t, store.UnarchiveNote(ctx, id))
	n, err = store.GetNote(ctx, id)
	require.NoError(t, err)
	assert.False(t, n.Archived)

	require.NoError(t, store.DeleteNote(ctx, id))
	_, err = store.GetNote(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	notes, err := store.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestStore_MissingNote(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.UpdateNote(ctx, "gone", core.Content{Title: "x"}, core.ColorRed), core.ErrNotFound)
	assert.ErrorIs(t, store.SetColor(ctx, "gone", core.ColorRed), core.ErrNotFound)
	assert.ErrorIs(t, store.ArchiveNote(ctx, "gone"), core.ErrNotFound)
	assert.ErrorIs(t, store.DeleteNote(ctx, "gone"), core.ErrNotFound)

	// Updates must not create the hash.
	assert.False(t, mr.Exists(DefaultPrefix+"note:gone"))
}

func TestStore_ListAndPrefixIsolation(t *testing.T) {
	store, mr := setupTestRedis(t)
	other := NewStoreWithClient(store.client, WithPrefix("other:"))
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := store.CreateNote(ctx, core.Content{Title: title}, core.DefaultColor)
		require.NoError(t, err)
	}
	_, err := other.CreateNote(ctx, core.Content{Title: "elsewhere"}, core.DefaultColor)
	require.NoError(t, err)

	// A stale index entry is skipped.
	_, err = mr.SAdd(DefaultPrefix+"index", "stale")
	require.NoError(t, err)

	notes, err := store.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for i := 1; i < len(notes); i++ {
		assert.True(t, notes[i-1].ID < notes[i].ID)
	}

	otherNotes, err := other.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, otherNotes, 1)
	assert.Equal(t, "elsewhere", otherNotes[0].Content.Title)
}

func TestStore_InvalidColor(t *testing.T) {
	store, _ := setupTestRedis(t)
	_, err := store.CreateNote(context.Background(), core.Content{Title: "x"}, "Beige")
	assert.ErrorIs(t, err, core.ErrInvalidColor)
}

func TestStore_ConnectionLost(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.CreateNote(context.Background(), core.Content{Title: "x"}, core.DefaultColor)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)
}
