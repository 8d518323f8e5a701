package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomber1/notes-web/pkg/adapters/fs"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/git"
)

// setupStore creates an initialized store under a temp dir.
func setupStore(t *testing.T, opts ...func(*fs.Config)) (*fs.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes")
	cfg := fs.Config{Path: path, AutoInit: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := fs.NewStore(cfg)
	require.NoError(t, store.Initialize(context.Background()))
	return store, path
}

func versioned(c *fs.Config) { c.Versioned = true }

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, path := setupStore(t)
		info, err := os.Stat(filepath.Join(path, fs.DefaultSystemDir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		store := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "absent"), MustExist: true})
		assert.Error(t, store.Initialize(context.Background()))
	})

	t.Run("Fails if Not a Repository and AutoInit=false", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		store := fs.NewStore(fs.Config{Path: t.TempDir(), Versioned: true})
		assert.Error(t, store.Initialize(context.Background()))
	})

	t.Run("Inits Git Repo and Ignores System Dir", func(t *testing.T) {
		if !git.IsInstalled() {
			t.Skip("git not installed")
		}
		_, path := setupStore(t, versioned)

		_, err := os.Stat(filepath.Join(path, ".git"))
		require.NoError(t, err)
		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		require.NoError(t, err)
		assert.Contains(t, string(ignore), fs.DefaultSystemDir+"/")
	})
}

func TestStore_CRUD(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store, path := setupStore(t, func(c *fs.Config) {
		c.Now = func() time.Time { return at }
	})
	ctx := context.Background()

	id, err := store.CreateNote(ctx, core.Content{Title: "A", Body: "B"}, core.ColorYellow)
	require.NoError(t, err)
	require.False(t, id.IsZero())

	raw, err := os.ReadFile(filepath.Join(path, id.String()+fs.Extension))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "---\ntitle: A\ncolor: Yellow\n"))
	assert.True(t, strings.HasSuffix(string(raw), "---\nB"))

	require.NoError(t, store.UpdateNote(ctx, id, core.Content{Title: "A2", Body: "B2"}, core.ColorYellow))
	require.NoError(t, store.SetColor(ctx, id, core.ColorGreen))
	require.NoError(t, store.ArchiveNote(ctx, id))

	n, err := store.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.Content{Title: "A2", Body: "B2"}, n.Content)
	assert.Equal(t, core.ColorGreen, n.Color)
	assert.True(t, n.Archived)
	assert.True(t, n.CreatedAt.Equal(at))

	require.NoError(t, store.UnarchiveNote(ctx, id))
	n, err = store.GetNote(ctx, id)
	require.NoError(t, err)
	assert.False(t, n.Archived)

	require.NoError(t, store.DeleteNote(ctx, id))
	_, err = store.GetNote(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_NotFound(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.UpdateNote(ctx, "nope", core.Content{Title: "x"}, core.ColorRed), core.ErrNotFound)
	assert.ErrorIs(t, store.SetColor(ctx, "nope", core.ColorRed), core.ErrNotFound)
	assert.ErrorIs(t, store.ArchiveNote(ctx, "nope"), core.ErrNotFound)
	assert.ErrorIs(t, store.DeleteNote(ctx, "nope"), core.ErrNotFound)

	// Identities that would escape the directory are never resolved.
	_, err := store.GetNote(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = store.GetNote(ctx, ".notes")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_InvalidColor(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.CreateNote(context.Background(), core.Content{Title: "x"}, "Chartreuse")
	assert.ErrorIs(t, err, core.ErrInvalidColor)
}

func TestStore_ReadOnly(t *testing.T) {
	_, path := setupStore(t)
	ro := fs.NewStore(fs.Config{Path: path, ReadOnly: true})
	require.NoError(t, ro.Initialize(context.Background()))

	_, err := ro.CreateNote(context.Background(), core.Content{Title: "x"}, core.DefaultColor)
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.ErrorIs(t, ro.DeleteNote(context.Background(), "any"), core.ErrReadOnly)
}

func TestStore_ListNotes(t *testing.T) {
	store, path := setupStore(t)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := store.CreateNote(ctx, core.Content{Title: title}, core.DefaultColor)
		require.NoError(t, err)
	}
	// Foreign files and leftovers are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(path, "README.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, fs.TempFilePrefix+"123"), []byte("partial"), 0644))

	notes, err := store.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for i := 1; i < len(notes); i++ {
		assert.True(t, notes[i-1].ID < notes[i].ID)
	}
}

func TestStore_VersionedCommits(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	store, path := setupStore(t, versioned)
	client := git.NewClient(path, "", nil)
	ctx := context.Background()

	id, err := store.CreateNote(ctx, core.Content{Title: "Tracked"}, core.ColorTeal)
	require.NoError(t, err)

	msg, err := client.LastMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, git.FormatCommitMessage(git.CommitTypeFeat, "notes", "create "+id.String(), "title: Tracked"), msg)

	require.NoError(t, store.SetColor(fs.WithReason(ctx, "paint it blue"), id, core.ColorBlue))
	msg, err = client.LastMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, git.AppendFooter("paint it blue"), msg)

	require.NoError(t, store.DeleteNote(ctx, id))
	_, err = os.Stat(filepath.Join(path, id.String()+fs.Extension))
	assert.True(t, os.IsNotExist(err))

	// .gitignore, create, recolor, delete.
	n, err := client.CommitCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)
}

// rejectCommits installs a pre-commit hook that fails every commit until the returned
// func is called.
func rejectCommits(t *testing.T, path string) func() {
	t.Helper()
	hooks := filepath.Join(path, ".git", "hooks")
	require.NoError(t, os.MkdirAll(hooks, 0755))
	hook := filepath.Join(hooks, "pre-commit")
	require.NoError(t, os.WriteFile(hook, []byte("#!/bin/sh\nexit 1\n"), 0755))
	return func() { require.NoError(t, os.Remove(hook)) }
}

func TestStore_FailedCommitLeavesNoTrace(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell hooks")
	}

	store, path := setupStore(t, versioned)
	client := git.NewClient(path, "", nil)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		allow := rejectCommits(t, path)
		defer allow()

		for i := 0; i < 2; i++ {
			id, err := store.CreateNote(ctx, core.Content{Title: "Retry me"}, core.DefaultColor)
			assert.ErrorContains(t, err, "failed to git commit")
			assert.True(t, id.IsZero())
		}

		notes, err := store.ListNotes(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)

		status, err := client.Status(ctx)
		require.NoError(t, err)
		assert.Empty(t, status)
	})

	id, err := store.CreateNote(ctx, core.Content{Title: "Kept", Body: "v1"}, core.ColorTeal)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(path, id.String()+fs.Extension))
	require.NoError(t, err)
	commits, err := client.CommitCount(ctx)
	require.NoError(t, err)

	allow := rejectCommits(t, path)
	defer allow()

	mutations := map[string]func() error{
		"Update": func() error {
			return store.UpdateNote(ctx, id, core.Content{Title: "Lost", Body: "v2"}, core.ColorRed)
		},
		"SetColor": func() error { return store.SetColor(ctx, id, core.ColorRed) },
		"Archive":  func() error { return store.ArchiveNote(ctx, id) },
		"Delete":   func() error { return store.DeleteNote(ctx, id) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.ErrorContains(t, mutate(), "failed to git commit")

			after, err := os.ReadFile(filepath.Join(path, id.String()+fs.Extension))
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))

			n, err := store.GetNote(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, core.Content{Title: "Kept", Body: "v1"}, n.Content)
			assert.Equal(t, core.ColorTeal, n.Color)
			assert.False(t, n.Archived)

			status, err := client.Status(ctx)
			require.NoError(t, err)
			assert.Empty(t, status)
		})
	}

	n, err := client.CommitCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, commits, n)
}

func TestStore_State(t *testing.T) {
	store, path := setupStore(t)
	_, err := store.CreateNote(context.Background(), core.Content{Title: "x"}, core.DefaultColor)
	require.NoError(t, err)

	state, ok := store.State().(fs.StoreState)
	require.True(t, ok)
	assert.Equal(t, path, state.Path)
	assert.Equal(t, uint64(1), state.Writes)
	assert.NotNil(t, state.LastWrite)
	assert.Equal(t, "notes-store", store.ComponentType())
}
