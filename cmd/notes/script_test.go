package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomber1/notes-web"
	"github.com/lomber1/notes-web/pkg/clock"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
	"github.com/lomber1/notes-web/pkg/git"
)

func TestParseScript(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s, err := parseScript(strings.NewReader(`
steps:
  - op: open
  - op: edit
    title: Groceries
    body: milk
  - op: wait
    duration: 300ms
  - op: recolor
    color: teal
  - op: close
`))
		require.NoError(t, err)
		require.Len(t, s.Steps, 5)
		assert.Equal(t, "Groceries", s.Steps[1].Title)
		assert.Equal(t, 300*time.Millisecond, s.Steps[2].wait)
		assert.Equal(t, core.ColorTeal, s.Steps[3].color)
	})

	cases := []struct {
		name   string
		script string
		want   string
	}{
		{"Empty", "", "no steps"},
		{"No Steps", "steps: []", "no steps"},
		{"Unknown Op", "steps:\n  - op: rename\n", `unknown op "rename"`},
		{"Unknown Field", "steps:\n  - op: open\n    colour: red\n", "decode script"},
		{"Bad Duration", "steps:\n  - op: wait\n    duration: soon\n", "invalid duration"},
		{"Bad Color", "steps:\n  - op: recolor\n    color: magenta\n", "invalid color"},
		{"Missing Color", "steps:\n  - op: recolor\n", "color is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseScript(strings.NewReader(tc.script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func newScriptEditor(t *testing.T) (*notes.Editor, notes.Store, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Unix(0, 0))
	ed, store, err := notes.New(context.Background(), "",
		notes.WithAdapter("memory"),
		notes.WithEditorOption(editor.WithScheduler(clk)),
	)
	require.NoError(t, err)
	return ed, store, clk
}

func drain(t *testing.T, ed *notes.Editor) []core.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ed.Shutdown(ctx))

	var out []core.Outcome
	for o := range ed.Outcomes() {
		out = append(out, o)
	}
	return out
}

func TestScript_Play(t *testing.T) {
	t.Run("Burst Then Wait Creates Once", func(t *testing.T) {
		ed, store, clk := newScriptEditor(t)
		s, err := parseScript(strings.NewReader(`
steps:
  - op: open
  - op: edit
    title: Gro
  - op: edit
    title: Groceries
    body: milk
  - op: wait
    duration: 300ms
  - op: close
`))
		require.NoError(t, err)

		advance := func(_ context.Context, d time.Duration) error {
			clk.Advance(d)
			return nil
		}
		var warnings []string
		warn := func(st Step, err error) { warnings = append(warnings, st.Op) }

		require.NoError(t, s.play(context.Background(), ed, store, advance, warn))
		outcomes := drain(t, ed)

		require.Len(t, outcomes, 1)
		assert.Equal(t, core.OutcomeCreated, outcomes[0].Kind)
		assert.Empty(t, warnings)

		list, err := store.ListNotes(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Groceries", list[0].Content.Title)
		assert.Equal(t, "milk", list[0].Content.Body)
	})

	t.Run("Intent Without Session Warns", func(t *testing.T) {
		ed, store, _ := newScriptEditor(t)
		s, err := parseScript(strings.NewReader("steps:\n  - op: edit\n    title: x\n  - op: save\n"))
		require.NoError(t, err)

		var warnings []string
		warn := func(st Step, err error) {
			assert.ErrorIs(t, err, editor.ErrNoSession)
			warnings = append(warnings, st.Op)
		}
		require.NoError(t, s.play(context.Background(), ed, store, sleep, warn))
		assert.Equal(t, []string{"edit", "save"}, warnings)
		assert.Empty(t, drain(t, ed))
	})

	t.Run("Open Existing Note", func(t *testing.T) {
		ed, store, _ := newScriptEditor(t)
		ctx := context.Background()
		id, err := store.CreateNote(ctx, core.Content{Title: "Old"}, core.ColorGray)
		require.NoError(t, err)

		s, err := parseScript(strings.NewReader("steps:\n  - op: open\n    id: " + id.String() + "\n  - op: archive\n"))
		require.NoError(t, err)
		require.NoError(t, s.play(ctx, ed, store, sleep, func(Step, error) { t.Fatal("unexpected warning") }))

		outcomes := drain(t, ed)
		require.Len(t, outcomes, 1)
		assert.Equal(t, core.OutcomeArchived, outcomes[0].Kind)

		n, err := store.GetNote(ctx, id)
		require.NoError(t, err)
		assert.True(t, n.Archived)
	})

	t.Run("Stopped Editor Aborts", func(t *testing.T) {
		ed, store, _ := newScriptEditor(t)
		drain(t, ed)

		s, err := parseScript(strings.NewReader("steps:\n  - op: open\n"))
		require.NoError(t, err)
		err = s.play(context.Background(), ed, store, sleep, func(Step, error) {})
		assert.ErrorIs(t, err, editor.ErrStopped)
	})
}

func TestScript_ReasonBecomesCommitMessage(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	ctx := withReason(context.Background(), "weekly groceries")

	ed, store, err := notes.New(ctx, dir,
		notes.WithAutoInit(true),
		notes.WithVersioning(true),
	)
	require.NoError(t, err)

	s, err := parseScript(strings.NewReader("steps:\n  - op: open\n  - op: edit\n    title: Groceries\n  - op: save\n"))
	require.NoError(t, err)
	require.NoError(t, s.play(ctx, ed, store, sleep, func(st Step, err error) { t.Errorf("%s: %v", st.Op, err) }))

	outcomes := drain(t, ed)
	require.Len(t, outcomes, 1)
	require.Equal(t, core.OutcomeCreated, outcomes[0].Kind, "%v", outcomes[0].Err)

	msg, err := git.NewClient(dir, "", nil).LastMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, git.AppendFooter("weekly groceries"), msg)
}

func TestWithReason_EmptyKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, withReason(ctx, ""))
}
