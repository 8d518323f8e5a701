package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lomber1/notes-web"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
)

// Script is a recorded editing session.
//
//	steps:
//	  - op: open
//	  - op: edit
//	    title: Groceries
//	    body: milk
//	  - op: wait
//	    duration: 500ms
//	  - op: recolor
//	    color: green
//	  - op: close
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one user intent. Only the fields used by Op are read.
type Step struct {
	Op       string `yaml:"op"`
	ID       string `yaml:"id,omitempty"`
	Title    string `yaml:"title,omitempty"`
	Body     string `yaml:"body,omitempty"`
	Color    string `yaml:"color,omitempty"`
	Duration string `yaml:"duration,omitempty"`

	color core.Color
	wait  time.Duration
}

const (
	stepOpen      = "open"
	stepEdit      = "edit"
	stepWait      = "wait"
	stepRecolor   = "recolor"
	stepSave      = "save"
	stepClose     = "close"
	stepArchive   = "archive"
	stepUnarchive = "unarchive"
	stepDelete    = "delete"
)

var errEmptyScript = errors.New("script has no steps")

// parseScript decodes and validates a script. Unknown fields are rejected.
func parseScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyScript
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errEmptyScript
	}

	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.Steps[i].Op, err)
		}
	}
	return &s, nil
}

func (st *Step) validate() error {
	switch st.Op {
	case stepOpen, stepEdit, stepSave, stepClose, stepArchive, stepUnarchive, stepDelete:
		return nil
	case stepRecolor:
		if st.Color == "" {
			return errors.New("color is required")
		}
		c, err := core.ParseColor(st.Color)
		if err != nil {
			return err
		}
		st.color = c
		return nil
	case stepWait:
		d, err := time.ParseDuration(st.Duration)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", st.Duration, err)
		}
		if d < 0 {
			return fmt.Errorf("negative duration %q", st.Duration)
		}
		st.wait = d
		return nil
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
}

// sleeper blocks for d or until ctx is done.
type sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// play feeds the script to the editor. Intent errors (for instance an edit with no
// open session) are reported through warn and do not stop the replay.
func (s *Script) play(ctx context.Context, ed *notes.Editor, store notes.Store, wait sleeper, warn func(Step, error)) error {
	for _, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch st.Op {
		case stepOpen:
			err = openStep(ctx, ed, store, st.ID)
		case stepEdit:
			err = ed.Edit(notes.Content{Title: st.Title, Body: st.Body})
		case stepRecolor:
			err = ed.Recolor(st.color)
		case stepSave:
			err = ed.Save()
		case stepClose:
			err = ed.Close()
		case stepArchive:
			err = ed.Archive()
		case stepUnarchive:
			err = ed.Unarchive()
		case stepDelete:
			err = ed.Delete()
		case stepWait:
			if err := wait(ctx, st.wait); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, editor.ErrStopped) {
				return err
			}
			warn(st, err)
		}
	}
	return nil
}

func openStep(ctx context.Context, ed *notes.Editor, store notes.Store, id string) error {
	if id == "" {
		return ed.Open(nil)
	}
	n, err := store.GetNote(ctx, core.NoteID(id))
	if err != nil {
		return err
	}
	return ed.Open(&n)
}
