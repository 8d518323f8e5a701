// Package memory provides a process-local core.Store, used as the default adapter and
// as a test double for the editor.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lomber1/notes-web/pkg/core"
)

// Store keeps notes in a map guarded by a mutex.
type Store struct {
	mu    sync.RWMutex
	notes map[core.NoteID]core.Note

	newID func() core.NoteID
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the identity generator (random UUIDs by default).
func WithIDGenerator(fn func() core.NoteID) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithNow overrides the timestamp source.
func WithNow(fn func() time.Time) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		notes: make(map[core.NoteID]core.Note),
		newID: func() core.NoteID { return core.NoteID(uuid.NewString()) },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ core.Store = (*Store)(nil)

func (s *Store) CreateNote(ctx context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !color.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.notes[id]; exists {
		return "", fmt.Errorf("identity collision: %s", id)
	}
	now := s.now()
	s.notes[id] = core.Note{
		ID:        id,
		Content:   content,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (s *Store) UpdateNote(ctx context.Context, id core.NoteID, content core.Content, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.mutate(ctx, id, func(n *core.Note) {
		n.Content = content
		n.Color = color
	})
}

func (s *Store) SetColor(ctx context.Context, id core.NoteID, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.mutate(ctx, id, func(n *core.Note) {
		n.Color = color
	})
}

func (s *Store) ArchiveNote(ctx context.Context, id core.NoteID) error {
	return s.mutate(ctx, id, func(n *core.Note) {
		n.Archived = true
	})
}

func (s *Store) UnarchiveNote(ctx context.Context, id core.NoteID) error {
	return s.mutate(ctx, id, func(n *core.Note) {
		n.Archived = false
	})
}

func (s *Store) DeleteNote(ctx context.Context, id core.NoteID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	delete(s.notes, id)
	return nil
}

func (s *Store) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	if err := ctx.Err(); err != nil {
		return core.Note{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]core.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *Store) mutate(ctx context.Context, id core.NoteID, fn func(*core.Note)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	fn(&n)
	n.UpdatedAt = s.now()
	s.notes[id] = n
	return nil
}
