// Package sqlite stores notes in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lomber1/notes-web/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	color      TEXT NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
`

// Store implements core.Store on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ core.Store       = (*Store)(nil)
	_ core.Initializer = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the timestamp source.
func WithNow(fn func() time.Time) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// Open opens (creating if needed) the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between our own calls.
	db.SetMaxOpenConns(1)

	s := NewStoreWithDB(db, opts...)
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreWithDB wraps an existing handle. Call Initialize before first use.
func NewStoreWithDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the schema.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateNote(ctx context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	if !color.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}

	id := core.NoteID(uuid.NewString())
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO notes (id, title, body, color, archived, created_at, updated_at)
	VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id.String(), content.Title, content.Body, string(color), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateNote(ctx context.Context, id core.NoteID, content core.Content, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.exec(ctx, id,
		`UPDATE notes SET title = ?, body = ?, color = ?, updated_at = ? WHERE id = ?`,
		content.Title, content.Body, string(color),
	)
}

func (s *Store) SetColor(ctx context.Context, id core.NoteID, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.exec(ctx, id, `UPDATE notes SET color = ?, updated_at = ? WHERE id = ?`, string(color))
}

func (s *Store) ArchiveNote(ctx context.Context, id core.NoteID) error {
	return s.exec(ctx, id, `UPDATE notes SET archived = 1, updated_at = ? WHERE id = ?`)
}

func (s *Store) UnarchiveNote(ctx context.Context, id core.NoteID) error {
	return s.exec(ctx, id, `UPDATE notes SET archived = 0, updated_at = ? WHERE id = ?`)
}

func (s *Store) DeleteNote(ctx context.Context, id core.NoteID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return affected(res, id)
}

func (s *Store) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, title, body, color, archived, created_at, updated_at
	FROM notes
	WHERE id = ?`, id.String())

	n, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context) ([]core.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, title, body, color, archived, created_at, updated_at
	FROM notes
	ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// exec runs an UPDATE whose last two placeholders are updated_at and id.
func (s *Store) exec(ctx context.Context, id core.NoteID, query string, args ...any) error {
	args = append(args, s.now().UTC(), id.String())
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return affected(res, id)
}

func affected(res sql.Result, id core.NoteID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (core.Note, error) {
	var (
		n        core.Note
		id       string
		color    string
		archived bool
	)
	if err := row.Scan(&id, &n.Content.Title, &n.Content.Body, &color, &archived, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return core.Note{}, err
	}
	n.ID = core.NoteID(id)
	n.Color = core.Color(color)
	n.Archived = archived
	return n, nil
}
