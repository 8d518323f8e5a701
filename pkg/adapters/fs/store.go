// Package fs stores notes as Markdown files with YAML frontmatter, one file per note,
// optionally versioning every change with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/git"
)

// Extension is the file extension of stored notes.
const Extension = ".md"

// DefaultSystemDir holds store-private files (the git lock) and is git-ignored.
const DefaultSystemDir = ".notes"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	AutoInit  bool // run `git init` when Versioned and Path is not a repository
	Versioned bool // commit every change with git
	MustExist bool // fail Initialize instead of creating Path
	ReadOnly  bool
	SystemDir string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Store implements core.Store on a directory of Markdown files.
type Store struct {
	Path   string
	git    *git.Client
	config Config
	logger *slog.Logger

	// mu serializes writers inside this process; the git lock covers other processes.
	mu        sync.RWMutex
	writes    uint64
	lastWrite *time.Time
}

var (
	_ core.Store       = (*Store)(nil)
	_ core.Initializer = (*Store)(nil)
)

// NewStore creates a filesystem-backed store. Call Initialize before first use.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Path:   config.Path,
		git:    git.NewClient(config.Path, filepath.Join(config.SystemDir, "git.lock"), config.Logger),
		config: config,
		logger: logger,
	}
}

// Initialize prepares the directory and, when versioned, the git repository.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("notes path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat notes path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("notes path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(filepath.Join(s.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	if !s.config.Versioned || s.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatCommitMessage(git.CommitTypeChore, "", fmt.Sprintf("ignore %s", s.config.SystemDir), "")
		if err := s.git.Commit(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	s.logger.Debug("notes store initialized", "path", s.Path, "versioned", s.config.Versioned)
	return nil
}

func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	ignoreEntry := s.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) CreateNote(ctx context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	if err := s.checkWrite(ctx, color); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := core.NoteID(uuid.NewString())
	now := s.config.Now()
	n := core.Note{
		ID:        id,
		Content:   content,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.write(n); err != nil {
		return "", err
	}
	if err := s.commit(ctx, id, false, nil, git.CommitTypeFeat, "create "+id.String(), "title: "+content.Title); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateNote(ctx context.Context, id core.NoteID, content core.Content, color core.Color) error {
	if err := s.checkWrite(ctx, color); err != nil {
		return err
	}
	return s.mutate(ctx, id, "update", func(n *core.Note) {
		n.Content = content
		n.Color = color
	})
}

func (s *Store) SetColor(ctx context.Context, id core.NoteID, color core.Color) error {
	if err := s.checkWrite(ctx, color); err != nil {
		return err
	}
	return s.mutate(ctx, id, "recolor", func(n *core.Note) {
		n.Color = color
	})
}

func (s *Store) ArchiveNote(ctx context.Context, id core.NoteID) error {
	if err := s.checkWrite(ctx, core.DefaultColor); err != nil {
		return err
	}
	return s.mutate(ctx, id, "archive", func(n *core.Note) {
		n.Archived = true
	})
}

func (s *Store) UnarchiveNote(ctx context.Context, id core.NoteID) error {
	if err := s.checkWrite(ctx, core.DefaultColor); err != nil {
		return err
	}
	return s.mutate(ctx, id, "unarchive", func(n *core.Note) {
		n.Archived = false
	})
}

func (s *Store) DeleteNote(ctx context.Context, id core.NoteID) error {
	if err := s.checkWrite(ctx, core.DefaultColor); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	prev, err := s.load(id)
	if err != nil {
		return err
	}

	if !s.config.Versioned {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		s.recordWrite()
		return nil
	}
	return s.commit(ctx, id, true, prev, git.CommitTypeFeat, "delete "+id.String(), "")
}

func (s *Store) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	if err := ctx.Err(); err != nil {
		return core.Note{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *Store) ListNotes(ctx context.Context) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]core.Note, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != Extension {
			continue
		}
		n, err := s.read(core.NoteID(strings.TrimSuffix(name, Extension)))
		if err != nil {
			s.logger.Warn("skipping unreadable note", "file", name, "error", err)
			continue
		}
		notes = append(notes, n)
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (s *Store) checkWrite(ctx context.Context, color core.Color) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, id core.NoteID, verb string, fn func(*core.Note)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.load(id)
	if err != nil {
		return err
	}
	n, err := decode(id, prev)
	if err != nil {
		return err
	}
	fn(&n)
	n.UpdatedAt = s.config.Now()

	if err := s.write(n); err != nil {
		return err
	}
	return s.commit(ctx, id, false, prev, git.CommitTypeFeat, verb+" "+id.String(), "")
}

// pathFor maps an identity to its file, rejecting identities that would escape Path.
func (s *Store) pathFor(id core.NoteID) (string, error) {
	name := id.String()
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid identity %q", core.ErrNotFound, name)
	}
	return filepath.Join(s.Path, name+Extension), nil
}

func (s *Store) read(id core.NoteID) (core.Note, error) {
	data, err := s.load(id)
	if err != nil {
		return core.Note{}, err
	}
	return decode(id, data)
}

// load returns the raw file of a note.
func (s *Store) load(id core.NoteID) ([]byte, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	return data, nil
}

func decode(id core.NoteID, data []byte) (core.Note, error) {
	n, err := decodeNote(id, data)
	if err != nil {
		return core.Note{}, fmt.Errorf("note %s: %w", id, err)
	}
	return n, nil
}

func (s *Store) write(n core.Note) error {
	path, err := s.pathFor(n.ID)
	if err != nil {
		return err
	}
	data, err := encodeNote(n)
	if err != nil {
		return fmt.Errorf("failed to encode note: %w", err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	s.recordWrite()
	return nil
}

// commit stages (or removes) the note file and records a commit. No-op when unversioned.
// prev is the file as it was before the change, nil for a new note. When the commit
// cannot be recorded the file and the index are put back, so a failed call leaves no
// note behind.
func (s *Store) commit(ctx context.Context, id core.NoteID, remove bool, prev []byte, ctype, subject, body string) error {
	if !s.config.Versioned {
		return nil
	}

	unlock, err := s.git.Lock(ctx)
	if err != nil {
		s.restore(ctx, id, prev, false)
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	msg := git.FormatCommitMessage(ctype, "notes", subject, body)
	if reason, ok := reasonFrom(ctx); ok {
		msg = git.AppendFooter(reason)
	}

	if err := s.record(ctx, id.String()+Extension, remove, msg); err != nil {
		s.restore(ctx, id, prev, true)
		return err
	}
	if remove {
		s.recordWrite()
	}
	return nil
}

func (s *Store) record(ctx context.Context, file string, remove bool, msg string) error {
	if remove {
		if err := s.git.Rm(ctx, file); err != nil {
			return fmt.Errorf("failed to git rm: %w", err)
		}
	} else if err := s.git.Add(ctx, file); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// restore puts the note file back to prev (removing it when prev is nil) and, when the
// index was touched, drops the staged change. It runs even if ctx is already done.
func (s *Store) restore(ctx context.Context, id core.NoteID, prev []byte, staged bool) {
	ctx = context.WithoutCancel(ctx)
	file := id.String() + Extension
	path := filepath.Join(s.Path, file)

	if staged {
		var err error
		if prev == nil {
			err = s.git.Untrack(ctx, file)
		} else if err = s.git.Reset(ctx, file); err != nil {
			// No HEAD yet: the note was never committed.
			err = s.git.Untrack(ctx, file)
		}
		if err != nil {
			s.logger.Error("failed to unstage note", "id", id, "error", err)
		}
	}

	if prev == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("failed to remove uncommitted note", "id", id, "error", err)
		}
		return
	}
	if err := writeFileAtomic(path, prev, 0644); err != nil {
		s.logger.Error("failed to restore note", "id", id, "error", err)
	}
}

type reasonKey struct{}

// WithReason attaches a free-form commit message to ctx. Versioned stores use it instead
// of the generated Conventional Commit message.
func WithReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, reasonKey{}, reason)
}

func reasonFrom(ctx context.Context) (string, bool) {
	r, ok := ctx.Value(reasonKey{}).(string)
	return r, ok && strings.TrimSpace(r) != ""
}
