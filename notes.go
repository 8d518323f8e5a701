package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/lomber1/notes-web/internal/platform"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
)

// --- Types ---

// Note is a persisted note.
type Note = core.Note

// Content holds the editable fields of a note.
type Content = core.Content

// Color is a palette entry.
type Color = core.Color

// Outcome reports the result of one persistence call.
type Outcome = core.Outcome

// Store is a readable note gateway, as returned by Open.
type Store = core.Store

// Editor drives editing sessions against a Store.
type Editor = editor.Controller

// --- Configuration ---

// Option defines a functional option for configuring notes.
type Option = platform.Option

// WithAdapter selects the store: "fs" (default), "memory", "redis" or "sqlite".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStore injects a custom store. The adapter settings are then ignored.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithLogger sets the logger for the store and the editor.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAutoInit creates the notes directory (and git repository when versioned).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning commits every change with git (fs adapter).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist requires the notes directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every mutation.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithSystemDir sets the hidden directory name (default ".notes").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the temporary-directory sandbox used under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithDebounce sets the delay between the last edit and its persistence.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithFlushOnClose persists a pending edit when its session closes.
func WithFlushOnClose(enabled bool) Option {
	return platform.WithFlushOnClose(enabled)
}

// WithCallTimeout bounds each store call issued by the editor.
func WithCallTimeout(d time.Duration) Option {
	return platform.WithCallTimeout(d)
}

// WithOutcomeBuffer sets the capacity of the outcome channel.
func WithOutcomeBuffer(size int) Option {
	return platform.WithOutcomeBuffer(size)
}

// WithDefaultColor sets the color of new notes.
func WithDefaultColor(c core.Color) Option {
	return platform.WithDefaultColor(c)
}

// WithEditorOption passes a raw editor option through (e.g. editor.WithScheduler).
func WithEditorOption(opt editor.Option) Option {
	return platform.WithEditorOption(opt)
}

// FromEnv returns the options described by the NOTES_* environment variables.
func FromEnv() []Option {
	return platform.LoadEnv().Options()
}

// --- Factory ---

// Open builds and initializes a store. The uri is adapter-specific.
func Open(ctx context.Context, uri string, opts ...Option) (Store, error) {
	return platform.Open(ctx, uri, opts...)
}

// New opens a store and starts an editor bound to it.
// Shutdown the editor before calling Close on the store.
func New(ctx context.Context, uri string, opts ...Option) (*Editor, Store, error) {
	return platform.New(ctx, uri, opts...)
}

// Close releases stores that hold connections.
func Close(store Store) error {
	return platform.Close(store)
}

// ParseColor resolves a palette entry case-insensitively.
func ParseColor(s string) (Color, error) {
	return core.ParseColor(s)
}
