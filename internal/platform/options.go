package platform

import (
	"log/slog"
	"time"

	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterMemory = "memory"
	AdapterFS     = "fs"
	AdapterRedis  = "redis"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration for opening a store and an editor.
type options struct {
	store   core.Store
	logger  *slog.Logger
	adapter string
	config  map[string]interface{}
	editor  []editor.Option
}

// Option defines a functional option for configuring the notes platform.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		store:   nil,
		logger:  nil,
		adapter: AdapterFS,
		config:  make(map[string]interface{}),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAdapter selects the store by name: "fs" (default), "memory", "redis" or "sqlite".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithStore injects a ready store. The adapter and its settings are then ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets the logger for the store and the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit creates the notes directory and runs `git init` when needed (fs adapter).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning commits every change with git (fs adapter). Disabled by default.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versioned"] = enabled
	}
}

// WithMustExist requires the notes directory to exist already (fs adapter).
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly rejects every mutation with core.ErrReadOnly (fs adapter).
// Read-only stores bypass the dev sandbox and use the real path.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithSystemDir sets the hidden directory name. Defaults to ".notes" (fs adapter).
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithForceTemp re-roots the notes directory under the system temp dir.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`: by default the
// fs adapter is re-rooted into a temporary directory so a dev run never writes into the
// working tree. Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithDebounce sets the editor coalescing delay.
func WithDebounce(d time.Duration) Option {
	return WithEditorOption(editor.WithDebounce(d))
}

// WithFlushOnClose persists a debounced edit when its session closes instead of dropping it.
func WithFlushOnClose(enabled bool) Option {
	return WithEditorOption(editor.WithFlushOnClose(enabled))
}

// WithCallTimeout bounds each store call issued by the editor.
func WithCallTimeout(d time.Duration) Option {
	return WithEditorOption(editor.WithCallTimeout(d))
}

// WithOutcomeBuffer sets the capacity of the editor outcome channel.
func WithOutcomeBuffer(size int) Option {
	return WithEditorOption(editor.WithOutcomeBuffer(size))
}

// WithDefaultColor sets the color of new notes.
func WithDefaultColor(c core.Color) Option {
	return WithEditorOption(editor.WithDefaultColor(c))
}

// WithEditorOption passes a raw option through to editor.New.
func WithEditorOption(opt editor.Option) Option {
	return func(o *options) {
		o.editor = append(o.editor, opt)
	}
}

func (o *options) bool(key string) bool {
	v, _ := o.config[key].(bool)
	return v
}
