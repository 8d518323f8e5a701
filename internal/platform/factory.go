package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lomber1/notes-web/pkg/adapters/fs"
	"github.com/lomber1/notes-web/pkg/adapters/memory"
	"github.com/lomber1/notes-web/pkg/adapters/redis"
	"github.com/lomber1/notes-web/pkg/adapters/sqlite"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
)

// Open builds and initializes the store selected by the options.
// The uri is adapter-specific: a directory for "fs", a redis:// URL for "redis",
// a file path or DSN for "sqlite"; it is ignored by "memory".
func Open(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	o := parseOptions(opts)
	return openStore(ctx, uri, o)
}

// New opens the store and starts an editor controller bound to it.
// Callers own both: Shutdown the controller, then Close the store.
func New(ctx context.Context, uri string, opts ...Option) (*editor.Controller, core.Store, error) {
	o := parseOptions(opts)

	store, err := openStore(ctx, uri, o)
	if err != nil {
		return nil, nil, err
	}

	editorOpts := []editor.Option{editor.WithContext(ctx)}
	if o.logger != nil {
		editorOpts = append(editorOpts, editor.WithLogger(o.logger))
	}
	editorOpts = append(editorOpts, o.editor...)

	ctrl, err := editor.New(store, editorOpts...)
	if err != nil {
		Close(store)
		return nil, nil, err
	}
	return ctrl, store, nil
}

// Close releases stores holding connections (redis, sqlite). Other stores are left alone.
func Close(store core.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func openStore(ctx context.Context, uri string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	var (
		store core.Store
		err   error
	)
	switch o.adapter {
	case AdapterMemory:
		store = memory.New()
	case AdapterFS:
		store = newFS(uri, o)
	case AdapterRedis:
		if uri == "" {
			uri = "redis://localhost:6379/0"
		}
		store, err = redis.NewStore(uri)
	case AdapterSQLite:
		if uri == "" {
			uri = "notes.db"
		}
		store, err = sqlite.Open(ctx, uri)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.adapter, err)
	}

	if initializer, ok := store.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			Close(store)
			return nil, fmt.Errorf("initialize %s store: %w", o.adapter, err)
		}
	}

	o.log().Debug("store opened", "adapter", o.adapter, "uri", uri)
	return store, nil
}

// newFS resolves the directory (dev sandbox, versioning detection) and builds the fs store.
func newFS(path string, o *options) *fs.Store {
	readOnly := o.bool("read_only")
	autoInit := o.bool("auto_init")
	systemDir, _ := o.config["system_dir"].(string)
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	devSafety := true
	if v, ok := o.config["dev_safety"].(bool); ok {
		devSafety = v
	}
	useTemp := o.bool("temp_dir") || (IsDevRun() && devSafety && !readOnly)
	resolved := ResolvePath(path, useTemp)
	if useTemp && resolved != path {
		o.log().Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}

	// Without an explicit setting, an existing repository is versioned.
	versioned, ok := o.config["versioned"].(bool)
	if !ok {
		_, err := os.Stat(filepath.Join(resolved, ".git"))
		versioned = err == nil
		if versioned {
			o.log().Debug("auto-detected versioned mode", "reason", ".git present")
		}
	}

	return fs.NewStore(fs.Config{
		Path:      resolved,
		AutoInit:  autoInit,
		Versioned: versioned,
		MustExist: o.bool("must_exist") || (!autoInit && !useTemp),
		ReadOnly:  readOnly,
		SystemDir: systemDir,
		Logger:    o.logger,
	})
}

func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}
