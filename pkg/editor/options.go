package editor

import (
	"context"
	"log/slog"
	"time"

	"github.com/lomber1/notes-web/pkg/clock"
	"github.com/lomber1/notes-web/pkg/core"
)

const (
	// DefaultDebounce is the quiet window after the last edit before it is persisted.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultCallTimeout bounds a single gateway call.
	DefaultCallTimeout = 10 * time.Second

	// DefaultOutcomeBuffer is the capacity of the outcome channel.
	DefaultOutcomeBuffer = 100
)

// options holds the internal configuration of a Controller.
type options struct {
	ctx           context.Context
	logger        *slog.Logger
	scheduler     clock.Scheduler
	debounce      time.Duration
	callTimeout   time.Duration
	outcomeBuffer int
	flushOnClose  bool
	defaultColor  core.Color
}

// Option defines a functional option for configuring a Controller.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		ctx:           context.Background(),
		logger:        nil,
		scheduler:     clock.System(),
		debounce:      DefaultDebounce,
		callTimeout:   DefaultCallTimeout,
		outcomeBuffer: DefaultOutcomeBuffer,
		flushOnClose:  false,
		defaultColor:  core.DefaultColor,
	}
}

// WithContext sets the parent context of the controller loop and its gateway calls.
// Cancelling it stops the loop; Shutdown is still required to release the outcome channel.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScheduler replaces the timer source (e.g. clock.NewManual in tests).
func WithScheduler(s clock.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithDebounce sets the coalescing delay. Defaults to 300ms.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithCallTimeout bounds each gateway call. Zero disables the timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		o.callTimeout = d
	}
}

// WithOutcomeBuffer sets the capacity of the outcome channel.
// Outcomes that do not fit are dropped and logged.
func WithOutcomeBuffer(size int) Option {
	return func(o *options) {
		o.outcomeBuffer = size
	}
}

// WithFlushOnClose controls what happens to an edit still waiting in the debounce window
// when the session is closed. By default it is dropped; when enabled it is persisted
// immediately instead.
func WithFlushOnClose(enabled bool) Option {
	return func(o *options) {
		o.flushOnClose = enabled
	}
}

// WithDefaultColor sets the color of new notes. Defaults to core.DefaultColor.
func WithDefaultColor(c core.Color) Option {
	return func(o *options) {
		o.defaultColor = c
	}
}
