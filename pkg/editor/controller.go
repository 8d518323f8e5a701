package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/lomber1/notes-web/pkg/clock"
	"github.com/lomber1/notes-web/pkg/core"
)

// session is the state of one open form: identity, draft and color.
type session struct {
	seq       uint64
	archived  bool
	draft     *draftBuffer
	color     *colorController
	resolver  *identityResolver
	coalescer *changeCoalescer
}

type task struct {
	fn   func()
	done chan struct{}
}

// Controller orchestrates editing sessions against a core.Gateway.
// It is safe for concurrent use; all state transitions run on its loop goroutine.
type Controller struct {
	gw     core.Gateway
	sched  clock.Scheduler
	logger *slog.Logger
	opts   options

	ctx      context.Context
	cancel   context.CancelFunc
	inbox    chan task
	quit     chan struct{}
	stopped  chan struct{}
	outcomes chan core.Outcome
	inflight sync.WaitGroup
	stopOnce sync.Once

	// Owned by the loop.
	phase    Phase
	current  *session
	seq      uint64
	calls    int
	shutting bool

	mu   sync.RWMutex
	snap SessionState
}

// New creates a Controller and starts its loop.
func New(gw core.Gateway, opts ...Option) (*Controller, error) {
	if gw == nil {
		return nil, errors.New("editor: gateway is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.debounce <= 0 {
		return nil, fmt.Errorf("editor: debounce must be positive, got %s", o.debounce)
	}
	if !o.defaultColor.Valid() {
		return nil, fmt.Errorf("editor: default color: %w: %q", core.ErrInvalidColor, o.defaultColor)
	}
	if o.outcomeBuffer < 0 {
		o.outcomeBuffer = 0
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(o.ctx)
	c := &Controller{
		gw:       gw,
		sched:    o.scheduler,
		logger:   o.logger,
		opts:     *o,
		ctx:      ctx,
		cancel:   cancel,
		inbox:    make(chan task),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		outcomes: make(chan core.Outcome, o.outcomeBuffer),
		phase:    PhaseIdle,
	}
	c.publish()

	lifecycle.Go(ctx, c.loop, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("editor loop panic", "error", err)
	}))

	return c, nil
}

// Outcomes streams the result of every persistence call, including calls that complete
// after their session was closed. The channel is closed by Shutdown.
func (c *Controller) Outcomes() <-chan core.Outcome {
	return c.outcomes
}

// Open starts a session. A nil note starts a new, not yet created note.
// Opening a different note while editing closes the current session first;
// reopening the note being edited keeps the session.
func (c *Controller) Open(note *core.Note) error {
	return c.exec(func() error { return c.open(note) })
}

// Edit replaces the draft and schedules it for persistence after the debounce window.
func (c *Controller) Edit(content core.Content) error {
	return c.exec(func() error { return c.edit(content) })
}

// Save persists the draft immediately and closes the session.
// It is a no-op, leaving the session open, when the draft is empty. Saving a note that
// was not edited in this session closes it without a call.
func (c *Controller) Save() error {
	return c.exec(c.save)
}

// Close ends the session. An edit still waiting for the debounce timer is dropped
// unless the controller was built WithFlushOnClose(true).
func (c *Controller) Close() error {
	return c.exec(c.close)
}

// Archive archives the note and closes the session without waiting for the result.
// It is a no-op when the note has no identity yet.
func (c *Controller) Archive() error {
	return c.exec(func() error {
		return c.finish(core.OpArchive, c.gw.ArchiveNote)
	})
}

// Unarchive restores an archived note and closes the session.
// It is a no-op when the note has no identity yet.
func (c *Controller) Unarchive() error {
	return c.exec(func() error {
		return c.finish(core.OpUnarchive, c.gw.UnarchiveNote)
	})
}

// Delete removes the note and closes the session.
// It is a no-op when the note has no identity yet.
func (c *Controller) Delete() error {
	return c.exec(func() error {
		return c.finish(core.OpDelete, c.gw.DeleteNote)
	})
}

// Recolor changes the note color. The session stays open.
func (c *Controller) Recolor(tag core.Color) error {
	if !tag.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, tag)
	}
	return c.exec(func() error {
		s, err := c.editing()
		if err != nil {
			return err
		}
		s.color.set(tag)
		return nil
	})
}

// Shutdown closes the open session, waits for in-flight gateway calls, stops the loop and
// closes the outcome channel. If ctx expires first the remaining calls are cancelled.
func (c *Controller) Shutdown(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		_ = c.do(func() {
			c.shutting = true
			if c.phase == PhaseEditing {
				c.teardown(c.opts.flushOnClose)
			}
		})

		idle := make(chan struct{})
		go func() {
			c.inflight.Wait()
			close(idle)
		}()

		select {
		case <-idle:
		case <-ctx.Done():
			err = ctx.Err()
			c.logger.Warn("shutdown deadline reached, cancelling in-flight calls", "error", err)
			c.cancel()
		}

		close(c.quit)
		<-c.stopped
		c.cancel()
		close(c.outcomes)
	})
	return err
}

func (c *Controller) loop(ctx context.Context) error {
	defer close(c.stopped)
	for {
		select {
		case t := <-c.inbox:
			t.fn()
			c.publish()
			close(t.done)
		case <-c.quit:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// do runs fn on the loop and waits for it to be applied.
func (c *Controller) do(fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case c.inbox <- t:
	case <-c.stopped:
		return ErrStopped
	}
	select {
	case <-t.done:
		return nil
	case <-c.stopped:
		return ErrStopped
	}
}

func (c *Controller) exec(fn func() error) error {
	var err error
	if derr := c.do(func() {
		if c.shutting {
			err = ErrStopped
			return
		}
		err = fn()
	}); derr != nil {
		return derr
	}
	return err
}

// post hands a timer callback to the loop. Callbacks arriving after shutdown are dropped.
func (c *Controller) post(fn func()) {
	_ = c.do(fn)
}

// run implements runner. Loop only.
func (c *Controller) run(op core.Op, id core.NoteID, fn call, done func(core.NoteID, error)) {
	c.calls++
	c.inflight.Add(1)
	c.logger.Debug("dispatching gateway call", "op", op, "id", id)

	lifecycle.Go(c.ctx, func(context.Context) error {
		defer c.inflight.Done()

		callCtx, cancel := c.callContext()
		rid, err := invoke(callCtx, fn)
		cancel()

		// A stopped loop means the response is ignored.
		_ = c.do(func() {
			c.calls--
			done(rid, err)
		})
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("gateway call panic", "op", op, "error", err)
	}))
}

func (c *Controller) callContext() (context.Context, context.CancelFunc) {
	if c.opts.callTimeout > 0 {
		return context.WithTimeout(c.ctx, c.opts.callTimeout)
	}
	return context.WithCancel(c.ctx)
}

// invoke turns a gateway panic into an error so the session never stalls waiting for it.
func invoke(ctx context.Context, fn call) (id core.NoteID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (c *Controller) emitter(seq uint64) emitFunc {
	return func(op core.Op, id core.NoteID, err error) {
		o := core.NewOutcome(op, seq, id, err)
		o.At = c.sched.Now()

		if o.Kind.Failed() {
			c.logger.Warn("persistence failed", "kind", o.Kind, "session", seq, "id", id, "error", err)
		} else {
			c.logger.Info("persisted", "kind", o.Kind, "session", seq, "id", id)
		}

		select {
		case c.outcomes <- o:
		default:
			c.logger.Warn("outcome buffer full, dropping outcome", "kind", o.Kind, "session", seq)
		}
	}
}

func (c *Controller) newSession(note *core.Note) *session {
	c.seq++
	seq := c.seq
	emit := c.emitter(seq)
	logger := c.logger.With("session", seq)

	var (
		seed  core.Content
		id    core.NoteID
		color = c.opts.defaultColor
		s     = &session{seq: seq}
	)
	if note != nil {
		seed = note.Content
		id = note.ID
		s.archived = note.Archived
		if note.Color.Valid() {
			color = note.Color
		} else if note.Color != "" {
			logger.Warn("unknown note color, using default", "color", note.Color)
		}
	}

	s.draft = newDraftBuffer(seed)
	s.color = newColorController(color, c.gw, c, emit, logger)
	s.resolver = newIdentityResolver(id, c.gw, c, emit, s.color.get, logger)
	s.color.identity = s.resolver.identity
	s.resolver.onBound = s.color.reconcile
	s.coalescer = newChangeCoalescer(c.sched, c.opts.debounce, c.post, s.resolver.resolve)
	return s
}

func (c *Controller) editing() (*session, error) {
	if c.phase != PhaseEditing || c.current == nil {
		return nil, ErrNoSession
	}
	return c.current, nil
}

func (c *Controller) open(note *core.Note) error {
	if c.phase == PhaseEditing {
		if note != nil && !note.ID.IsZero() {
			if id, ok := c.current.resolver.identity(); ok && id == note.ID {
				return nil
			}
		}
		c.teardown(c.opts.flushOnClose)
	}

	c.current = c.newSession(note)
	c.phase = PhaseEditing

	id, _ := c.current.resolver.identity()
	c.logger.Info("session opened", "session", c.current.seq, "id", id, "color", c.current.color.get())
	return nil
}

func (c *Controller) edit(content core.Content) error {
	s, err := c.editing()
	if err != nil {
		return err
	}
	s.draft.set(content)
	s.coalescer.schedule(content)
	return nil
}

func (c *Controller) save() error {
	s, err := c.editing()
	if err != nil {
		return err
	}
	if !s.draft.saveEnabled() {
		c.logger.Debug("save ignored, draft is empty", "session", s.seq)
		return nil
	}
	s.coalescer.cancel()
	if s.draft.changed() {
		s.resolver.resolve(s.draft.get())
	} else {
		c.logger.Debug("save without edits, nothing to persist", "session", s.seq)
	}
	c.teardown(false)
	return nil
}

func (c *Controller) close() error {
	if _, err := c.editing(); err != nil {
		return err
	}
	c.teardown(c.opts.flushOnClose)
	return nil
}

// finish issues a terminal request against the bound identity and closes the session
// without waiting for its outcome.
func (c *Controller) finish(op core.Op, fn func(context.Context, core.NoteID) error) error {
	s, err := c.editing()
	if err != nil {
		return err
	}
	id, ok := s.resolver.identity()
	if !ok {
		c.logger.Debug("ignoring intent, note has no identity", "op", op, "session", s.seq)
		return nil
	}

	if op != core.OpDelete && c.opts.flushOnClose {
		if content, ok := s.coalescer.flush(); ok {
			s.resolver.resolve(content)
		}
	}

	emit := c.emitter(s.seq)
	c.run(op, id, func(ctx context.Context) (core.NoteID, error) {
		return id, fn(ctx, id)
	}, func(_ core.NoteID, err error) {
		emit(op, id, err)
	})

	c.teardown(false)
	return nil
}

// teardown closes the current session. In-flight calls keep running; their completions
// still reach the closed session's resolver so a held snapshot is not lost.
func (c *Controller) teardown(flush bool) {
	s := c.current
	if s == nil {
		return
	}

	if flush {
		if content, ok := s.coalescer.flush(); ok {
			c.logger.Debug("flushing pending edit on close", "session", s.seq)
			s.resolver.resolve(content)
		}
	} else if s.coalescer.pending() {
		c.logger.Debug("dropping unflushed edit on close", "session", s.seq)
	}
	s.coalescer.cancel()

	c.current = nil
	c.phase = PhaseClosed
	c.logger.Info("session closed", "session", s.seq)
}
