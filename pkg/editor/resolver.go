package editor

import (
	"context"
	"log/slog"

	"github.com/lomber1/notes-web/pkg/core"
)

// identityState tracks whether the session's note exists remotely.
type identityState int

const (
	identityAbsent identityState = iota
	identityAwaitingCreate
	identityBound
)

func (s identityState) String() string {
	switch s {
	case identityAbsent:
		return "absent"
	case identityAwaitingCreate:
		return "awaiting-create"
	case identityBound:
		return "bound"
	default:
		return "unknown"
	}
}

// identityResolver routes content flushes to create or update and guarantees at most one
// create in flight per session. Snapshots that arrive while a create is outstanding are
// held (latest wins) and re-flushed once it resolves.
type identityResolver struct {
	gw     core.Gateway
	run    runner
	emit   emitFunc
	color  func() core.Color
	logger *slog.Logger

	// onBound runs after a successful create that had no queued snapshot,
	// with the color that create carried.
	onBound func(id core.NoteID, sent core.Color)

	state  identityState
	id     core.NoteID
	queued *core.Content
}

func newIdentityResolver(id core.NoteID, gw core.Gateway, run runner, emit emitFunc, color func() core.Color, logger *slog.Logger) *identityResolver {
	r := &identityResolver{
		gw:     gw,
		run:    run,
		emit:   emit,
		color:  color,
		logger: logger,
	}
	if !id.IsZero() {
		r.state = identityBound
		r.id = id
	}
	return r
}

// identity returns the bound identity. It is append-only: once bound it never changes.
func (r *identityResolver) identity() (core.NoteID, bool) {
	return r.id, r.state == identityBound
}

func (r *identityResolver) awaitingCreate() bool { return r.state == identityAwaitingCreate }

// resolve persists content against the identity current at send time.
func (r *identityResolver) resolve(content core.Content) {
	if content.IsEmpty() {
		r.logger.Debug("skipping empty draft")
		return
	}

	switch r.state {
	case identityBound:
		r.update(content)
	case identityAwaitingCreate:
		snapshot := content
		r.queued = &snapshot
		r.logger.Debug("create in flight, holding snapshot")
	default:
		r.create(content)
	}
}

func (r *identityResolver) create(content core.Content) {
	color := r.color()
	r.state = identityAwaitingCreate
	r.run.run(core.OpCreate, "", func(ctx context.Context) (core.NoteID, error) {
		return r.gw.CreateNote(ctx, content, color)
	}, func(id core.NoteID, err error) {
		r.created(id, color, err)
	})
}

func (r *identityResolver) created(id core.NoteID, sent core.Color, err error) {
	if err == nil && id.IsZero() {
		err = errEmptyIdentity
	}

	if err != nil {
		r.state = identityAbsent
		r.logger.Warn("create failed", "error", err)
		r.emit(core.OpCreate, "", err)
	} else {
		r.state = identityBound
		r.id = id
		r.logger.Debug("identity bound", "id", id)
		r.emit(core.OpCreate, id, nil)
	}

	if queued := r.queued; queued != nil {
		r.queued = nil
		r.resolve(*queued)
		return
	}
	if err == nil && r.onBound != nil {
		r.onBound(id, sent)
	}
}

func (r *identityResolver) update(content core.Content) {
	id, color := r.id, r.color()
	r.run.run(core.OpUpdate, id, func(ctx context.Context) (core.NoteID, error) {
		return id, r.gw.UpdateNote(ctx, id, content, color)
	}, func(_ core.NoteID, err error) {
		if err != nil {
			r.logger.Warn("update failed", "id", id, "error", err)
		}
		r.emit(core.OpUpdate, id, err)
	})
}
