package editor

import (
	"context"
	"log/slog"

	"github.com/lomber1/notes-web/pkg/core"
)

// colorController owns the session color. Local changes apply immediately; the remote
// record is only recolored directly once the note has an identity.
type colorController struct {
	gw       core.Gateway
	run      runner
	emit     emitFunc
	identity func() (core.NoteID, bool)
	logger   *slog.Logger

	color core.Color
}

func newColorController(initial core.Color, gw core.Gateway, run runner, emit emitFunc, logger *slog.Logger) *colorController {
	return &colorController{
		gw:     gw,
		run:    run,
		emit:   emit,
		logger: logger,
		color:  initial,
	}
}

func (c *colorController) get() core.Color { return c.color }

// set never rolls back: a failed remote recolor keeps the local color.
func (c *colorController) set(tag core.Color) {
	c.color = tag
	id, ok := c.identity()
	if !ok {
		c.logger.Debug("no identity yet, color rides with the next create", "color", tag)
		return
	}
	c.push(id, tag)
}

// reconcile pushes the local color when it changed after the create carrying sent went out.
func (c *colorController) reconcile(id core.NoteID, sent core.Color) {
	if c.color == sent {
		return
	}
	c.push(id, c.color)
}

func (c *colorController) push(id core.NoteID, tag core.Color) {
	c.run.run(core.OpSetColor, id, func(ctx context.Context) (core.NoteID, error) {
		return id, c.gw.SetColor(ctx, id, tag)
	}, func(_ core.NoteID, err error) {
		if err != nil {
			c.logger.Warn("recolor failed", "id", id, "color", tag, "error", err)
		}
		c.emit(core.OpSetColor, id, err)
	})
}
