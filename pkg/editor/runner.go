package editor

import (
	"context"

	"github.com/lomber1/notes-web/pkg/core"
)

// call performs one gateway request off the loop.
type call func(ctx context.Context) (core.NoteID, error)

// runner dispatches gateway calls and delivers their completion back on the loop.
type runner interface {
	run(op core.Op, id core.NoteID, fn call, done func(core.NoteID, error))
}

// emitFunc reports the result of a finished call for the session that issued it.
type emitFunc func(op core.Op, id core.NoteID, err error)
