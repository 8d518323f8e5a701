package editor

import "github.com/lomber1/notes-web/pkg/core"

// draftBuffer holds the latest locally edited fields. Every edit overwrites it.
type draftBuffer struct {
	content core.Content
	edited  bool
}

func newDraftBuffer(seed core.Content) *draftBuffer {
	return &draftBuffer{content: seed}
}

func (b *draftBuffer) set(c core.Content) {
	b.content = c
	b.edited = true
}

func (b *draftBuffer) get() core.Content { return b.content }

// saveEnabled mirrors the form's save button: an empty draft is never persisted.
func (b *draftBuffer) saveEnabled() bool { return !b.content.IsEmpty() }

// changed reports whether the draft was edited since the session opened.
func (b *draftBuffer) changed() bool { return b.edited }
