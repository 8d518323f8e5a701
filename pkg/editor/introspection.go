package editor

import (
	"github.com/aretw0/introspection"

	"github.com/lomber1/notes-web/pkg/core"
)

// Phase is the lifecycle phase of the controller's session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEditing
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEditing:
		return "editing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON snapshots.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// SessionState is what the presentation layer needs to render the form.
type SessionState struct {
	Phase          Phase        `json:"phase"`
	Seq            uint64       `json:"session,omitempty"`
	NoteID         core.NoteID  `json:"note_id,omitempty"`
	HasIdentity    bool         `json:"has_identity"`
	Color          core.Color   `json:"color,omitempty"`
	Draft          core.Content `json:"draft"`
	SaveEnabled    bool         `json:"save_enabled"`
	Archived       bool         `json:"archived"`
	AwaitingCreate bool         `json:"awaiting_create"`
	PendingEdit    bool         `json:"pending_edit"`
	InFlight       int          `json:"in_flight"`
}

// Snapshot returns the state as of the last applied intent or completion.
func (c *Controller) Snapshot() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	return c.Snapshot()
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "editor"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)

// publish refreshes the snapshot. Loop only.
func (c *Controller) publish() {
	st := SessionState{Phase: c.phase, InFlight: c.calls}
	if s := c.current; s != nil {
		id, ok := s.resolver.identity()
		st.Seq = s.seq
		st.NoteID = id
		st.HasIdentity = ok
		st.Color = s.color.get()
		st.Draft = s.draft.get()
		st.SaveEnabled = s.draft.saveEnabled()
		st.Archived = s.archived
		st.AwaitingCreate = s.resolver.awaitingCreate()
		st.PendingEdit = s.coalescer.pending()
	}

	c.mu.Lock()
	c.snap = st
	c.mu.Unlock()
}
