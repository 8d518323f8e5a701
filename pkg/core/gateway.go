package core

import "context"

// Gateway is the contract of the remote note store the editor persists through.
// Implementations must be safe for concurrent use; every call is stateless and keyed by
// identity and content.
type Gateway interface {
	// CreateNote persists a new note and returns its server-assigned identity.
	CreateNote(ctx context.Context, content Content, color Color) (NoteID, error)

	// UpdateNote replaces the content and color of an existing note.
	UpdateNote(ctx context.Context, id NoteID, content Content, color Color) error

	// SetColor changes only the color of an existing note.
	SetColor(ctx context.Context, id NoteID, color Color) error

	ArchiveNote(ctx context.Context, id NoteID) error
	UnarchiveNote(ctx context.Context, id NoteID) error
	DeleteNote(ctx context.Context, id NoteID) error
}

// Reader gives read access to stored notes.
type Reader interface {
	// GetNote returns ErrNotFound (possibly wrapped) for unknown identities.
	GetNote(ctx context.Context, id NoteID) (Note, error)

	// ListNotes returns every stored note ordered by identity.
	ListNotes(ctx context.Context) ([]Note, error)
}

// Store is a Gateway that can also be read back, as implemented by the adapters.
type Store interface {
	Gateway
	Reader
}

// Initializer is implemented by stores that need setup before first use
// (e.g. create directories, schema migration).
type Initializer interface {
	Initialize(ctx context.Context) error
}
