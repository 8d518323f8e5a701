package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound     = errors.New("note not found")
	ErrInvalidColor = errors.New("invalid color")
	ErrReadOnly     = errors.New("store is in read-only mode")
)

// OpError records a failed gateway operation.
type OpError struct {
	Op     Op
	NoteID NoteID
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.NoteID.IsZero() {
		return fmt.Sprintf("%s note: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s note %s: %v", e.Op, e.NoteID, e.Err)
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WrapOpError annotates err with the operation and identity.
// Errors that already carry an OpError are returned unchanged.
func WrapOpError(op Op, id NoteID, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, NoteID: id, Err: err}
}
