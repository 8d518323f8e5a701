package core

import (
	"fmt"
	"time"
)

// Op names a gateway operation.
type Op string

const (
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpSetColor  Op = "set-color"
	OpArchive   Op = "archive"
	OpUnarchive Op = "unarchive"
	OpDelete    Op = "delete"
)

// OutcomeKind is the user-visible result of a persistence call.
type OutcomeKind string

const (
	OutcomeCreated         OutcomeKind = "created"
	OutcomeCreateFailed    OutcomeKind = "create-failed"
	OutcomeUpdated         OutcomeKind = "updated"
	OutcomeUpdateFailed    OutcomeKind = "update-failed"
	OutcomeRecolored       OutcomeKind = "recolored"
	OutcomeRecolorFailed   OutcomeKind = "recolor-failed"
	OutcomeArchived        OutcomeKind = "archived"
	OutcomeArchiveFailed   OutcomeKind = "archive-failed"
	OutcomeUnarchived      OutcomeKind = "unarchived"
	OutcomeUnarchiveFailed OutcomeKind = "unarchive-failed"
	OutcomeDeleted         OutcomeKind = "deleted"
	OutcomeDeleteFailed    OutcomeKind = "delete-failed"
)

var outcomeKinds = map[Op][2]OutcomeKind{
	OpCreate:    {OutcomeCreated, OutcomeCreateFailed},
	OpUpdate:    {OutcomeUpdated, OutcomeUpdateFailed},
	OpSetColor:  {OutcomeRecolored, OutcomeRecolorFailed},
	OpArchive:   {OutcomeArchived, OutcomeArchiveFailed},
	OpUnarchive: {OutcomeUnarchived, OutcomeUnarchiveFailed},
	OpDelete:    {OutcomeDeleted, OutcomeDeleteFailed},
}

// KindFor maps an operation result onto its outcome kind.
func KindFor(op Op, err error) OutcomeKind {
	kinds, ok := outcomeKinds[op]
	if !ok {
		return OutcomeKind(fmt.Sprintf("%s-unknown", op))
	}
	if err != nil {
		return kinds[1]
	}
	return kinds[0]
}

// Failed reports whether the kind signals an error.
func (k OutcomeKind) Failed() bool {
	for _, kinds := range outcomeKinds {
		if k == kinds[1] {
			return true
		}
	}
	return false
}

// Outcome is emitted once per completed persistence call.
// Failures are recoverable; they are reported for transient user feedback only.
type Outcome struct {
	Kind    OutcomeKind
	Op      Op
	Session uint64 // sequence of the editing session that issued the call
	NoteID  NoteID
	Err     error // *OpError when Kind.Failed()
	At      time.Time
}

// NewOutcome builds the outcome for a finished call, wrapping err in an OpError.
func NewOutcome(op Op, session uint64, id NoteID, err error) Outcome {
	return Outcome{
		Kind:    KindFor(op, err),
		Op:      op,
		Session: session,
		NoteID:  id,
		Err:     WrapOpError(op, id, err),
		At:      time.Now(),
	}
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s session=%d id=%s: %v", o.Kind, o.Session, o.NoteID, o.Err)
	}
	return fmt.Sprintf("%s session=%d id=%s", o.Kind, o.Session, o.NoteID)
}
