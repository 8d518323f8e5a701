package editor

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/lomber1/notes-web/pkg/core"
)

var discard = slog.New(slog.DiscardHandler)

// stubCall is a gateway call captured by stubRunner, completed on demand.
type stubCall struct {
	op   core.Op
	id   core.NoteID
	fn   call
	done func(core.NoteID, error)
}

// stubRunner queues calls instead of running them so tests control completion order.
type stubRunner struct {
	calls []*stubCall
}

func (r *stubRunner) run(op core.Op, id core.NoteID, fn call, done func(core.NoteID, error)) {
	r.calls = append(r.calls, &stubCall{op: op, id: id, fn: fn, done: done})
}

// complete runs the oldest queued call against the gateway and delivers its result.
func (r *stubRunner) complete(t *testing.T) *stubCall {
	t.Helper()
	if len(r.calls) == 0 {
		t.Fatal("no pending call to complete")
	}
	c := r.calls[0]
	r.calls = r.calls[1:]
	id, err := c.fn(context.Background())
	c.done(id, err)
	return c
}

type recordedCall struct {
	op      core.Op
	id      core.NoteID
	content core.Content
	color   core.Color
}

// recordingGateway answers immediately with configured results.
type recordingGateway struct {
	mu       sync.Mutex
	calls    []recordedCall
	nextID   core.NoteID
	failures map[core.Op]error
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{nextID: "N1", failures: map[core.Op]error{}}
}

func (g *recordingGateway) record(c recordedCall) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	return g.failures[c.op]
}

func (g *recordingGateway) CreateNote(_ context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	if err := g.record(recordedCall{op: core.OpCreate, content: content, color: color}); err != nil {
		return "", err
	}
	return g.nextID, nil
}

func (g *recordingGateway) UpdateNote(_ context.Context, id core.NoteID, content core.Content, color core.Color) error {
	return g.record(recordedCall{op: core.OpUpdate, id: id, content: content, color: color})
}

func (g *recordingGateway) SetColor(_ context.Context, id core.NoteID, color core.Color) error {
	return g.record(recordedCall{op: core.OpSetColor, id: id, color: color})
}

func (g *recordingGateway) ArchiveNote(_ context.Context, id core.NoteID) error {
	return g.record(recordedCall{op: core.OpArchive, id: id})
}

func (g *recordingGateway) UnarchiveNote(_ context.Context, id core.NoteID) error {
	return g.record(recordedCall{op: core.OpUnarchive, id: id})
}

func (g *recordingGateway) DeleteNote(_ context.Context, id core.NoteID) error {
	return g.record(recordedCall{op: core.OpDelete, id: id})
}

// outcomeLog collects emitted outcomes.
type outcomeLog struct {
	kinds []core.OutcomeKind
	errs  []error
}

func (l *outcomeLog) emit(op core.Op, _ core.NoteID, err error) {
	l.kinds = append(l.kinds, core.KindFor(op, err))
	l.errs = append(l.errs, err)
}

// newTestSession wires a resolver and color controller the way the Controller does.
func newTestSession(id core.NoteID, color core.Color) (*identityResolver, *colorController, *stubRunner, *recordingGateway, *outcomeLog) {
	gw := newRecordingGateway()
	run := &stubRunner{}
	log := &outcomeLog{}
	cc := newColorController(color, gw, run, log.emit, discard)
	r := newIdentityResolver(id, gw, run, log.emit, cc.get, discard)
	cc.identity = r.identity
	r.onBound = cc.reconcile
	return r, cc, run, gw, log
}
