package editor_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lomber1/notes-web/pkg/clock"
	"github.com/lomber1/notes-web/pkg/core"
	"github.com/lomber1/notes-web/pkg/editor"
)

const waitTimeout = 2 * time.Second

type gwReply struct {
	id  core.NoteID
	err error
}

// gwCall is one request received by fakeGateway.
type gwCall struct {
	Op      core.Op
	ID      core.NoteID
	Content core.Content
	Color   core.Color
	reply   chan gwReply
}

func (c *gwCall) Succeed(id core.NoteID) { c.reply <- gwReply{id: id} }
func (c *gwCall) OK()                    { c.reply <- gwReply{id: c.ID} }
func (c *gwCall) Fail(err error)         { c.reply <- gwReply{err: err} }

// fakeGateway hands every request to the test, which answers it explicitly.
// With auto set, requests are answered immediately instead.
type fakeGateway struct {
	calls chan *gwCall
	auto  func(*gwCall) gwReply

	mu  sync.Mutex
	log []gwCall
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(chan *gwCall, 64)}
}

// newAutoGateway answers creates with N1, N2, ... and everything else with success.
func newAutoGateway() *fakeGateway {
	g := newFakeGateway()
	var mu sync.Mutex
	n := 0
	g.auto = func(c *gwCall) gwReply {
		if c.Op != core.OpCreate {
			return gwReply{id: c.ID}
		}
		mu.Lock()
		defer mu.Unlock()
		n++
		return gwReply{id: core.NoteID(fmt.Sprintf("N%d", n))}
	}
	return g
}

func (g *fakeGateway) handle(ctx context.Context, c *gwCall) gwReply {
	c.reply = make(chan gwReply, 1)
	g.mu.Lock()
	g.log = append(g.log, *c)
	auto := g.auto
	g.mu.Unlock()

	if auto != nil {
		return auto(c)
	}
	g.calls <- c
	select {
	case r := <-c.reply:
		return r
	case <-ctx.Done():
		return gwReply{err: ctx.Err()}
	}
}

func (g *fakeGateway) CreateNote(ctx context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	r := g.handle(ctx, &gwCall{Op: core.OpCreate, Content: content, Color: color})
	return r.id, r.err
}

func (g *fakeGateway) UpdateNote(ctx context.Context, id core.NoteID, content core.Content, color core.Color) error {
	return g.handle(ctx, &gwCall{Op: core.OpUpdate, ID: id, Content: content, Color: color}).err
}

func (g *fakeGateway) SetColor(ctx context.Context, id core.NoteID, color core.Color) error {
	return g.handle(ctx, &gwCall{Op: core.OpSetColor, ID: id, Color: color}).err
}

func (g *fakeGateway) ArchiveNote(ctx context.Context, id core.NoteID) error {
	return g.handle(ctx, &gwCall{Op: core.OpArchive, ID: id}).err
}

func (g *fakeGateway) UnarchiveNote(ctx context.Context, id core.NoteID) error {
	return g.handle(ctx, &gwCall{Op: core.OpUnarchive, ID: id}).err
}

func (g *fakeGateway) DeleteNote(ctx context.Context, id core.NoteID) error {
	return g.handle(ctx, &gwCall{Op: core.OpDelete, ID: id}).err
}

// next waits for the next request.
func (g *fakeGateway) next(t *testing.T) *gwCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("expected a gateway call")
		return nil
	}
}

// expectNoCall asserts that no request arrives within a short grace period.
func (g *fakeGateway) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected gateway call: %s %s %+v", c.Op, c.ID, c.Content)
	case <-time.After(50 * time.Millisecond):
	}
}

func (g *fakeGateway) recorded() []gwCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gwCall, len(g.log))
	copy(out, g.log)
	return out
}

func newTestController(t *testing.T, gw core.Gateway, opts ...editor.Option) (*editor.Controller, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctrl, err := editor.New(gw, append([]editor.Option{editor.WithScheduler(clk)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = ctrl.Shutdown(ctx)
	})
	return ctrl, clk
}

func nextOutcome(t *testing.T, ctrl *editor.Controller) core.Outcome {
	t.Helper()
	select {
	case o, ok := <-ctrl.Outcomes():
		require.True(t, ok, "outcome channel closed")
		return o
	case <-time.After(waitTimeout):
		t.Fatal("expected an outcome")
		return core.Outcome{}
	}
}
