// Package lifecycle exposes the editor outcome stream as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/lomber1/notes-web/pkg/core"
)

type outcomeSource struct {
	outcomes <-chan core.Outcome
	filter   func(core.Outcome) bool
	out      chan lifecycle.Event
}

// SourceOption configures NewSource.
type SourceOption func(*outcomeSource)

// FailuresOnly forwards only failed outcomes.
func FailuresOnly() SourceOption {
	return func(s *outcomeSource) {
		s.filter = func(o core.Outcome) bool { return o.Kind.Failed() }
	}
}

// NewSource creates a lifecycle.Source that emits editor outcomes.
// The source stops when the outcome channel is closed (editor shutdown) or ctx is done.
func NewSource(outcomes <-chan core.Outcome, opts ...SourceOption) lifecycle.Source {
	s := &outcomeSource{
		outcomes: outcomes,
		out:      make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *outcomeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *outcomeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case o, ok := <-s.outcomes:
				if !ok {
					return nil
				}
				if s.filter != nil && !s.filter(o) {
					continue
				}
				// core.Outcome implements lifecycle.Event (has String()).
				select {
				case s.out <- o:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
