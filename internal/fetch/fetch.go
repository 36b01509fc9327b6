// Package fetch coordinates concurrent API loads for a screen.
package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// All runs every fn concurrently and waits for all of them. It returns
// the first error; the shared context is cancelled as soon as one fails.
// Callers must discard every partial result when All returns an error.
func All(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// Generation identifies one activation of a Scope.
type Generation uint64

// Scope tracks the in-flight load of a single screen. Each Begin cancels
// the previous load, so only the latest activation's results are applied.
// The zero value is ready to use; a Scope must not be copied after use.
type Scope struct {
	mu     sync.Mutex
	gen    Generation
	cancel context.CancelFunc
}

// Begin starts a new activation derived from parent, cancelling any
// earlier one.
func (s *Scope) Begin(parent context.Context) (context.Context, Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx, s.gen
}

// Current reports whether g is still the latest activation.
func (s *Scope) Current(g Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return g == s.gen
}

// Done releases the activation's context once its results are handled.
func (s *Scope) Done(g Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g == s.gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Cancel aborts the in-flight activation, e.g. when the screen closes.
// Results that arrive afterwards are stale.
func (s *Scope) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}
