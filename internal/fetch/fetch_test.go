package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllSucceeds(t *testing.T) {
	var a, b int
	err := All(context.Background(),
		func(context.Context) error { a = 1; return nil },
		func(context.Context) error { b = 2; return nil },
	)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if a != 1 || b != 2 {
		t.Errorf("results not written: a=%d b=%d", a, b)
	}
}

func TestAllReturnsFirstFailureAndCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Bool

	err := All(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !cancelled.Load() {
		t.Error("sibling request was not cancelled")
	}
}

func TestAllWaitsForEveryRequest(t *testing.T) {
	var finished atomic.Int32
	slow := func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
		return nil
	}
	if err := All(context.Background(), slow, slow, slow); err != nil {
		t.Fatalf("All: %v", err)
	}
	if finished.Load() != 3 {
		t.Errorf("finished = %d, want 3", finished.Load())
	}
}

func TestScopeGenerations(t *testing.T) {
	var s Scope
	ctx1, g1 := s.Begin(context.Background())
	ctx2, g2 := s.Begin(context.Background())

	if ctx1.Err() == nil {
		t.Error("first activation should be cancelled by the second Begin")
	}
	if s.Current(g1) {
		t.Error("stale generation reported current")
	}
	if !s.Current(g2) {
		t.Error("latest generation not current")
	}

	s.Done(g2)
	if ctx2.Err() == nil {
		t.Error("Done should release the context")
	}
	if !s.Current(g2) {
		t.Error("Done must not invalidate the generation")
	}
}

func TestScopeCancel(t *testing.T) {
	var s Scope
	ctx, g := s.Begin(context.Background())
	s.Cancel()
	if ctx.Err() == nil {
		t.Error("Cancel did not cancel the context")
	}
	if s.Current(g) {
		t.Error("results after Cancel should be stale")
	}
}
