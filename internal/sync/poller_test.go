package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/tracerx/internal/model"
)

type fakeFeed struct {
	mu    gosync.Mutex
	pages [][]model.Activity
	calls int
	err   error
}

func (f *fakeFeed) LoadActivities(ctx context.Context) ([]model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func receive(t *testing.T, p *Poller) ActivityResultMsg {
	t.Helper()
	done := make(chan ActivityResultMsg, 1)
	go func() {
		msg, _ := p.WaitForNextResult()().(ActivityResultMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll result")
		return ActivityResultMsg{}
	}
}

func TestPollerCountsUnreadAndNew(t *testing.T) {
	feed := &fakeFeed{pages: [][]model.Activity{
		{{ID: "a1"}, {ID: "a2", Read: true}},
		{{ID: "a1"}, {ID: "a2", Read: true}, {ID: "a3"}, {ID: "a4"}},
	}}
	p := New(feed, time.Hour, nil)
	if cmd := p.Start(); cmd == nil {
		t.Fatal("Start returned nil")
	}
	defer p.Stop()

	first := receive(t, p)
	if first.Error != nil || first.Unread != 1 || first.NewCount != 0 {
		t.Fatalf("first poll = %+v, want 1 unread and nothing new", first)
	}

	p.Refresh()
	second := receive(t, p)
	if second.Unread != 3 || second.NewCount != 2 {
		t.Fatalf("second poll unread=%d new=%d, want 3 and 2", second.Unread, second.NewCount)
	}
	if st := p.Status(); st.State != SyncIdle || st.LastSync.IsZero() {
		t.Errorf("status = %+v, want idle with a sync time", st)
	}
}

func TestPollerReportsErrors(t *testing.T) {
	feed := &fakeFeed{err: errors.New("offline")}
	p := New(feed, time.Hour, nil)
	p.Start()
	defer p.Stop()

	msg := receive(t, p)
	if msg.Error == nil || msg.Error.Error() != "offline" {
		t.Fatalf("Error = %v, want offline", msg.Error)
	}
	if st := p.Status(); st.State != SyncError {
		t.Errorf("State = %v, want SyncError", st.State)
	}
}

func TestPollerStartTwice(t *testing.T) {
	p := New(&fakeFeed{}, time.Hour, nil)
	if p.Start() == nil {
		t.Fatal("first Start returned nil")
	}
	if p.Start() != nil {
		t.Error("second Start should return nil while running")
	}
	p.Stop()
	if p.Running() {
		t.Error("Running after Stop")
	}
	if p.Start() == nil {
		t.Error("Start after Stop should restart the poller")
	}
	p.Stop()
}

func TestRefreshEvery(t *testing.T) {
	if RefreshEvery(0, 1) != nil {
		t.Error("RefreshEvery(0) should be nil")
	}
	if RefreshEvery(time.Minute, 1) == nil {
		t.Error("RefreshEvery(1m) should schedule a tick")
	}
}
