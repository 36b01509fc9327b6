// Package sync polls the activity feed in the background and reports
// unread counts to the Bubble Tea runtime.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
)

// SyncState represents the current state of the poller.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus is a snapshot of the poller.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// ActivityResultMsg is a tea.Msg sent when a poll completes.
type ActivityResultMsg struct {
	Activities []model.Activity
	Unread     int
	// NewCount is the number of unread entries not seen by earlier polls.
	NewCount int
	Error    error
}

// ActivitySource loads the activity feed. tracker.Service satisfies it.
type ActivitySource interface {
	LoadActivities(ctx context.Context) ([]model.Activity, error)
}

// DefaultInterval is used when the poller is created with a zero interval.
const DefaultInterval = 120 * time.Second

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Poller orchestrates background polling of the activity feed.
type Poller struct {
	source    ActivitySource
	interval  time.Duration
	logger    *logging.Logger
	status    SyncStatus
	seen      map[string]bool
	primed    bool
	resultCh  chan ActivityResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a poller. The first poll seeds the seen set, so it never
// reports entries as new.
func New(src ActivitySource, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:    src,
		interval:  interval,
		logger:    logging.OrDiscard(logger).WithComponent(logging.ComponentSync),
		seen:      make(map[string]bool),
		resultCh:  make(chan ActivityResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns a command that waits
// for the first result. Calling Start on a running poller returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the polling goroutine and forgets what it has seen.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
	p.seen = make(map[string]bool)
	p.primed = false
}

// Running reports whether the polling goroutine is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A poll is already queued.
	}
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(stop)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.poll(stop)
		case <-p.triggerCh:
			p.poll(stop)
		}
	}
}

func (p *Poller) poll(stop <-chan struct{}) {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	activities, err := p.source.LoadActivities(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.logger.Warn("activity poll failed", logging.FieldError, err)
		p.sendResult(ActivityResultMsg{Error: err})
		return
	}

	p.mu.Lock()
	unread, fresh := 0, 0
	for _, a := range activities {
		if a.Read {
			continue
		}
		unread++
		if p.primed && !p.seen[a.ID] {
			fresh++
		}
		p.seen[a.ID] = true
	}
	p.primed = true
	p.mu.Unlock()

	p.setStatus(SyncIdle, nil)
	p.sendResult(ActivityResultMsg{
		Activities: activities,
		Unread:     unread,
		NewCount:   fresh,
	})
}

// setStatus updates the sync status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a result on the result channel without blocking.
func (p *Poller) sendResult(msg ActivityResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling an ActivityResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// RefreshTickMsg asks the root model to reload the active screen. Gen
// lets the receiver ignore ticks from a schedule it has replaced.
type RefreshTickMsg struct {
	Gen int
	At  time.Time
}

// RefreshEvery schedules a RefreshTickMsg after interval. It returns nil
// when interval is not positive.
func RefreshEvery(interval time.Duration, gen int) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RefreshTickMsg{Gen: gen, At: t}
	})
}
