// Package notify polls the server's "what's new" activity summary and
// turns it into client-local notifications: the derived "there is new
// work for you" signal. The client only consumes the digest; activity
// records live server-side.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

// ActivitySource fetches the activity digest since a timestamp. It is
// satisfied by *api.Client.
type ActivitySource interface {
	WhatsNew(ctx context.Context, since time.Time) (*model.ActivitySummary, error)
}

// Update is delivered on the poller's update channel after each poll.
type Update struct {
	Count    int
	Messages []model.ActivityMessage
	Err      error
}

// fetchTimeout is the maximum time allowed for a single poll.
const fetchTimeout = 30 * time.Second

// Poller periodically fetches the what's-new summary, records
// notifications in the local store, and publishes updates on a
// non-blocking channel for the view collaborator.
type Poller struct {
	source   ActivitySource
	store    store.Store
	interval time.Duration
	logger   *slog.Logger

	updates   chan Update
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu        sync.Mutex
	running   bool
	lastCheck time.Time
}

// New creates a poller. A non-positive interval falls back to two
// minutes. logger may be nil.
func New(
	source ActivitySource,
	s store.Store,
	interval time.Duration,
	logger *slog.Logger,
) *Poller {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:    source,
		store:     s,
		interval:  interval,
		logger:    logger,
		updates:   make(chan Update, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		lastCheck: time.Now(),
	}
}

// Updates returns the channel on which poll results are delivered.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Start launches the polling loop. Calling Start twice is a no-op, and
// a stopped poller may be started again.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	// Stop closed the previous channel; each run gets its own.
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(stopCh)
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll without waiting for the ticker.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// loop runs the polling loop until stopCh closes.
func (p *Poller) loop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial poll immediately.
	p.poll()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

// poll performs a single what's-new fetch, stores notifications for any
// new activity, and sends an Update on the channel.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.mu.Lock()
	since := p.lastCheck
	p.mu.Unlock()

	// The watermark is the instant the request went out; activity created
	// while it was in flight shows up again on the next poll rather than
	// being skipped.
	requestedAt := time.Now()

	summary, err := p.source.WhatsNew(ctx, since)
	if err != nil {
		if api.IsAuthError(err) {
			// The transport's unauthorized callback owns logout; here
			// the failed poll is only logged.
			p.logger.Warn("what's-new poll unauthorized", "error", err)
			return
		}
		p.sendUpdate(Update{Err: err})
		return
	}

	p.mu.Lock()
	p.lastCheck = requestedAt
	p.mu.Unlock()

	for _, msg := range summary.Messages {
		n := model.Notification{
			TaskID:    msg.TaskID,
			Message:   msg.Message,
			CreatedAt: msg.CreatedAt,
		}
		if err := p.store.CreateNotification(ctx, n); err != nil {
			p.logger.Warn("recording notification",
				"task_id", msg.TaskID, "error", err)
		}
	}

	p.sendUpdate(Update{
		Count:    summary.Count,
		Messages: summary.Messages,
	})
}

// sendUpdate delivers an update without blocking the poll loop.
func (p *Poller) sendUpdate(u Update) {
	select {
	case p.updates <- u:
	default:
		// Drop if the channel is full rather than stall polling.
	}
}
