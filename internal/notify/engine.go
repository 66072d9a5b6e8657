// Package notify keeps an eventually-consistent local mirror of the
// account's unread-notification state: a visibility-gated poll loop,
// optimistic mark-read edits, and rollback-by-refetch reconciliation.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultListLimit    = 20
)

// API is the slice of the remote service the engine needs.
type API interface {
	ListNotifications(ctx context.Context, opts api.ListNotificationsOptions) (api.NotificationsPage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id domain.NotificationID) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// State is the subscriber-visible mirror. UnreadCount never goes negative;
// Err is a soft inline message, never a hard failure.
type State struct {
	UnreadCount   int
	Notifications []domain.Notification
	Loading       bool
	Err           string
}

type Subscriber func(state State)

type Engine struct {
	api          API
	pollInterval time.Duration
	listLimit    int
	log          zerolog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	running  bool
	visible  bool
	stopPoll chan struct{}

	subscribers map[int]Subscriber
	nextSubID   int
}

type Option func(*Engine)

func WithPollInterval(interval time.Duration) Option {
	return func(e *Engine) { e.pollInterval = interval }
}

func WithListLimit(limit int) Option {
	return func(e *Engine) { e.listLimit = limit }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(client API, opts ...Option) *Engine {
	e := &Engine{
		api:          client,
		pollInterval: DefaultPollInterval,
		listLimit:    DefaultListLimit,
		log:          zerolog.Nop(),
		visible:      true,
		subscribers:  map[int]Subscriber{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins polling for the active session: one immediate count fetch,
// then the recurring ticker while the surface stays visible. Calling Start
// on a running engine restarts the schedule without leaking a ticker.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	visible := e.visible
	if visible {
		e.startPollLocked()
	}
	e.mu.Unlock()

	if visible {
		e.RefreshUnreadCount(ctx)
	}
}

// Stop cancels polling and resets the mirror to empty. Used on logout and
// anonymous bootstrap; safe to call repeatedly.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.running = false
	e.stopPollLocked()
	e.seq++
	e.state = State{}
	e.mu.Unlock()

	e.publish()
}

// SetVisible gates the poll cadence on surface visibility. Hiding cancels
// the ticker outright; becoming visible fetches immediately and restarts
// it. Rapid toggling always lands on at most one live ticker.
func (e *Engine) SetVisible(ctx context.Context, visible bool) {
	e.mu.Lock()
	if e.visible == visible {
		e.mu.Unlock()
		return
	}
	e.visible = visible

	fetch := false
	if !visible {
		e.stopPollLocked()
	} else if e.running {
		e.startPollLocked()
		fetch = true
	}
	e.mu.Unlock()

	if fetch {
		e.RefreshUnreadCount(ctx)
	}
}

// RefreshUnreadCount fetches the lightweight count endpoint. Failures are
// deliberately silent: a stale badge is acceptable, a broken surface is not.
func (e *Engine) RefreshUnreadCount(ctx context.Context) {
	seq := e.snapshotSeq()

	count, err := e.api.UnreadCount(ctx)
	if err != nil {
		e.log.Debug().Err(err).Msg("unread count fetch failed")
		return
	}

	e.mu.Lock()
	if !e.freshLocked(seq) {
		e.mu.Unlock()
		return
	}
	e.state.UnreadCount = clampCount(count)
	e.mu.Unlock()

	e.publish()
}

// RefreshNotifications replaces the local list from the server. On failure
// the previous list stays visible and only the soft error is set; when both
// list and count arrive together the response is authoritative for both.
func (e *Engine) RefreshNotifications(ctx context.Context) {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.state.Loading = true
	e.mu.Unlock()
	e.publish()

	page, err := e.api.ListNotifications(ctx, api.ListNotificationsOptions{Limit: e.listLimit})

	e.mu.Lock()
	if !e.freshLocked(seq) {
		// A newer edit or fetch owns the state now; this response is
		// discarded, but the loading flag it raised still comes down.
		e.state.Loading = false
		e.mu.Unlock()
		e.publish()
		return
	}
	e.state.Loading = false
	if err != nil {
		e.log.Debug().Err(err).Msg("notification fetch failed")
		e.state.Err = "could not refresh notifications"
		e.mu.Unlock()
		e.publish()
		return
	}

	notifications := page.Notifications
	if len(notifications) > e.listLimit {
		notifications = notifications[:e.listLimit]
	}
	e.state.Notifications = notifications
	e.state.UnreadCount = clampCount(page.UnreadCount)
	e.state.Err = ""
	e.mu.Unlock()

	e.publish()
}

// MarkAsRead applies the optimistic local edit before the network call:
// the item flips to read and the count drops by one, floored at zero. A
// confirmed write is followed by a count correction; a failed write rolls
// back by refetching server truth rather than inverting the guess.
func (e *Engine) MarkAsRead(ctx context.Context, id domain.NotificationID) {
	e.mu.Lock()
	e.seq++
	for i := range e.state.Notifications {
		if e.state.Notifications[i].ID == id && !e.state.Notifications[i].Read {
			e.state.Notifications[i].Read = true
			e.state.UnreadCount = clampCount(e.state.UnreadCount - 1)
			break
		}
	}
	e.mu.Unlock()
	e.publish()

	if err := e.api.MarkNotificationRead(ctx, id); err != nil {
		e.log.Debug().Err(err).Str("notification", string(id)).Msg("mark read failed, resyncing")
		e.RefreshNotifications(ctx)
		return
	}

	e.RefreshUnreadCount(ctx)
}

// MarkAllAsRead zeroes the mirror optimistically, then reconciles like
// MarkAsRead.
func (e *Engine) MarkAllAsRead(ctx context.Context) {
	e.mu.Lock()
	e.seq++
	for i := range e.state.Notifications {
		e.state.Notifications[i].Read = true
	}
	e.state.UnreadCount = 0
	e.mu.Unlock()
	e.publish()

	if err := e.api.MarkAllNotificationsRead(ctx); err != nil {
		e.log.Debug().Err(err).Msg("mark all read failed, resyncing")
		e.RefreshNotifications(ctx)
	}
}

// Current returns a copy of the mirror.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyStateLocked()
}

// Subscribe registers a callback invoked with a state copy after every
// change. The returned function removes the subscription.
func (e *Engine) Subscribe(fn Subscriber) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// startPollLocked (re)arms the poll ticker, keeping at most one alive.
func (e *Engine) startPollLocked() {
	e.stopPollLocked()
	if e.pollInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	e.stopPoll = stop

	go func() {
		ticker := time.NewTicker(e.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.RefreshUnreadCount(context.Background())
			}
		}
	}()
}

func (e *Engine) stopPollLocked() {
	if e.stopPoll != nil {
		close(e.stopPoll)
		e.stopPoll = nil
	}
}

// freshLocked reports whether a response captured at seq is still current.
// Any local mutation or newer fetch bumps the sequence, so later-arriving
// stale responses never regress newer state.
func (e *Engine) freshLocked(seq uint64) bool {
	return e.seq == seq
}

func (e *Engine) snapshotSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

func (e *Engine) copyStateLocked() State {
	state := e.state
	state.Notifications = make([]domain.Notification, len(e.state.Notifications))
	copy(state.Notifications, e.state.Notifications)
	return state
}

func (e *Engine) publish() {
	e.mu.Lock()
	state := e.copyStateLocked()
	subscribers := make([]Subscriber, 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subscribers = append(subscribers, fn)
	}
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

func clampCount(count int) int {
	if count < 0 {
		return 0
	}
	return count
}
