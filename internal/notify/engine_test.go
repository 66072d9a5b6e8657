package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncAPI struct {
	mu sync.Mutex

	unreadCount int
	unreadErr   error
	unreadCalls atomic.Int32

	page      api.NotificationsPage
	listErr   error
	listCalls atomic.Int32
	listGate  chan struct{}

	markErr    error
	markAllErr error
}

func (f *fakeSyncAPI) ListNotifications(_ context.Context, _ api.ListNotificationsOptions) (api.NotificationsPage, error) {
	if f.listGate != nil {
		<-f.listGate
	}
	f.listCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return api.NotificationsPage{}, f.listErr
	}

	page := f.page
	page.Notifications = make([]domain.Notification, len(f.page.Notifications))
	copy(page.Notifications, f.page.Notifications)
	return page, nil
}

func (f *fakeSyncAPI) UnreadCount(_ context.Context) (int, error) {
	f.unreadCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	return f.unreadCount, nil
}

func (f *fakeSyncAPI) MarkNotificationRead(_ context.Context, _ domain.NotificationID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markErr
}

func (f *fakeSyncAPI) MarkAllNotificationsRead(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markAllErr
}

func (f *fakeSyncAPI) setPage(page api.NotificationsPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = page
}

func unreadPage() api.NotificationsPage {
	return api.NotificationsPage{
		Notifications: []domain.Notification{
			{ID: "n-1", Kind: domain.KindForecastWon, Message: "You won 200 chips"},
			{ID: "n-2", Kind: domain.KindMarketResolved, Message: "Market resolved"},
			{ID: "n-3", Kind: domain.KindSystem, Message: "Welcome", Read: true},
		},
		UnreadCount: 3,
	}
}

func seededEngine(t *testing.T, remote *fakeSyncAPI, opts ...Option) *Engine {
	t.Helper()

	engine := NewEngine(remote, opts...)
	engine.RefreshNotifications(context.Background())
	require.Len(t, engine.Current().Notifications, len(remote.page.Notifications))
	return engine
}

func TestRefreshNotificationsReplacesListAndCount(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := NewEngine(remote)

	engine.RefreshNotifications(context.Background())

	state := engine.Current()
	assert.Equal(t, 3, state.UnreadCount)
	assert.Len(t, state.Notifications, 3)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
}

func TestRefreshNotificationsFailureKeepsPreviousList(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	remote.mu.Lock()
	remote.listErr = errors.New("gateway timeout")
	remote.mu.Unlock()

	engine.RefreshNotifications(context.Background())

	state := engine.Current()
	assert.Len(t, state.Notifications, 3, "previous list must stay visible")
	assert.Equal(t, 3, state.UnreadCount)
	assert.NotEmpty(t, state.Err)
	assert.False(t, state.Loading)
}

func TestRefreshNotificationsCapsListLength(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := NewEngine(remote, WithListLimit(2))

	engine.RefreshNotifications(context.Background())

	assert.Len(t, engine.Current().Notifications, 2)
}

func TestRefreshUnreadCountFailureIsSilent(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	remote.mu.Lock()
	remote.unreadErr = errors.New("boom")
	remote.mu.Unlock()

	engine.RefreshUnreadCount(context.Background())

	state := engine.Current()
	assert.Equal(t, 3, state.UnreadCount, "stale count is acceptable")
	assert.Empty(t, state.Err, "count failures never surface")
}

func TestRefreshUnreadCountNeverGoesNegative(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{unreadCount: -5}
	engine := NewEngine(remote)

	engine.RefreshUnreadCount(context.Background())

	assert.Equal(t, 0, engine.Current().UnreadCount)
}

func TestMarkAsReadAppliesOptimisticEditBeforeNetwork(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 2}
	engine := seededEngine(t, remote)

	var optimistic []State
	unsubscribe := engine.Subscribe(func(state State) {
		optimistic = append(optimistic, state)
	})
	defer unsubscribe()

	engine.MarkAsRead(context.Background(), "n-1")

	// The first published state is the optimistic edit, before any
	// network confirmation lands.
	require.NotEmpty(t, optimistic)
	first := optimistic[0]
	assert.Equal(t, 2, first.UnreadCount)
	assert.True(t, first.Notifications[0].Read)

	// The confirmed write is followed by a count correction from the
	// server.
	final := engine.Current()
	assert.Equal(t, 2, final.UnreadCount)
	assert.True(t, final.Notifications[0].Read)
}

func TestMarkAsReadFloorsCountAtZero(t *testing.T) {
	t.Parallel()

	page := unreadPage()
	page.UnreadCount = 0
	remote := &fakeSyncAPI{page: page, unreadCount: 0}
	engine := seededEngine(t, remote)

	engine.MarkAsRead(context.Background(), "n-1")

	assert.Equal(t, 0, engine.Current().UnreadCount)
}

func TestMarkAsReadIgnoresAlreadyReadAndUnknownIDs(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	engine.MarkAsRead(context.Background(), "n-3")
	assert.Equal(t, 3, engine.Current().UnreadCount, "already-read item must not decrement")

	engine.MarkAsRead(context.Background(), "n-404")
	assert.Equal(t, 3, engine.Current().UnreadCount)
}

func TestMarkAsReadFailureRollsBackByRefetch(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	// Server truth diverges from the optimistic guess: the true prior
	// state is not assumed to be the inverse of the edit.
	serverTruth := unreadPage()
	serverTruth.UnreadCount = 7
	remote.setPage(serverTruth)
	remote.mu.Lock()
	remote.markErr = errors.New("conflict")
	remote.mu.Unlock()

	before := remote.listCalls.Load()
	engine.MarkAsRead(context.Background(), "n-1")

	assert.Equal(t, before+1, remote.listCalls.Load(), "rollback is a full resync")
	state := engine.Current()
	assert.Equal(t, 7, state.UnreadCount)
	assert.False(t, state.Notifications[0].Read, "server truth replaces the optimistic guess")
}

func TestMarkAllAsReadZeroesOptimisticallyAndResyncsOnFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	engine.MarkAllAsRead(context.Background())

	state := engine.Current()
	assert.Equal(t, 0, state.UnreadCount)
	for _, n := range state.Notifications {
		assert.True(t, n.Read)
	}

	// Now the failing path resynchronizes from server truth.
	engine.RefreshNotifications(context.Background())
	remote.mu.Lock()
	remote.markAllErr = errors.New("boom")
	remote.mu.Unlock()

	before := remote.listCalls.Load()
	engine.MarkAllAsRead(context.Background())
	assert.Equal(t, before+1, remote.listCalls.Load())
}

func TestStaleListFetchNeverOverwritesNewerEdit(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote)

	gate := make(chan struct{})
	remote.mu.Lock()
	remote.listGate = gate
	remote.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.RefreshNotifications(context.Background())
	}()

	// The optimistic edit lands while the fetch is still in flight.
	remote.mu.Lock()
	remote.unreadCount = 2
	remote.mu.Unlock()
	engine.MarkAsRead(context.Background(), "n-1")

	close(gate)
	<-done

	state := engine.Current()
	assert.True(t, state.Notifications[0].Read, "stale fetch must not clear the newer edit")
	assert.Equal(t, 2, state.UnreadCount)
}

func TestStartFetchesImmediatelyAndPolls(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{unreadCount: 1}
	engine := NewEngine(remote, WithPollInterval(20*time.Millisecond))
	t.Cleanup(engine.Stop)

	engine.Start(context.Background())
	assert.GreaterOrEqual(t, remote.unreadCalls.Load(), int32(1), "immediate fetch on start")

	require.Eventually(t, func() bool {
		return remote.unreadCalls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHiddenSurfaceStopsPollingEntirely(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{unreadCount: 1}
	engine := NewEngine(remote, WithPollInterval(20*time.Millisecond))
	t.Cleanup(engine.Stop)

	engine.Start(context.Background())
	engine.SetVisible(context.Background(), false)

	settled := remote.unreadCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, remote.unreadCalls.Load(), "no fetches while hidden")

	// Returning to visibility fetches immediately and resumes the
	// cadence.
	engine.SetVisible(context.Background(), true)
	assert.Equal(t, settled+1, remote.unreadCalls.Load())
}

func TestRapidVisibilityTogglingLeavesSinglePollLoop(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{unreadCount: 1}
	engine := NewEngine(remote, WithPollInterval(30*time.Millisecond))
	t.Cleanup(engine.Stop)

	engine.Start(context.Background())
	for i := 0; i < 4; i++ {
		engine.SetVisible(context.Background(), false)
		engine.SetVisible(context.Background(), true)
	}

	settled := remote.unreadCalls.Load()
	time.Sleep(310 * time.Millisecond)
	ticks := remote.unreadCalls.Load() - settled

	// One loop produces about ten ticks in this window; a leaked second
	// loop would double that.
	assert.LessOrEqual(t, ticks, int32(15))
	assert.GreaterOrEqual(t, ticks, int32(5))
}

func TestSetVisibleIsIdempotent(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{unreadCount: 1}
	engine := NewEngine(remote, WithPollInterval(time.Hour))
	t.Cleanup(engine.Stop)

	engine.Start(context.Background())
	settled := remote.unreadCalls.Load()

	engine.SetVisible(context.Background(), true)
	engine.SetVisible(context.Background(), true)
	assert.Equal(t, settled, remote.unreadCalls.Load(), "repeated visible is a no-op")
}

func TestStopResetsStateAndCancelsPolling(t *testing.T) {
	t.Parallel()

	remote := &fakeSyncAPI{page: unreadPage(), unreadCount: 3}
	engine := seededEngine(t, remote, WithPollInterval(20*time.Millisecond))

	engine.Start(context.Background())
	engine.Stop()

	state := engine.Current()
	assert.Equal(t, 0, state.UnreadCount)
	assert.Empty(t, state.Notifications)

	settled := remote.unreadCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, remote.unreadCalls.Load())
}

func TestStopIsSafeToCallRepeatedly(t *testing.T) {
	t.Parallel()

	engine := NewEngine(&fakeSyncAPI{})
	engine.Stop()
	engine.Stop()
}
