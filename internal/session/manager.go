// Package session owns the authentication state machine: login,
// registration, logout, bootstrap of persisted credentials, and the
// recurring background refresh that keeps the access token alive.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval fires well inside the service's 15 minute access
// token lifetime.
const DefaultRefreshInterval = 14 * time.Minute

// API is the slice of the remote service the manager needs.
type API interface {
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Profile(ctx context.Context, id domain.UserID) (domain.User, error)
}

type Subscriber func(session *domain.Session)

type Manager struct {
	api             API
	store           ports.CredentialStore
	refreshInterval time.Duration
	log             zerolog.Logger

	// refreshGroup collapses concurrent refresh attempts (manual, timer,
	// and gateway 401 repair) into one network request.
	refreshGroup singleflight.Group

	mu          sync.RWMutex
	state       domain.SessionState
	session     *domain.Session
	stopRefresh chan struct{}
	subscribers map[int]Subscriber
	nextSubID   int
}

var _ ports.SessionRefresher = (*Manager)(nil)

type Option func(*Manager)

func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) { m.refreshInterval = interval }
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(client API, store ports.CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		api:             client,
		store:           store,
		refreshInterval: DefaultRefreshInterval,
		log:             zerolog.Nop(),
		state:           domain.StateAnonymous,
		subscribers:     map[int]Subscriber{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap restores a persisted session. With no stored credentials it
// settles in the anonymous state. Otherwise it enters the authenticated
// state optimistically from the cached user snapshot, then validates the
// access token with a profile fetch: a fresh profile replaces the snapshot,
// any validation failure clears the store and falls back to anonymous.
func (m *Manager) Bootstrap(ctx context.Context) (*domain.Session, error) {
	creds, err := m.store.Read(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredentials) {
			m.setAnonymous()
			return nil, nil
		}
		return nil, err
	}

	m.setAuthenticated(domain.Session{
		User:         creds.User,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	})

	user, err := m.api.Profile(ctx, creds.User.ID)
	if err != nil {
		m.log.Debug().Err(err).Msg("bootstrap validation failed, dropping persisted session")
		m.Logout()
		return nil, nil
	}

	// The gateway may have repaired the access token during validation;
	// re-read so the persisted snapshot keeps the live token pair.
	creds, readErr := m.store.Read(ctx)
	if readErr != nil {
		m.Logout()
		return nil, nil
	}

	creds.User = user
	if err := m.store.Write(ctx, creds); err != nil {
		m.log.Warn().Err(err).Msg("persist refreshed profile failed")
	}

	session := domain.Session{
		User:         user,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	m.setAuthenticated(session)
	return &session, nil
}

func (m *Manager) Login(ctx context.Context, req api.LoginRequest) (*domain.Session, error) {
	return m.authenticate(ctx, func() (api.AuthResult, error) {
		return m.api.Login(ctx, req)
	})
}

func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (*domain.Session, error) {
	return m.authenticate(ctx, func() (api.AuthResult, error) {
		return m.api.Register(ctx, req)
	})
}

func (m *Manager) authenticate(ctx context.Context, call func() (api.AuthResult, error)) (*domain.Session, error) {
	m.setState(domain.StateAuthenticating)

	result, err := call()
	if err != nil {
		m.setAnonymous()
		return nil, err
	}

	creds := ports.Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}
	if err := m.store.Write(ctx, creds); err != nil {
		m.setAnonymous()
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	session := domain.Session{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	m.setAuthenticated(session)
	return &session, nil
}

// Logout tears the session down: credentials cleared, background refresh
// cancelled, anonymous state published. It never fails; a store error at
// worst leaves a file the next bootstrap will re-validate and discard.
func (m *Manager) Logout() {
	if err := m.store.Clear(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("clear credential store failed")
	}
	m.setAnonymous()
}

// Refresh mints a new access token from the stored refresh token,
// rewriting only the access-token slot. Any failure is terminal for the
// session: a dead refresh token cannot be repaired, so the manager logs out
// before reporting domain.ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return nil, m.refreshOnce(ctx)
	})
	return err
}

func (m *Manager) refreshOnce(ctx context.Context) error {
	creds, err := m.store.Read(ctx)
	if err != nil || creds.RefreshToken == "" {
		m.Logout()
		return fmt.Errorf("%w: no refresh token stored", domain.ErrSessionExpired)
	}

	accessToken, err := m.api.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		m.log.Debug().Err(err).Msg("token refresh failed")
		m.Logout()
		return fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
	}

	creds.AccessToken = accessToken
	if err := m.store.Write(ctx, creds); err != nil {
		m.Logout()
		return fmt.Errorf("persist refreshed token: %w", err)
	}

	m.mu.Lock()
	if m.session != nil {
		m.session.AccessToken = accessToken
	}
	m.mu.Unlock()

	return nil
}

// Current returns a read-only snapshot of the active session, or nil.
func (m *Manager) Current() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return nil
	}
	snapshot := *m.session
	return &snapshot
}

func (m *Manager) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers a callback invoked with a session snapshot (nil for
// anonymous) on every state transition. The returned function removes the
// subscription.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Close cancels the background refresh without clearing credentials, for
// process teardown. The next bootstrap resumes the persisted session.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopRefreshLocked()
	m.mu.Unlock()
}

func (m *Manager) setAuthenticated(session domain.Session) {
	m.mu.Lock()
	m.state = domain.StateAuthenticated
	snapshot := session
	m.session = &snapshot
	m.startRefreshLocked()
	m.mu.Unlock()

	m.publish()
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	m.state = domain.StateAnonymous
	m.session = nil
	m.stopRefreshLocked()
	m.mu.Unlock()

	m.publish()
}

func (m *Manager) setState(state domain.SessionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// startRefreshLocked (re)arms the background refresh ticker. Stopping any
// previous ticker first keeps the one-live-timer-per-session invariant.
func (m *Manager) startRefreshLocked() {
	m.stopRefreshLocked()
	if m.refreshInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	m.stopRefresh = stop

	go func() {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := m.Refresh(context.Background()); err != nil {
					// Refresh already escalated to logout, which
					// closed this ticker's stop channel.
					m.log.Debug().Err(err).Msg("background refresh ended session")
					return
				}
			}
		}
	}()
}

func (m *Manager) stopRefreshLocked() {
	if m.stopRefresh != nil {
		close(m.stopRefresh)
		m.stopRefresh = nil
	}
}

func (m *Manager) publish() {
	m.mu.RLock()
	session := m.session
	var snapshot *domain.Session
	if session != nil {
		copied := *session
		snapshot = &copied
	}
	subscribers := make([]Subscriber, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.mu.RUnlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
