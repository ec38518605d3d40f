// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the authentication status of the process.
type Status int

const (
	// Unauthenticated means there is no usable token.
	Unauthenticated Status = iota
	// Loading means a stored token is being checked with the server.
	Loading
	// Authenticated means the token was accepted by the server.
	Authenticated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a snapshot of the session. User is set only when Authenticated.
type State struct {
	Status Status
	User   *api.User
}

// Username returns the authenticated user's name, or "".
func (s State) Username() string {
	if s.Status != Authenticated || s.User == nil {
		return ""
	}
	return s.User.Username
}

// Authenticator is the part of the API the session needs.
// *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Signup(ctx context.Context, username, password string) (*api.User, error)
	Me(ctx context.Context, token string) (*api.User, error)
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager owns the token and the authentication state machine. All
// transitions go through Initialize, Login, Signup and Logout.
type Manager struct {
	mu sync.Mutex
	// persistMu orders writes to store. Login holds it across Store and
	// the commit that adopts the token.
	persistMu sync.Mutex

	client Authenticator
	store  TokenStore
	logger *zap.Logger

	token       string
	state       State
	initialized bool

	listeners    map[int]func(State)
	nextListener int
}

// NewManager creates a manager. The initial state is Loading when store
// holds a token and Unauthenticated otherwise.
func NewManager(client Authenticator, store TokenStore, logger *zap.Logger) *Manager {
	m := &Manager{
		client:    client,
		store:     store,
		logger:    util.OrNop(logger).Named("session"),
		listeners: make(map[int]func(State)),
	}

	token, err := store.Retrieve()
	switch {
	case err == nil:
		m.token = token
		m.state = State{Status: Loading}
	case errors.Is(err, ErrNoToken):
		m.state = State{Status: Unauthenticated}
	default:
		m.logger.Warn("could not read stored token", zap.Error(err))
		m.state = State{Status: Unauthenticated}
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the bearer token for outbound calls. It implements
// api.TokenSource.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// Subscribe registers fn to be called after every transition. The returned
// function removes the subscription.
// fn runs on the goroutine that made the transition and must not start a
// Login or Logout of its own while handling a Login transition.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Initialize resolves the stored token to a user. Without a token it goes
// straight to Unauthenticated and makes no remote call. Any failure of the
// lookup discards the token. Only the first call does any work; later calls
// return the current state.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	if m.initialized {
		s := m.state
		m.mu.Unlock()
		return s
	}
	m.initialized = true
	token := m.token
	m.mu.Unlock()

	if token == "" {
		return m.commit(func() State {
			return State{Status: Unauthenticated}
		})
	}

	user, err := m.client.Me(ctx, token)

	stale := false
	next := m.commit(func() State {
		if m.token != token {
			// Logout or login happened while the lookup was in flight.
			stale = true
			return m.state
		}
		if err != nil {
			m.token = ""
			return State{Status: Unauthenticated}
		}
		return State{Status: Authenticated, User: cloneUser(user)}
	})

	switch {
	case stale:
		m.logger.Debug("discarded stale identity lookup")
	case err != nil:
		m.logger.Info("stored token rejected",
			zap.String("token", util.Fingerprint(token)),
			zap.Bool("session_invalid", errors.Is(err, api.ErrSessionInvalid)),
			zap.Error(err),
		)
		m.clearStored()
	default:
		m.logger.Info("session restored", zap.String("user", user.Username))
	}
	return next
}

// Login exchanges credentials for a token, persists it and enters
// Authenticated. On failure nothing is persisted and the error matches
// api.ErrAuthenticationFailed.
func (m *Manager) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, m.loginFailed(&api.Error{
			Op:     "POST /auth/login",
			Kind:   api.ErrAuthenticationFailed,
			Detail: "username and password are required",
		})
	}

	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		if !errors.Is(err, api.ErrAuthenticationFailed) {
			err = fmt.Errorf("%w: %w", api.ErrAuthenticationFailed, err)
		}
		return nil, m.loginFailed(err)
	}
	if resp.AccessToken == "" {
		return nil, m.loginFailed(fmt.Errorf("%w: server returned no token", api.ErrAuthenticationFailed))
	}

	m.persistMu.Lock()
	if err := m.store.Store(resp.AccessToken); err != nil {
		m.persistMu.Unlock()
		m.logger.Error("could not persist token", zap.Error(err))
		return nil, m.loginFailed(fmt.Errorf("%w: could not save session: %w", api.ErrAuthenticationFailed, err))
	}
	m.commit(func() State {
		m.token = resp.AccessToken
		m.initialized = true
		return State{Status: Authenticated, User: cloneUser(&resp.User)}
	})
	m.persistMu.Unlock()
	m.logger.Info("logged in",
		zap.String("user", resp.User.Username),
		zap.String("token", util.Fingerprint(resp.AccessToken)),
	)
	return resp, nil
}

// Signup creates an account and then logs in with the same credentials.
// A rejected signup is returned unchanged and no login is attempted.
func (m *Manager) Signup(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	username = NormalizeUsername(username)
	if _, err := m.client.Signup(ctx, username, password); err != nil {
		m.logger.Info("signup rejected", zap.String("user", username), zap.Error(err))
		return nil, err
	}
	m.logger.Info("account created", zap.String("user", username))
	return m.Login(ctx, username, password)
}

// Logout discards the token and enters Unauthenticated. It makes no remote
// call and cannot fail; a store error is logged.
func (m *Manager) Logout() {
	had := false
	m.commit(func() State {
		had = m.token != ""
		m.token = ""
		m.initialized = true
		return State{Status: Unauthenticated}
	})
	m.clearStored()
	if had {
		m.logger.Info("logged out")
	}
}

// Invalidate logs out when err says the server rejected the token. It
// reports whether it did.
func (m *Manager) Invalidate(err error) bool {
	if !errors.Is(err, api.ErrSessionInvalid) {
		return false
	}
	m.logger.Info("server rejected session", zap.Error(err))
	m.Logout()
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

// NormalizeUsername trims whitespace and applies Unicode NFC so visually
// identical names reach the server as identical bytes.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// loginFailed leaves an Authenticated session alone and otherwise settles
// on Unauthenticated.
func (m *Manager) loginFailed(err error) error {
	m.commit(func() State {
		if m.state.Status == Authenticated {
			return m.state
		}
		return State{Status: Unauthenticated}
	})
	m.logger.Info("login failed", zap.Error(err))
	return err
}

// clearStored deletes the stored token unless a login has adopted a new
// one since the caller dropped its token.
func (m *Manager) clearStored() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	held := m.token != ""
	m.mu.Unlock()
	if held {
		m.logger.Debug("kept stored token written by a newer login")
		return
	}
	if err := m.store.Delete(); err != nil {
		m.logger.Warn("could not delete stored token", zap.Error(err))
	}
}

// commit runs apply under the lock, stores the state it returns and then
// notifies listeners outside the lock. Token and status always change
// together inside apply.
func (m *Manager) commit(apply func() State) State {
	m.mu.Lock()
	next := apply()
	m.state = next
	fns := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next
}

func cloneUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
