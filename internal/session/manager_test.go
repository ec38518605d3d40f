// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-tui/internal/api"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// fakeAuth is a scriptable Authenticator.
type fakeAuth struct {
	mu sync.Mutex

	// users maps accepted tokens to users for Me.
	users map[string]string
	// passwords maps usernames to passwords for Login.
	passwords map[string]string
	// meErr, when set, is returned by Me for every token.
	meErr error
	// meGate, when set, blocks Me until closed.
	meGate chan struct{}

	meCalls     atomic.Int32
	loginCalls  atomic.Int32
	signupCalls atomic.Int32
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:     map[string]string{},
		passwords: map[string]string{},
	}
}

func (f *fakeAuth) Me(ctx context.Context, token string) (*api.User, error) {
	f.meCalls.Add(1)
	if f.meGate != nil {
		<-f.meGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	name, ok := f.users[token]
	if !ok {
		return nil, &api.Error{Op: "GET /auth/me", Kind: api.ErrRequestFailed, Status: http.StatusUnauthorized, Err: api.ErrSessionInvalid}
	}
	return &api.User{Username: name}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	f.loginCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[username]; !ok || pw != password {
		return nil, &api.Error{Op: "POST /auth/login", Kind: api.ErrAuthenticationFailed, Status: http.StatusUnauthorized, Detail: "Incorrect username or password"}
	}
	token := "tok-" + username
	f.users[token] = username
	return &api.LoginResponse{AccessToken: token, TokenType: "bearer", User: api.User{Username: username}}, nil
}

func (f *fakeAuth) Signup(ctx context.Context, username, password string) (*api.User, error) {
	f.signupCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[username]; exists {
		return nil, &api.Error{Op: "POST /auth/signup", Kind: api.ErrSignupFailed, Status: http.StatusBadRequest, Detail: "Username already registered"}
	}
	f.passwords[username] = password
	return &api.User{Username: username}, nil
}

// failingStore wraps a MemoryTokenStore and fails Store/Delete on demand.
type failingStore struct {
	*MemoryTokenStore
	storeErr  error
	deleteErr error
}

func (s *failingStore) Store(token string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	return s.MemoryTokenStore.Store(token)
}

func (s *failingStore) Delete() error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryTokenStore.Delete()
}

// =============================================================================
// INITIALIZE
// =============================================================================

func TestInitialize_NoToken(t *testing.T) {
	auth := newFakeAuth()
	m := NewManager(auth, NewMemoryTokenStore(""), nil)
	assert.Equal(t, Unauthenticated, m.State().Status)

	state := m.Initialize(context.Background())

	assert.Equal(t, Unauthenticated, state.Status)
	assert.Nil(t, state.User)
	assert.Zero(t, auth.meCalls.Load(), "identity lookup must not run without a token")
}

func TestInitialize_ValidToken(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	store := NewMemoryTokenStore("tok-alice")

	m := NewManager(auth, store, nil)
	assert.Equal(t, Loading, m.State().Status)
	assert.Equal(t, AccessWait, Guard(m.State()))

	state := m.Initialize(context.Background())

	require.Equal(t, Authenticated, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "alice", state.User.Username)
	assert.Equal(t, "alice", m.State().Username())
	assert.True(t, store.Exists())

	token, ok := m.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok-alice", token)
}

func TestInitialize_RejectedTokenIsCleared(t *testing.T) {
	auth := newFakeAuth()
	store := NewMemoryTokenStore("tok-stale")

	m := NewManager(auth, store, nil)
	state := m.Initialize(context.Background())

	assert.Equal(t, Unauthenticated, state.Status)
	assert.False(t, store.Exists(), "rejected token must be removed from storage")
	_, ok := m.Token()
	assert.False(t, ok)
}

func TestInitialize_NetworkFailureIsCleared(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	auth.meErr = &api.Error{Op: "GET /auth/me", Kind: api.ErrRequestFailed, Detail: "could not reach server"}
	store := NewMemoryTokenStore("tok-alice")

	m := NewManager(auth, store, nil)
	state := m.Initialize(context.Background())

	assert.Equal(t, Unauthenticated, state.Status)
	assert.False(t, store.Exists())
}

func TestInitialize_RunsOnce(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	m := NewManager(auth, NewMemoryTokenStore("tok-alice"), nil)

	m.Initialize(context.Background())
	m.Initialize(context.Background())
	state := m.Initialize(context.Background())

	assert.Equal(t, Authenticated, state.Status)
	assert.Equal(t, int32(1), auth.meCalls.Load())
}

func TestInitialize_LogoutDuringLookupWins(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	auth.meGate = make(chan struct{})
	m := NewManager(auth, NewMemoryTokenStore("tok-alice"), nil)

	done := make(chan State)
	go func() { done <- m.Initialize(context.Background()) }()

	// Wait until the lookup is in flight.
	require.Eventually(t, func() bool { return auth.meCalls.Load() == 1 }, testWait, testTick)
	m.Logout()
	close(auth.meGate)

	state := <-done
	assert.Equal(t, Unauthenticated, state.Status)
	assert.Equal(t, Unauthenticated, m.State().Status)
}

func TestInitialize_RejectedTokenKeepsNewerLogin(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "pw"
	store := NewMemoryTokenStore("tok-stale")
	m := NewManager(auth, store, nil)

	// Log in as soon as the stale token is dropped, before Initialize has
	// cleaned up storage.
	var once sync.Once
	var loginErr error
	m.Subscribe(func(s State) {
		if s.Status != Unauthenticated {
			return
		}
		once.Do(func() {
			_, loginErr = m.Login(context.Background(), "alice", "pw")
		})
	})

	m.Initialize(context.Background())
	require.NoError(t, loginErr)

	assert.Equal(t, Authenticated, m.State().Status)
	stored, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", stored)
	token, ok := m.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok-alice", token)
}

func TestNewManager_UnreadableStore(t *testing.T) {
	m := NewManager(newFakeAuth(), brokenStore{}, nil)
	assert.Equal(t, Unauthenticated, m.State().Status)
}

type brokenStore struct{}

func (brokenStore) Store(string) error         { return errors.New("read-only") }
func (brokenStore) Retrieve() (string, error) { return "", errors.New("permission denied") }
func (brokenStore) Delete() error             { return errors.New("read-only") }
func (brokenStore) Exists() bool              { return false }

// =============================================================================
// LOGIN / SIGNUP / LOGOUT
// =============================================================================

func TestLogin_Success(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "hunter2"
	store := NewMemoryTokenStore("")
	m := NewManager(auth, store, nil)
	m.Initialize(context.Background())

	resp, err := m.Login(context.Background(), "  alice ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", resp.AccessToken)

	state := m.State()
	assert.Equal(t, Authenticated, state.Status)
	assert.Equal(t, "alice", state.Username())

	stored, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", stored)
}

func TestLogin_BadCredentials(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "hunter2"
	store := NewMemoryTokenStore("")
	m := NewManager(auth, store, nil)

	_, err := m.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrAuthenticationFailed)
	assert.Equal(t, "Incorrect username or password", api.UserMessage(err))
	assert.Equal(t, Unauthenticated, m.State().Status)
	assert.False(t, store.Exists())
}

func TestLogin_EmptyCredentialsSkipRemote(t *testing.T) {
	auth := newFakeAuth()
	m := NewManager(auth, NewMemoryTokenStore(""), nil)

	_, err := m.Login(context.Background(), "   ", "pw")
	assert.ErrorIs(t, err, api.ErrAuthenticationFailed)
	assert.Zero(t, auth.loginCalls.Load())
}

func TestLogin_StoreFailureKeepsNoPartialState(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "hunter2"
	store := &failingStore{MemoryTokenStore: NewMemoryTokenStore(""), storeErr: errors.New("disk full")}
	m := NewManager(auth, store, nil)

	_, err := m.Login(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrAuthenticationFailed)
	assert.Equal(t, Unauthenticated, m.State().Status)
	_, ok := m.Token()
	assert.False(t, ok)
}

func TestSignup_LogsIn(t *testing.T) {
	auth := newFakeAuth()
	store := NewMemoryTokenStore("")
	m := NewManager(auth, store, nil)
	m.Initialize(context.Background())

	resp, err := m.Signup(context.Background(), "bob", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bob", resp.User.Username)

	assert.Equal(t, Authenticated, m.State().Status)
	assert.Equal(t, "bob", m.State().Username())
	assert.Equal(t, int32(1), auth.signupCalls.Load())
	assert.Equal(t, int32(1), auth.loginCalls.Load())
	assert.True(t, store.Exists())
}

func TestSignup_DuplicateSkipsLogin(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["bob"] = "old"
	store := NewMemoryTokenStore("")
	m := NewManager(auth, store, nil)
	m.Initialize(context.Background())

	_, err := m.Signup(context.Background(), "bob", "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrSignupFailed)
	assert.Equal(t, "Username already registered", api.UserMessage(err))

	assert.Equal(t, Unauthenticated, m.State().Status)
	assert.Zero(t, auth.loginCalls.Load(), "no login after a rejected signup")
	assert.False(t, store.Exists())
}

func TestLogout(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	store := NewMemoryTokenStore("tok-alice")
	m := NewManager(auth, store, nil)
	m.Initialize(context.Background())
	require.Equal(t, Authenticated, m.State().Status)

	m.Logout()

	assert.Equal(t, Unauthenticated, m.State().Status)
	assert.Nil(t, m.State().User)
	assert.False(t, store.Exists())
	assert.Equal(t, AccessRedirect, Guard(m.State()))
}

func TestLogout_StoreErrorIsSwallowed(t *testing.T) {
	store := &failingStore{MemoryTokenStore: NewMemoryTokenStore("tok"), deleteErr: errors.New("busy")}
	m := NewManager(newFakeAuth(), store, nil)

	m.Logout()
	assert.Equal(t, Unauthenticated, m.State().Status)
	_, ok := m.Token()
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	auth := newFakeAuth()
	auth.users["tok-alice"] = "alice"
	m := NewManager(auth, NewMemoryTokenStore("tok-alice"), nil)
	m.Initialize(context.Background())

	assert.False(t, m.Invalidate(&api.Error{Kind: api.ErrRequestFailed, Status: 500}))
	assert.Equal(t, Authenticated, m.State().Status)

	assert.True(t, m.Invalidate(&api.Error{Kind: api.ErrClearFailed, Status: 401, Err: api.ErrSessionInvalid}))
	assert.Equal(t, Unauthenticated, m.State().Status)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestSubscribe(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "pw"
	m := NewManager(auth, NewMemoryTokenStore(""), nil)

	var seen []Status
	unsubscribe := m.Subscribe(func(s State) {
		// Listeners run outside the lock, so reading state must not deadlock.
		_ = m.State()
		seen = append(seen, s.Status)
	})

	m.Initialize(context.Background())
	_, err := m.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	m.Logout()

	assert.Equal(t, []Status{Unauthenticated, Authenticated, Unauthenticated}, seen)

	unsubscribe()
	_, err = m.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestConcurrentAccess(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "pw"
	m := NewManager(auth, NewMemoryTokenStore(""), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = m.Login(context.Background(), "alice", "pw")
		}()
		go func() {
			defer wg.Done()
			_ = m.State()
			_, _ = m.Token()
		}()
		go func() {
			defer wg.Done()
			m.Logout()
		}()
	}
	wg.Wait()

	s := m.State()
	token, ok := m.Token()
	if s.Status == Authenticated {
		assert.True(t, ok)
		assert.Equal(t, "tok-alice", token)
	} else {
		assert.Equal(t, Unauthenticated, s.Status)
	}
}

func TestNormalizeUsername(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	assert.Equal(t, "caf\u00e9", NormalizeUsername(" cafe\u0301 "))
	assert.Equal(t, "alice", NormalizeUsername("alice"))
}
