// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileTokenStore(path)

	_, err := store.Retrieve()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, store.Exists())

	require.NoError(t, store.Store(" tok-123 \n"))
	assert.True(t, store.Exists())

	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())
	require.NoError(t, store.Delete(), "deleting twice is fine")
}

func TestFileTokenStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := filepath.Join(t.TempDir(), "sentinel")
	store := NewFileTokenStore(filepath.Join(dir, "token"))
	require.NoError(t, store.Store("tok"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestFileTokenStore_BlankFileIsNoToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	_, err := NewFileTokenStore(path).Retrieve()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenStores_RejectEmpty(t *testing.T) {
	assert.Error(t, NewFileTokenStore(filepath.Join(t.TempDir(), "token")).Store(""))
	assert.Error(t, NewMemoryTokenStore("").Store(""))
}

func TestManagerWithFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	auth := newFakeAuth()
	auth.passwords["alice"] = "pw"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	first := NewManager(auth, NewFileTokenStore(path), nil)
	first.Initialize(ctx)
	_, err := first.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	// A second process start finds the token and validates it.
	second := NewManager(auth, NewFileTokenStore(path), nil)
	assert.Equal(t, Loading, second.State().Status)
	assert.Equal(t, Authenticated, second.Initialize(ctx).Status)

	second.Logout()
	third := NewManager(auth, NewFileTokenStore(path), nil)
	assert.Equal(t, Unauthenticated, third.State().Status)
}
