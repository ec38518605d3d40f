// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SENTINEL_CONFIG_DIR", dir)
	for _, key := range []string{"SENTINEL_API_URL", "SENTINEL_TIMEOUT", "SENTINEL_TOKEN_PATH", "SENTINEL_LOG_LEVEL", "SENTINEL_EVENT_LIMIT"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout())
	assert.Equal(t, 100, cfg.Events.Limit)
	assert.Equal(t, 5, cfg.Events.TopIPLimit)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	content := `
[server]
base_url = "https://triage.example.com/"
timeout_secs = 10
rate_limit_per_sec = 2.5

[events]
limit = 250

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://triage.example.com", cfg.Server.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 10, cfg.Server.TimeoutSecs)
	assert.InDelta(t, 2.5, cfg.Server.RateLimitPerSec, 1e-9)
	assert.Equal(t, 250, cfg.Events.Limit)
	assert.Equal(t, 5, cfg.Events.TopIPLimit, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "config.toml"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions tightened on load")
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"events":{"limit":42}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Events.Limit)

	path, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nbase_url ="), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := isolate(t)
	content := `
[server]
base_url = "ftp://nowhere"
timeout_secs = 9999

[ui]
theme = "neon"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	_, err := Load()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]bool{}
	for _, v := range verrs {
		fields[v.Field] = true
	}
	assert.True(t, fields["server.base_url"])
	assert.True(t, fields["server.timeout_secs"])
	assert.True(t, fields["ui.theme"])
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SENTINEL_API_URL", "http://10.1.1.1:8000")
	t.Setenv("SENTINEL_TIMEOUT", "7")
	t.Setenv("SENTINEL_TOKEN_PATH", "/tmp/sentinel-token")
	t.Setenv("SENTINEL_LOG_LEVEL", "warn")
	t.Setenv("SENTINEL_EVENT_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.1.1.1:8000", cfg.Server.BaseURL)
	assert.Equal(t, 7, cfg.Server.TimeoutSecs)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Events.Limit, "bad numbers are ignored")

	path, err := cfg.TokenPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sentinel-token", path)
}

func TestDotEnv(t *testing.T) {
	isolate(t)
	wd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".env"), []byte("SENTINEL_EVENT_LIMIT=77\n"), 0600))
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(wd))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	// godotenv only fills variables that are unset.
	require.NoError(t, os.Unsetenv("SENTINEL_EVENT_LIMIT"))
	t.Cleanup(func() { os.Unsetenv("SENTINEL_EVENT_LIMIT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.Events.Limit)
}

func TestDefaultPaths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	tokenPath, err := cfg.TokenPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "token"), tokenPath)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sentinel.log"), logPath)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Server.BaseURL = "https://triage.internal"
	cfg.UI.ShowPayload = false

	require.NoError(t, Save(cfg))

	path := filepath.Join(dir, "config.toml")
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://triage.internal", loaded.Server.BaseURL)
	assert.False(t, loaded.UI.ShowPayload)
}

func TestSaveJSON(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "out", "config.json")
	cfg := Default()
	cfg.Events.Limit = 12
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Events.Limit)
}

func TestMigrate(t *testing.T) {
	cfg := Default()
	cfg.Version = ""
	require.NoError(t, cfg.Migrate())
	assert.Equal(t, CurrentVersion, cfg.Version)

	cfg.Version = "99"
	assert.Error(t, cfg.Migrate())
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", v)

	require.NoError(t, cfg.Set("events.limit", "20"))
	require.NoError(t, cfg.Set("server.rate_limit_per_sec", "1.5"))
	require.NoError(t, cfg.Set("ui.show_payload", "false"))
	assert.Equal(t, 20, cfg.Events.Limit)
	assert.InDelta(t, 1.5, cfg.Server.RateLimitPerSec, 1e-9)
	assert.False(t, cfg.UI.ShowPayload)

	assert.Error(t, cfg.Set("events.limit", "many"))
	assert.Error(t, cfg.Set("server", "x"))
	_, err = cfg.Get("server.nope")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "server.base_url")
	assert.Contains(t, keys, "session.token_path")
	assert.Contains(t, keys, "version")

	cfg := Default()
	for _, key := range keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

// =============================================================================
// GLOBAL
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchWithDebounce(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
			if err == nil {
				got <- cfg
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := Default()
	updated.Events.Limit = 321
	require.NoError(t, SaveTOML(updated, path))

	select {
	case cfg := <-got:
		assert.Equal(t, 321, cfg.Events.Limit)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
