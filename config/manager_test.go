package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	path := filepath.Join(dir, "config.json")
	_, err = os.Stat(path)
	require.NoError(t, err, "config file not created")
	assert.Equal(t, path, mgr.Path())

	cfg := mgr.Get()
	assert.Equal(t, filepath.Join(dir, "cortexdash.log"), cfg.LogFile)

	cfg.BackendURL = "http://localhost:8000"
	cfg.RequestTimeoutSec = 10

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, mgr.UpdateFromJSON(string(data)))

	updated := mgr.Get()
	assert.Equal(t, "http://localhost:8000", updated.BackendURL)
	assert.Equal(t, 10*time.Second, updated.RequestTimeout())

	// A second manager on the same dir reads what the first one wrote.
	again, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, updated, again.Get())
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.AskPath = "ask"
	assert.Error(t, mgr.Update(cfg))
	assert.Equal(t, "/ask", mgr.Get().AskPath)
}

func TestManagerUsesInitialConfig(t *testing.T) {
	initial := DefaultConfigWithRoot("")
	initial.BackendURL = "http://127.0.0.1:9999"

	mgr, err := NewManager(WithConfigDir(t.TempDir()), WithInitialConfig(initial))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", mgr.Get().BackendURL)
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	require.NoError(t, mgr.Watch(ctx, func(prev, next Config) {
		reloaded <- next
	}))

	cfg := mgr.Get()
	cfg.BackendURL = "http://changed.example:8080"
	require.NoError(t, writeFile(mgr.Path(), cfg))

	select {
	case next := <-reloaded:
		assert.Equal(t, "http://changed.example:8080", next.BackendURL)
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}

func TestManagerUpdateFromJSONPatches(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, mgr.UpdateFromJSON(`{"recent_limit": 9, "companies": [{"key": "tesla", "name": "Tesla"}], "default_company": "tesla"}`))
	cfg := mgr.Get()
	assert.Equal(t, 9, cfg.RecentLimit)
	assert.Equal(t, "/ask", cfg.AskPath)
	assert.Equal(t, []CompanyEntry{{Key: "tesla", Name: "Tesla"}}, cfg.Companies)

	assert.Error(t, mgr.UpdateFromJSON(`{"no_such_field": 1}`))
	assert.Error(t, mgr.UpdateFromJSON(`{"recent_limit": "many"}`))
	assert.Equal(t, 9, mgr.Get().RecentLimit)
}

func TestManagerSet(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, mgr.Set("request_timeout_sec", "12"))
	require.NoError(t, mgr.Set("backend_url", "http://localhost:9000"))
	require.NoError(t, mgr.Set("debug", "true"))

	cfg := mgr.Get()
	assert.Equal(t, 12, cfg.RequestTimeoutSec)
	assert.Equal(t, "http://localhost:9000", cfg.BackendURL)
	assert.True(t, cfg.Debug)

	assert.Error(t, mgr.Set("", "x"))
	assert.Error(t, mgr.Set("colour", "blue"))
	assert.Error(t, mgr.Set("default_company", "tesla"))
	assert.Equal(t, "nvidia", mgr.Get().DefaultCompany)
}

func TestManagerSetIsNotReloadedByWatcher(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	require.NoError(t, mgr.Watch(ctx, func(prev, next Config) {
		changes <- next
	}))

	require.NoError(t, mgr.Set("recent_limit", "7"))
	select {
	case next := <-changes:
		assert.Equal(t, 7, next.RecentLimit)
	case <-time.After(time.Second):
		t.Fatalf("Set did not notify")
	}

	select {
	case next := <-changes:
		t.Fatalf("own write echoed back through the watcher: %+v", next)
	case <-time.After(300 * time.Millisecond):
	}
}
