package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-andiamo/sqldict/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string) <-chan struct{} {
	t.Helper()
	cfg := watcher.DefaultConfig(dir)
	cfg.DebounceDur = 50 * time.Millisecond
	w, err := watcher.New(cfg)
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "employees.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	onChange := startWatcher(t, dir)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"v": %d}`, i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_NewSource(t *testing.T) {
	dir := t.TempDir()
	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.json"), []byte("{}"), 0o644))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for new source")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))
	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for files that are not sources")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Errors(t *testing.T) {
	_, err := watcher.New(watcher.Config{Dir: t.TempDir(), Pattern: "[", DebounceDur: time.Millisecond})
	assert.Error(t, err)

	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	_, err = w.Start()
	assert.Error(t, err)
}
