package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(t.TempDir(), logger)
}

func TestAllocate(t *testing.T) {
	m := newTestManager(t)

	ws, err := m.Allocate("a,b\n1,2\n3,4\n")
	require.NoError(t, err)

	assert.NotEmpty(t, ws.ID)
	assert.DirExists(t, ws.Dir)
	assert.Equal(t, filepath.Join(ws.Dir, DatasetFileName), ws.DatasetPath)
	assert.Equal(t, filepath.Join(ws.Dir, ScriptFileName), ws.ScriptPath)

	// Dataset must be written verbatim, no normalization.
	data, err := os.ReadFile(ws.DatasetPath)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(data))
}

func TestAllocate_FreshDirectoryPerCall(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Allocate("x\n1\n")
	require.NoError(t, err)
	second, err := m.Allocate("x\n1\n")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Dir, second.Dir)
}

func TestAllocate_ConcurrentIsolation(t *testing.T) {
	m := newTestManager(t)

	const n = 32
	var wg sync.WaitGroup
	dirs := make(chan string, n)

	// Each goroutine allocates a workspace and drops a sentinel file in it.
	// Afterwards every workspace must contain exactly its own sentinel.
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := m.Allocate("col\nval\n")
			if err != nil {
				t.Error(err)
				return
			}
			if err := os.WriteFile(filepath.Join(ws.Dir, "sentinel-"+ws.ID), nil, 0o644); err != nil {
				t.Error(err)
				return
			}
			dirs <- ws.Dir
		}()
	}
	wg.Wait()
	close(dirs)

	seen := map[string]bool{}
	for dir := range dirs {
		assert.False(t, seen[dir], "workspace directory handed out twice: %s", dir)
		seen[dir] = true

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		sentinels := 0
		for _, e := range entries {
			if len(e.Name()) > len("sentinel-") && e.Name()[:len("sentinel-")] == "sentinel-" {
				sentinels++
				assert.Equal(t, "sentinel-"+filepath.Base(dir), e.Name())
			}
		}
		assert.Equal(t, 1, sentinels, "workspace %s should hold only its own sentinel", dir)
	}
	assert.Len(t, seen, n)
}

func TestWriteScript(t *testing.T) {
	m := newTestManager(t)

	ws, err := m.Allocate("a\n1\n")
	require.NoError(t, err)

	require.NoError(t, m.WriteScript(ws, "print('hello')\n"))

	data, err := os.ReadFile(ws.ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "print('hello')\n", string(data))
}

func TestScheduleCleanup_RemovesNonEmptyTree(t *testing.T) {
	m := newTestManager(t)

	ws, err := m.Allocate("a\n1\n")
	require.NoError(t, err)
	require.NoError(t, m.WriteScript(ws, "pass\n"))
	// Nested content must not block removal.
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir, "nested", "artifact_0.png"), []byte("x"), 0o644))

	m.ScheduleCleanup(ws, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(ws.Dir)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond, "workspace should be removed after the grace period")
}

func TestScheduleCleanup_SwallowsMissingDirectory(t *testing.T) {
	m := newTestManager(t)

	ws, err := m.Allocate("a\n1\n")
	require.NoError(t, err)

	// Directory already gone when the timer fires; must not panic or surface.
	require.NoError(t, os.RemoveAll(ws.Dir))
	m.ScheduleCleanup(ws, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
}

func TestAllocate_UnwritableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	base := t.TempDir()
	require.NoError(t, os.Chmod(base, 0o555))
	t.Cleanup(func() { _ = os.Chmod(base, 0o755) })

	m := NewManager(filepath.Join(base, "ws"), logger)
	_, err := m.Allocate("a\n1\n")
	assert.Error(t, err)
}
