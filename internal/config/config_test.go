package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into an empty directory so a developer's local
// chartlab.yaml cannot leak into assertions.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "python3", cfg.Renderer.PythonBin)
	assert.Equal(t, 30*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, time.Minute, cfg.Renderer.CleanupGrace)
	assert.Equal(t, 7*24*time.Hour, cfg.Storage.Retention)
	assert.Empty(t, cfg.Auth.TokenSecret, "auth is disabled by default")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9191
renderer:
  python_bin: /usr/local/bin/python3.12
  timeout: 10s
storage:
  retention: 48h
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chartlab.yaml"), []byte(yaml), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/usr/local/bin/python3.12", cfg.Renderer.PythonBin)
	assert.Equal(t, 10*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, 48*time.Hour, cfg.Storage.Retention)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Minute, cfg.Renderer.CleanupGrace)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CHARTLAB_SERVER_PORT", "7070")
	t.Setenv("CHARTLAB_RENDERER_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Renderer.Timeout)
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CHARTLAB_RENDERER_TIMEOUT", "0s")

	_, err := Load()
	assert.Error(t, err)
}
