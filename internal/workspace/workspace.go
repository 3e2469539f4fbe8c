// Package workspace provides each render request an isolated filesystem
// scratch area and guarantees its eventual removal.
//
// A workspace is never reused: every Allocate call yields a fresh directory
// named by a collision-resistant ID, so concurrent requests cannot observe
// each other's files. Isolation comes from distinct directories, not locking.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/chartlab/internal/apperror"
)

// Well-known file names inside a workspace. The composed script runs with
// the workspace as its working directory and refers to these by name.
const (
	DatasetFileName = "dataset.csv"
	ScriptFileName  = "script.py"
)

// Workspace is the scratch directory for one in-flight render request.
// It is owned exclusively by that request from Allocate until the scheduled
// cleanup removes it.
type Workspace struct {
	ID          string
	Dir         string
	DatasetPath string
	ScriptPath  string
}

// Manager allocates and removes workspaces under a single root directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates a Manager rooted at dir. The root itself is created
// lazily by the first Allocate.
func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   dir,
		logger: logger,
	}
}

// Allocate creates a fresh workspace directory and writes datasetText
// verbatim into its dataset file.
//
// The ID comes from xid: a timestamp prefix plus per-process random
// components, so two concurrent calls never receive the same identifier.
// Any filesystem failure aborts the request with apperror.ErrWorkspace;
// allocation is never retried.
func (m *Manager) Allocate(datasetText string) (*Workspace, error) {
	id := xid.New().String()
	dir := filepath.Join(m.root, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.WorkspaceFailed("allocate", fmt.Errorf("creating %s: %w", dir, err))
	}

	ws := &Workspace{
		ID:          id,
		Dir:         dir,
		DatasetPath: filepath.Join(dir, DatasetFileName),
		ScriptPath:  filepath.Join(dir, ScriptFileName),
	}

	if err := os.WriteFile(ws.DatasetPath, []byte(datasetText), 0o644); err != nil {
		// The directory exists but is unusable. Remove it now rather than
		// waiting for a cleanup that would never be scheduled.
		m.remove(ws)
		return nil, apperror.WorkspaceFailed("allocate", fmt.Errorf("writing dataset: %w", err))
	}

	m.logger.Debug("workspace allocated",
		slog.String("id", ws.ID),
		slog.String("dir", ws.Dir),
	)

	return ws, nil
}

// WriteScript writes the composed script text into the workspace.
func (m *Manager) WriteScript(ws *Workspace, script string) error {
	if err := os.WriteFile(ws.ScriptPath, []byte(script), 0o644); err != nil {
		return apperror.WorkspaceFailed("write script", fmt.Errorf("writing %s: %w", ws.ScriptPath, err))
	}
	return nil
}

// ScheduleCleanup removes the entire workspace tree after delay has elapsed,
// on a best-effort basis.
//
// The delay is a courtesy: artifacts are returned by value, so nothing
// correctness-critical references the directory once the response is out.
// Cleanup failures are logged and swallowed: by the time the timer fires
// the response has already been sent, so there is no one to report to.
func (m *Manager) ScheduleCleanup(ws *Workspace, delay time.Duration) {
	time.AfterFunc(delay, func() {
		m.remove(ws)
	})
}

// remove deletes the workspace tree, tolerating non-empty directories and
// directories that are already gone.
func (m *Manager) remove(ws *Workspace) {
	if err := os.RemoveAll(ws.Dir); err != nil {
		m.logger.Warn("workspace cleanup failed",
			slog.String("id", ws.ID),
			slog.String("dir", ws.Dir),
			slog.String("error", err.Error()),
		)
		return
	}
	m.logger.Debug("workspace removed", slog.String("id", ws.ID))
}
