package python

import (
	"time"
)

// Config holds the configuration for Python chart rendering.
type Config struct {
	// PythonBin is the interpreter binary to invoke. Resolved via PATH if
	// not absolute.
	PythonBin string
	// WorkspaceRoot is the directory under which per-request workspaces are
	// created.
	WorkspaceRoot string
	// Timeout is the wall-clock limit for one interpreter run. On expiry
	// the whole process group is killed.
	Timeout time.Duration
	// CleanupGrace is how long a workspace outlives its response before the
	// tree is removed.
	CleanupGrace time.Duration
}

// DefaultConfig provides sensible defaults for a local matplotlib setup.
func DefaultConfig() Config {
	return Config{
		PythonBin:     "python3",
		WorkspaceRoot: "data/workspaces",
		// Chart scripts are short; 30s leaves room for a cold matplotlib
		// import on slow machines.
		Timeout:      30 * time.Second,
		CleanupGrace: time.Minute,
	}
}
