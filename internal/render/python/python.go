// Package python renders chart artifacts by running composed matplotlib
// scripts in an external Python interpreter, one isolated workspace per
// request.
//
// This is not a security sandbox: it assumes a trusted single-tenant host
// and puts no resource or network caps on the interpreter. Isolation is
// filesystem-level only, plus a hard wall-clock timeout with process-group
// kill so runaway scripts cannot leak children.
package python

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/sakif/chartlab/internal/apperror"
	"github.com/sakif/chartlab/internal/render"
	"github.com/sakif/chartlab/internal/workspace"
)

// Renderer implements the render.Renderer interface using a local Python
// interpreter.
type Renderer struct {
	config     Config
	logger     *slog.Logger
	workspaces *workspace.Manager
}

// New creates a Python Renderer. Interpreter availability is checked here
// only to log a warning early; the authoritative check happens at spawn time
// so the binary may appear on PATH after startup.
func New(cfg Config, logger *slog.Logger) *Renderer {
	if _, err := exec.LookPath(cfg.PythonBin); err != nil {
		logger.Warn("interpreter not found on PATH, render requests will fail",
			slog.String("bin", cfg.PythonBin),
		)
	}

	return &Renderer{
		config:     cfg,
		logger:     logger,
		workspaces: workspace.NewManager(cfg.WorkspaceRoot, logger),
	}
}

// Render runs the full pipeline for one request: allocate a workspace,
// compose and write the script, execute the interpreter, harvest artifacts.
//
// Workspace cleanup is scheduled by a defer immediately after allocation, so
// it happens on every exit path: success, handled failure, or panic further
// down the stack.
func (r *Renderer) Render(ctx context.Context, req render.Request) (*render.Result, error) {
	start := time.Now()

	ws, err := r.workspaces.Allocate(req.Dataset)
	if err != nil {
		return nil, err
	}
	defer r.workspaces.ScheduleCleanup(ws, r.config.CleanupGrace)

	if err := r.workspaces.WriteScript(ws, composeForWorkspace(req.Code)); err != nil {
		return nil, err
	}

	run, err := r.execute(ctx, ws)
	if err != nil {
		return nil, err
	}

	// Exit code is the sole success signal. Content on stderr (matplotlib
	// warnings and the like) is advisory and rides along in the result.
	if run.exitCode != 0 {
		r.logger.Info("render script failed",
			slog.String("workspace", ws.ID),
			slog.Int("exitCode", run.exitCode),
		)
		return nil, apperror.ExecutionFailed(run.exitCode, run.stderr)
	}

	raws, err := collectArtifacts(ws.Dir)
	if err != nil {
		return nil, fmt.Errorf("collecting artifacts: %w", err)
	}

	r.logger.Info("render completed",
		slog.String("workspace", ws.ID),
		slog.Int("artifacts", len(raws)),
		slog.Duration("duration", time.Since(start)),
	)

	return &render.Result{
		Artifacts:     encodeArtifacts(raws),
		ArtifactCount: len(raws),
		Stdout:        run.stdout,
		Stderr:        run.stderr,
		ExitCode:      run.exitCode,
		Duration:      time.Since(start),
	}, nil
}

// runOutput is the raw capture of one interpreter invocation.
type runOutput struct {
	stdout   string
	stderr   string
	exitCode int
}

// execute invokes the interpreter against the workspace's script file, with
// the workspace as working directory, and blocks until the process exits or
// the configured timeout elapses.
//
// The child gets its own process group so that on timeout (or caller
// cancellation) the interpreter and any descendants it spawned are killed
// with a single signal, leaving nothing orphaned.
func (r *Renderer) execute(ctx context.Context, ws *workspace.Workspace) (*runOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmd := exec.Command(r.config.PythonBin, workspace.ScriptFileName)
	cmd.Dir = ws.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, apperror.InterpreterUnavailable(r.config.PythonBin, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		exitCode := 0
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return nil, fmt.Errorf("waiting for interpreter: %w", err)
			}
			exitCode = exitErr.ExitCode()
		}
		return &runOutput{
			stdout:   stdout.String(),
			stderr:   stderr.String(),
			exitCode: exitCode,
		}, nil

	case <-ctx.Done():
		r.killProcessGroup(cmd)
		// Reap the child before returning; Wait also flushes the output
		// pipes so the buffers are not written to after this point.
		<-done

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("render script killed on timeout",
				slog.String("workspace", ws.ID),
				slog.Duration("limit", r.config.Timeout),
			)
			return nil, apperror.TimedOut(r.config.Timeout.String())
		}
		// Caller abandoned the request. The child is killed early; the
		// deferred cleanup in Render still runs.
		return nil, fmt.Errorf("render canceled: %w", ctx.Err())
	}
}

// killProcessGroup force-terminates the child and all its descendants.
// A negative pid addresses the whole process group.
func (r *Renderer) killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		r.logger.Warn("failed to kill process group, killing process only",
			slog.Int("pid", cmd.Process.Pid),
			slog.String("error", err.Error()),
		)
		_ = cmd.Process.Kill()
	}
}
