// Package service contains the business logic layer: input validation,
// render orchestration, and job-history recording. It knows nothing about
// HTTP; handlers translate its domain errors to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/chartlab/internal/apperror"
	"github.com/sakif/chartlab/internal/model"
	"github.com/sakif/chartlab/internal/render"
	"github.com/sakif/chartlab/internal/repository"
)

// Input limits enforced before any workspace is allocated. Oversized input
// is a client error, not an execution failure.
const (
	MaxDatasetBytes = 5 << 20  // 5 MB of CSV
	MaxCodeBytes    = 100_000  // ~100KB of generated plotting code
)

// RenderService validates requests, drives the renderer, and records each
// outcome in the job history.
type RenderService struct {
	renderer render.Renderer
	jobs     repository.JobRepository
	logger   *slog.Logger
}

// NewRenderService creates a RenderService. jobs may be nil in contexts that
// do not keep history (recording is then skipped).
func NewRenderService(renderer render.Renderer, jobs repository.JobRepository, logger *slog.Logger) *RenderService {
	return &RenderService{
		renderer: renderer,
		jobs:     jobs,
		logger:   logger,
	}
}

// Render runs one render request end to end and returns the recorded job
// alongside the result. On failure the job captures the failure status; the
// error is propagated to the caller untouched.
//
// Validation happens first so that invalid input never allocates a
// workspace or touches the interpreter.
func (s *RenderService) Render(ctx context.Context, dataset, code string) (*model.RenderJob, *render.Result, error) {
	if dataset == "" {
		return nil, nil, apperror.InvalidInput("dataset", "dataset is required")
	}
	if len(dataset) > MaxDatasetBytes {
		return nil, nil, apperror.InvalidInput("dataset",
			fmt.Sprintf("dataset must be %d bytes or less", MaxDatasetBytes))
	}
	if code == "" {
		return nil, nil, apperror.InvalidInput("code", "code fragment is required")
	}
	if len(code) > MaxCodeBytes {
		return nil, nil, apperror.InvalidInput("code",
			fmt.Sprintf("code fragment must be %d bytes or less", MaxCodeBytes))
	}

	start := time.Now()
	result, err := s.renderer.Render(ctx, render.Request{Dataset: dataset, Code: code})

	job := s.record(ctx, result, err, time.Since(start))
	if err != nil {
		return job, nil, err
	}
	return job, result, nil
}

// GetJob retrieves one recorded job by ID.
func (s *RenderService) GetJob(ctx context.Context, id string) (*model.RenderJob, error) {
	if id == "" {
		return nil, apperror.InvalidInput("id", "job ID is required")
	}
	return s.jobs.GetByID(ctx, id)
}

// ListJobs retrieves recorded jobs newest-first.
func (s *RenderService) ListJobs(ctx context.Context, limit, offset int) ([]model.RenderJob, error) {
	return s.jobs.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
}

// record persists the outcome of one render. Recording is best-effort: a
// history-store failure is logged but never fails a render that already
// completed (or a failure that already has its own error).
func (s *RenderService) record(ctx context.Context, result *render.Result, renderErr error, elapsed time.Duration) *model.RenderJob {
	job := &model.RenderJob{
		DurationMs: elapsed.Milliseconds(),
	}

	switch {
	case renderErr == nil && result.ArtifactCount == 0:
		job.Status = model.StatusNoArtifacts
		job.ExitCode = result.ExitCode
		job.Stderr = result.Stderr
	case renderErr == nil:
		job.Status = model.StatusCompleted
		job.ArtifactCount = result.ArtifactCount
		job.ExitCode = result.ExitCode
		job.Stderr = result.Stderr
	case errors.Is(renderErr, apperror.ErrTimeout):
		job.Status = model.StatusTimeout
	case errors.Is(renderErr, apperror.ErrExecution):
		job.Status = model.StatusExecFailed
		var appErr *apperror.AppError
		if errors.As(renderErr, &appErr) {
			job.Stderr = appErr.Detail
		}
	default:
		// Infrastructure failures (workspace, interpreter, cancellation)
		// are reported to the caller but not recorded as jobs: no
		// execution happened.
		return nil
	}

	if s.jobs == nil {
		return job
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to record render job",
			slog.String("status", job.Status),
			slog.String("error", err.Error()),
		)
		return job
	}

	s.logger.Info("render job recorded",
		slog.String("id", job.ID),
		slog.String("status", job.Status),
		slog.Int("artifacts", job.ArtifactCount),
	)
	return job
}
