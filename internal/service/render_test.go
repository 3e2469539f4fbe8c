package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chartlab/internal/apperror"
	"github.com/sakif/chartlab/internal/model"
	"github.com/sakif/chartlab/internal/render"
	"github.com/sakif/chartlab/internal/repository"
)

// mockRenderer lets tests script the renderer's behaviour without spawning
// an interpreter.
type mockRenderer struct {
	capturedReq render.Request
	calls       int
	returnRes   *render.Result
	returnErr   error
}

func (m *mockRenderer) Render(ctx context.Context, req render.Request) (*render.Result, error) {
	m.calls++
	m.capturedReq = req
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.returnRes, nil
}

// mockJobRepo records created jobs in memory.
type mockJobRepo struct {
	created   []*model.RenderJob
	createErr error
}

func (m *mockJobRepo) Create(ctx context.Context, job *model.RenderJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	job.ID = "job-1"
	m.created = append(m.created, job)
	return nil
}

func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*model.RenderJob, error) {
	for _, j := range m.created {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, apperror.NotFound("job", id)
}

func (m *mockJobRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.RenderJob, error) {
	out := make([]model.RenderJob, 0, len(m.created))
	for _, j := range m.created {
		out = append(out, *j)
	}
	return out, nil
}

func (m *mockJobRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestService(renderer render.Renderer, repo repository.JobRepository) *RenderService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRenderService(renderer, repo, logger)
}

func TestRender_ValidInput(t *testing.T) {
	mock := &mockRenderer{
		returnRes: &render.Result{
			Artifacts:     []render.Artifact{{Index: 0, MIME: "image/png", DataURI: "data:image/png;base64,aGk="}},
			ArtifactCount: 1,
			Stdout:        "saved 1 chart artifact(s)\n",
			Duration:      100 * time.Millisecond,
		},
	}
	repo := &mockJobRepo{}
	s := newTestService(mock, repo)

	job, res, err := s.Render(context.Background(), "a,b\n1,2\n", `plt.plot(df["a"])`)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ArtifactCount)
	assert.Equal(t, "a,b\n1,2\n", mock.capturedReq.Dataset)

	require.NotNil(t, job)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, 1, job.ArtifactCount)
	require.Len(t, repo.created, 1)
}

func TestRender_InvalidInputNeverReachesRenderer(t *testing.T) {
	tests := []struct {
		name    string
		dataset string
		code    string
	}{
		{name: "missing dataset", dataset: "", code: "plt.plot([1])"},
		{name: "missing code", dataset: "a\n1\n", code: ""},
		{name: "oversized code", dataset: "a\n1\n", code: strings.Repeat("x", MaxCodeBytes+1)},
		{name: "oversized dataset", dataset: strings.Repeat("x", MaxDatasetBytes+1), code: "plt.plot([1])"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRenderer{}
			s := newTestService(mock, &mockJobRepo{})

			_, _, err := s.Render(context.Background(), tt.dataset, tt.code)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
			assert.Zero(t, mock.calls, "renderer must not run for invalid input")
		})
	}
}

func TestRender_ZeroArtifactsRecordedDistinctly(t *testing.T) {
	mock := &mockRenderer{
		returnRes: &render.Result{ArtifactCount: 0, Stdout: "saved 0 chart artifact(s)\n"},
	}
	repo := &mockJobRepo{}
	s := newTestService(mock, repo)

	job, res, err := s.Render(context.Background(), "a\n1\n", "df.sum()")
	require.NoError(t, err, "zero artifacts is a completed run")
	assert.Equal(t, 0, res.ArtifactCount)
	assert.Equal(t, model.StatusNoArtifacts, job.Status)
}

func TestRender_ExecutionFailureRecordedWithStderr(t *testing.T) {
	mock := &mockRenderer{
		returnErr: apperror.ExecutionFailed(1, "KeyError: 'price'"),
	}
	repo := &mockJobRepo{}
	s := newTestService(mock, repo)

	job, _, err := s.Render(context.Background(), "a\n1\n", `df["price"]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrExecution)

	require.NotNil(t, job)
	assert.Equal(t, model.StatusExecFailed, job.Status)
	assert.Contains(t, job.Stderr, "KeyError")
}

func TestRender_TimeoutRecorded(t *testing.T) {
	mock := &mockRenderer{returnErr: apperror.TimedOut("2s")}
	repo := &mockJobRepo{}
	s := newTestService(mock, repo)

	job, _, err := s.Render(context.Background(), "a\n1\n", "while True: pass")
	assert.ErrorIs(t, err, apperror.ErrTimeout)
	require.NotNil(t, job)
	assert.Equal(t, model.StatusTimeout, job.Status)
}

func TestRender_InfrastructureFailureNotRecorded(t *testing.T) {
	mock := &mockRenderer{
		returnErr: apperror.InterpreterUnavailable("python3", os.ErrNotExist),
	}
	repo := &mockJobRepo{}
	s := newTestService(mock, repo)

	job, _, err := s.Render(context.Background(), "a\n1\n", "plt.plot([1])")
	assert.ErrorIs(t, err, apperror.ErrInterpreter)
	assert.Nil(t, job, "no execution happened, nothing to record")
	assert.Empty(t, repo.created)
}

func TestRender_RecordingFailureDoesNotFailTheRequest(t *testing.T) {
	mock := &mockRenderer{
		returnRes: &render.Result{ArtifactCount: 1, Artifacts: []render.Artifact{{Index: 0}}},
	}
	repo := &mockJobRepo{createErr: os.ErrPermission}
	s := newTestService(mock, repo)

	_, res, err := s.Render(context.Background(), "a\n1\n", "plt.plot([1])")
	require.NoError(t, err, "history-store failure must not surface to the caller")
	assert.Equal(t, 1, res.ArtifactCount)
}

func TestGetJob(t *testing.T) {
	repo := &mockJobRepo{}
	s := newTestService(&mockRenderer{returnRes: &render.Result{ArtifactCount: 1}}, repo)

	job, _, err := s.Render(context.Background(), "a\n1\n", "plt.plot([1])")
	require.NoError(t, err)

	got, err := s.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Status, got.Status)

	_, err = s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.GetJob(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
