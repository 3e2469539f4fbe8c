package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/chartlab/internal/model"
	"github.com/sakif/chartlab/internal/render"
)

// RenderService is the slice of the service layer the handlers need.
// Declared here so tests can substitute a mock.
type RenderService interface {
	Render(ctx context.Context, dataset, code string) (*model.RenderJob, *render.Result, error)
	GetJob(ctx context.Context, id string) (*model.RenderJob, error)
	ListJobs(ctx context.Context, limit, offset int) ([]model.RenderJob, error)
}

// RenderHandler handles chart render requests and job history lookups.
type RenderHandler struct {
	service RenderService
	logger  *slog.Logger
}

// NewRenderHandler creates a new RenderHandler.
func NewRenderHandler(service RenderService, logger *slog.Logger) *RenderHandler {
	return &RenderHandler{
		service: service,
		logger:  logger,
	}
}

// renderRequest is the JSON body of POST /api/render.
type renderRequest struct {
	Dataset string `json:"dataset"`
	Code    string `json:"code"`
}

// renderResponse is the JSON body returned on success. Artifacts are data
// URIs, ordered by figure-creation index.
type renderResponse struct {
	JobID         string   `json:"jobId,omitempty"`
	Artifacts     []string `json:"artifacts"`
	ArtifactCount int      `json:"artifactCount"`
	Stdout        string   `json:"stdout"`
	Stderr        string   `json:"stderr,omitempty"`
	DurationMs    int64    `json:"durationMs"`
}

// HandleRender processes an incoming render request.
//
// HTTP: POST /api/render
func (h *RenderHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid render request body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: "request body must be valid JSON",
		})
		return
	}

	job, result, err := h.service.Render(r.Context(), req.Dataset, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := renderResponse{
		Artifacts:     make([]string, 0, len(result.Artifacts)),
		ArtifactCount: result.ArtifactCount,
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		DurationMs:    result.Duration.Milliseconds(),
	}
	if job != nil {
		resp.JobID = job.ID
	}
	for _, a := range result.Artifacts {
		resp.Artifacts = append(resp.Artifacts, a.DataURI)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleListJobs returns recorded render jobs, newest first.
//
// HTTP: GET /api/jobs?limit=20&offset=0
func (h *RenderHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	jobs, err := h.service.ListJobs(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

// HandleGetJob returns a single recorded job.
//
// HTTP: GET /api/jobs/{id}
func (h *RenderHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}
