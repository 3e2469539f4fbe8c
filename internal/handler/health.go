package handler

import (
	"net/http"
	"os/exec"
)

// HealthHandler reports service liveness and whether the configured
// interpreter is currently reachable, so the orchestration layer can
// distinguish infrastructure problems before submitting work.
type HealthHandler struct {
	pythonBin string
}

func NewHealthHandler(pythonBin string) *HealthHandler {
	return &HealthHandler{pythonBin: pythonBin}
}

type healthResponse struct {
	Status      string `json:"status"`
	Interpreter bool   `json:"interpreter"`
}

// HandleHealth responds to GET /healthz. The service is "ok" even when the
// interpreter is missing; render requests will fail with a structured
// interpreter_unavailable error, but the HTTP surface itself is up.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := exec.LookPath(h.pythonBin)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Interpreter: err == nil,
	})
}
