// Package model defines the data structures shared across the service.
package model

import "time"

// Job statuses. A job with zero artifacts and a zero exit code completed
// fine (it just drew nothing), so it gets its own status rather than being
// folded into either "completed" or a failure.
const (
	StatusCompleted   = "completed"
	StatusNoArtifacts = "no_artifacts"
	StatusExecFailed  = "execution_failed"
	StatusTimeout     = "timeout"
)

// RenderJob is the recorded outcome of one render request. Artifacts
// themselves are returned inline to the caller and never persisted; the job
// row keeps only the metadata needed for history and diagnostics.
type RenderJob struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	ArtifactCount int       `json:"artifactCount"`
	ExitCode      int       `json:"exitCode"`
	Stderr        string    `json:"stderr,omitempty"`
	DurationMs    int64     `json:"durationMs"`
	CreatedAt     time.Time `json:"createdAt"`
}
