package render

import (
	"context"
	"time"
)

// Request represents a request to render charts from a dataset and a
// caller-supplied plotting fragment. Both fields are opaque text; no safety
// validation of the fragment is performed at this layer.
type Request struct {
	Dataset string `json:"dataset"`
	Code    string `json:"code"`
}

// Artifact is one chart image produced by an execution, encoded for
// transport. Index reflects figure-creation order, starting at 0.
type Artifact struct {
	Index   int    `json:"index"`
	MIME    string `json:"mime"`
	DataURI string `json:"dataUri"`
}

// Result represents the outcome of a successful execution. ArtifactCount may
// be zero: "ran fine but drew nothing" is a distinct outcome from a failure,
// and callers must handle it explicitly.
type Result struct {
	Artifacts     []Artifact    `json:"artifacts"`
	ArtifactCount int           `json:"artifactCount"`
	Stdout        string        `json:"stdout"`
	Stderr        string        `json:"stderr"`
	ExitCode      int           `json:"exitCode"`
	Duration      time.Duration `json:"duration"`
}

// Renderer is the core interface for turning a render request into chart
// artifacts inside an isolated environment.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Result, error)
}
