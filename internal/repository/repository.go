package repository

import (
	"context"
	"time"

	"github.com/sakif/chartlab/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// JobRepository stores render-job history. Rows are append-only apart from
// retention pruning; a job outcome is recorded once and never updated.
type JobRepository interface {
	Create(ctx context.Context, job *model.RenderJob) error
	GetByID(ctx context.Context, id string) (*model.RenderJob, error)
	List(ctx context.Context, opts ListOptions) ([]model.RenderJob, error)
	// PruneBefore deletes jobs created before cutoff and reports how many
	// rows were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
