package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/chartlab/internal/repository"
)

// Janitor prunes old rows from the job history on a fixed interval, giving
// the store a defined eviction policy instead of unbounded process-lifetime
// growth.
type Janitor struct {
	jobs      repository.JobRepository
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
}

// NewJanitor creates a Janitor that deletes jobs older than retention,
// checking every interval.
func NewJanitor(jobs repository.JobRepository, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		jobs:      jobs,
		retention: retention,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins pruning in the background. Safe to call more than once.
func (j *Janitor) Start() {
	j.startOnce.Do(func() {
		j.logger.Info("starting job history janitor",
			slog.Duration("retention", j.retention),
			slog.Duration("interval", j.interval),
		)
		j.wg.Add(1)
		go j.run()
	})
}

// Stop shuts the janitor down and waits for an in-flight prune to finish.
func (j *Janitor) Stop() {
	close(j.done)
	j.wg.Wait()
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *Janitor) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := j.jobs.PruneBefore(ctx, time.Now().Add(-j.retention))
	if err != nil {
		j.logger.Error("job history prune failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		j.logger.Info("pruned old render jobs", slog.Int64("removed", removed))
	}
}
