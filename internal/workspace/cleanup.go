package workspace

import (
	"errors"
	"log/slog"

	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
)

// ErrInvalidJobID is returned for ids that could escape the data directory.
var ErrInvalidJobID = errors.New("invalid job id")

// Cleaner removes a job's files and forgets the job.
type Cleaner struct {
	layout Layout
	store  jobs.Store
	logger *slog.Logger
}

func NewCleaner(layout Layout, store jobs.Store, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		layout: layout,
		store:  store,
		logger: logging.WithComponent(logger, "cleanup"),
	}
}

// Cleanup deletes storage/{id} and output/{id} and removes the job from the
// store. Cleaning an unknown or already cleaned id succeeds.
func (c *Cleaner) Cleanup(jobID string) error {
	if !jobs.ValidID(jobID) {
		return ErrInvalidJobID
	}

	if err := c.layout.RemoveJob(jobID); err != nil {
		c.logger.Error("failed to remove job files", "job_id", jobID, "error", err)
		return err
	}
	c.store.Delete(jobID)

	c.logger.Info("job cleaned up", "job_id", jobID)
	return nil
}
