package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
)

// Janitor periodically cleans up finished jobs older than a TTL. Queued and
// processing jobs are never touched.
type Janitor struct {
	cleaner  *Cleaner
	store    jobs.Store
	layout   Layout
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	running  atomic.Bool
}

func NewJanitor(cleaner *Cleaner, store jobs.Store, layout Layout, ttl time.Duration, logger *slog.Logger) *Janitor {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Janitor{
		cleaner:  cleaner,
		store:    store,
		layout:   layout,
		ttl:      ttl,
		interval: interval,
		logger:   logging.WithComponent(logger, "janitor"),
		now:      time.Now,
	}
}

// Start sweeps on every tick until ctx is cancelled. A zero TTL disables it.
func (j *Janitor) Start(ctx context.Context) {
	if j.ttl <= 0 {
		j.logger.Info("job janitor disabled")
		return
	}
	if j.running.Swap(true) {
		return
	}
	defer j.running.Store(false)

	j.logger.Info("job janitor started", "ttl", j.ttl.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("job janitor stopping")
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes every finished job last updated more than ttl ago and
// returns how many were removed.
func (j *Janitor) Sweep() int {
	return j.SweepOlderThan(j.ttl)
}

// SweepOlderThan is Sweep with an explicit age. Zero removes every finished
// job.
func (j *Janitor) SweepOlderThan(age time.Duration) int {
	cutoff := j.now().Add(-age)
	removed := 0

	for _, job := range j.store.List() {
		if job.State != jobs.StateDone && job.State != jobs.StateError {
			continue
		}
		if job.UpdatedAt.After(cutoff) {
			continue
		}

		freed := dirSize(j.layout.StorageDir(job.ID)) + dirSize(j.layout.OutputDir(job.ID))
		if err := j.cleaner.Cleanup(job.ID); err != nil {
			j.logger.Warn("failed to expire job", "job_id", job.ID, "error", err)
			continue
		}
		removed++
		j.logger.Info("expired job removed",
			"job_id", job.ID,
			"state", job.State,
			"freed", humanize.Bytes(uint64(freed)),
		)
	}
	return removed
}

func dirSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
