// Package splitter drives the cutting tool over a job's segments and records
// the outcome in the job store.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/heimdex/heimdex-splitter/internal/clipname"
	"github.com/heimdex/heimdex-splitter/internal/cutter"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
)

// NoSegmentsMessage is recorded on jobs that finish without any segment.
const NoSegmentsMessage = "no segments"

// ClipDirs resolves the directory a job's clips are written to.
type ClipDirs interface {
	ClipDir(jobID string) string
}

// ProgressReporter receives progress after each finished segment.
type ProgressReporter interface {
	OnProgress(done, total int)
}

// ToolError is a cutting tool run that exited non-zero.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Orchestrator splits one job at a time; run several from a Scheduler for
// concurrency.
type Orchestrator struct {
	store   jobs.Store
	invoker cutter.Invoker
	dirs    ClipDirs
	logger  *slog.Logger
}

func NewOrchestrator(store jobs.Store, invoker cutter.Invoker, dirs ClipDirs, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		invoker: invoker,
		dirs:    dirs,
		logger:  logging.WithComponent(logger, "splitter"),
	}
}

// Run takes the job from processing to done or error. The returned error is
// the same failure recorded on the job.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, ok := o.store.Get(jobID)
	if !ok {
		return fmt.Errorf("run %s: %w", jobID, jobs.ErrNotFound)
	}
	logger := logging.WithJobID(o.logger, jobID)

	o.store.Update(jobID, jobs.Patch{
		State:    jobs.Ptr(jobs.StateProcessing),
		Progress: jobs.Ptr(0),
	})

	if len(job.Segments) == 0 {
		o.store.Update(jobID, jobs.Patch{
			State:    jobs.Ptr(jobs.StateDone),
			Progress: jobs.Ptr(100),
			Message:  jobs.Ptr(NoSegmentsMessage),
		})
		logger.Info("split job finished without segments")
		return nil
	}

	logger.Info("split job started", "segments", len(job.Segments))

	if err := o.split(ctx, job, &storeReporter{store: o.store, jobID: jobID}); err != nil {
		o.store.Update(jobID, jobs.Patch{
			State: jobs.Ptr(jobs.StateError),
			Error: jobs.Ptr(err.Error()),
		})
		logger.Error("split job failed", "error", err)
		return err
	}

	o.store.Update(jobID, jobs.Patch{
		State:    jobs.Ptr(jobs.StateDone),
		Progress: jobs.Ptr(100),
	})
	logger.Info("split job completed", "clips", len(job.Segments))
	return nil
}

func (o *Orchestrator) split(ctx context.Context, job jobs.Job, reporter ProgressReporter) error {
	outDir := o.dirs.ClipDir(job.ID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}

	total := len(job.Segments)
	for i, seg := range job.Segments {
		outPath := filepath.Join(outDir, clipname.NameFor(seg, i))
		args := cutter.CutArgs(job.SourceMediaPath, seg.Start, seg.End, outPath)

		result, err := o.invoker.Invoke(ctx, args)
		if err == nil && !result.IsSuccess() {
			err = &ToolError{ExitCode: result.ExitCode, Stderr: result.StderrTail}
		}
		if err != nil {
			// A failed or killed cut can leave a truncated file behind.
			if rmErr := os.Remove(outPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				o.logger.Warn("failed to remove partial clip", "path", outPath, "error", rmErr)
			}
			return err
		}

		reporter.OnProgress(i+1, total)
	}
	return nil
}

// Percent is round(100 * done / total).
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

type storeReporter struct {
	store jobs.Store
	jobID string
}

func (r *storeReporter) OnProgress(done, total int) {
	r.store.Update(r.jobID, jobs.Patch{Progress: jobs.Ptr(Percent(done, total))})
}
