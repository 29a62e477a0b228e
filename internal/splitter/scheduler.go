package splitter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrSchedulerClosed is returned by Submit after Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

// JobRunner runs one job to completion.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// Scheduler runs submitted jobs in the background, at most maxConcurrent at
// a time. Submitted jobs wait in their queued state for a free slot. A job's
// outcome is only visible through the job store.
type Scheduler struct {
	runner JobRunner
	slots  chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	running atomic.Int32
}

func NewScheduler(runner JobRunner, maxConcurrent int, logger *slog.Logger) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Scheduler{
		runner: runner,
		slots:  make(chan struct{}, maxConcurrent),
		logger: logger,
	}
}

// Submit schedules jobID. In-flight jobs are never cancelled, so the run
// uses a background context.
func (s *Scheduler) Submit(jobID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.slots <- struct{}{}
		s.running.Add(1)
		defer func() {
			s.running.Add(-1)
			<-s.slots
		}()

		if err := s.runner.Run(context.Background(), jobID); err != nil {
			s.logger.Warn("scheduled job ended with error", "job_id", jobID, "error", err)
		}
	}()
	return nil
}

// Running returns the number of jobs currently holding a slot.
func (s *Scheduler) Running() int {
	return int(s.running.Load())
}

// Close stops accepting jobs and waits for submitted ones until ctx is done.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
