// Package jobs owns the process-lifetime registry of split jobs. Nothing else
// holds on to a Job: callers look jobs up by id and get copies back.
package jobs

import (
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by helpers that need an existing job.
var ErrNotFound = errors.New("job not found")

// Store is the job registry used by every other component.
type Store interface {
	// Create allocates a queued job with progress 0.
	Create() Job
	Get(id string) (Job, bool)
	// Update merges patch into the stored job atomically and returns the
	// merged copy. It returns false when id is unknown.
	Update(id string, patch Patch) (Job, bool)
	// Delete forgets the job. Unknown ids are ignored.
	Delete(id string)
	// List returns all jobs, newest first.
	List() []Job
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create() Job {
	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		State:     StateQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return *job
}

func (s *MemoryStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.clone(), true
}

func (s *MemoryStore) Update(id string, patch Patch) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}

	next := *job
	patch.apply(&next)
	next.Segments = slices.Clone(next.Segments)
	next.UpdatedAt = s.now()
	s.jobs[id] = &next
	return next.clone(), true
}

// clone copies j without sharing the segment slice with the stored record.
func (j *Job) clone() Job {
	c := *j
	c.Segments = slices.Clone(j.Segments)
	return c
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

func (s *MemoryStore) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}

// CountActive returns the number of queued or processing jobs.
func CountActive(s Store) int {
	n := 0
	for _, j := range s.List() {
		if j.State == StateQueued || j.State == StateProcessing {
			n++
		}
	}
	return n
}

// ValidID reports whether id has the canonical form Create produces. Ids
// reach the filesystem layer, so anything else is rejected up front.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
