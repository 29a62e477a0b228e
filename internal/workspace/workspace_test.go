package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
)

func populate(t *testing.T, layout Layout, jobID string) {
	t.Helper()
	if err := os.MkdirAll(layout.ClipDir(jobID), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(layout.StorageDir(jobID), 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(layout.SourcePath(jobID, ""), []byte("video"), 0644)
	os.WriteFile(layout.IndexTextPath(jobID), []byte("index"), 0644)
	os.WriteFile(filepath.Join(layout.ClipDir(jobID), "01_a.mp4"), []byte("clip"), 0644)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestLayout_Paths(t *testing.T) {
	l := NewLayout("/data")
	if got := l.SourcePath("abc", ".mov"); got != filepath.Join("/data", "storage", "abc", "original.mov") {
		t.Errorf("SourcePath = %q", got)
	}
	if got := l.SourcePath("abc", ""); got != filepath.Join("/data", "storage", "abc", "original.mp4") {
		t.Errorf("SourcePath default = %q", got)
	}
	if got := l.ClipDir("abc"); got != filepath.Join("/data", "output", "abc", "clips") {
		t.Errorf("ClipDir = %q", got)
	}
	if got := l.IndexTextPath("abc"); got != filepath.Join("/data", "storage", "abc", "index.txt") {
		t.Errorf("IndexTextPath = %q", got)
	}
}

func TestLayout_Ensure(t *testing.T) {
	l := NewLayout(filepath.Join(t.TempDir(), "data"))
	if err := l.Ensure(); err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	for _, dir := range []string{"storage", "output"} {
		if !exists(filepath.Join(l.Root(), dir)) {
			t.Errorf("%s not created", dir)
		}
	}
}

func TestCleaner_RemovesFilesAndJob(t *testing.T) {
	layout := NewLayout(t.TempDir())
	store := jobs.NewMemoryStore()
	job := store.Create()
	populate(t, layout, job.ID)

	c := NewCleaner(layout, store, logging.Discard())
	if err := c.Cleanup(job.ID); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}

	if exists(layout.StorageDir(job.ID)) || exists(layout.OutputDir(job.ID)) {
		t.Error("job directories still exist")
	}
	if _, ok := store.Get(job.ID); ok {
		t.Error("job still in store")
	}

	if err := c.Cleanup(job.ID); err != nil {
		t.Errorf("second Cleanup error: %v", err)
	}
}

func TestCleaner_UnknownJobWithFiles(t *testing.T) {
	layout := NewLayout(t.TempDir())
	id := "5f0c7d2e-8a43-4b8e-9a52-3f1f6a0c9b11"
	populate(t, layout, id)

	c := NewCleaner(layout, jobs.NewMemoryStore(), logging.Discard())
	if err := c.Cleanup(id); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if exists(layout.OutputDir(id)) {
		t.Error("output dir still exists")
	}
}

func TestCleaner_RejectsInvalidID(t *testing.T) {
	root := t.TempDir()
	victim := filepath.Join(root, "keep.txt")
	os.WriteFile(victim, []byte("x"), 0644)

	c := NewCleaner(NewLayout(filepath.Join(root, "data")), jobs.NewMemoryStore(), logging.Discard())
	for _, id := range []string{"", "..", "../..", "abc"} {
		if err := c.Cleanup(id); !errors.Is(err, ErrInvalidJobID) {
			t.Errorf("Cleanup(%q) = %v, want ErrInvalidJobID", id, err)
		}
	}
	if !exists(victim) {
		t.Fatal("file outside data dir was removed")
	}
}

func TestJanitor_Sweep(t *testing.T) {
	layout := NewLayout(t.TempDir())
	store := jobs.NewMemoryStore()

	old := store.Create()
	store.Update(old.ID, jobs.Patch{State: jobs.Ptr(jobs.StateDone)})
	failed := store.Create()
	store.Update(failed.ID, jobs.Patch{State: jobs.Ptr(jobs.StateError)})
	active := store.Create()
	store.Update(active.ID, jobs.Patch{State: jobs.Ptr(jobs.StateProcessing)})
	for _, id := range []string{old.ID, failed.ID, active.ID} {
		populate(t, layout, id)
	}

	j := NewJanitor(NewCleaner(layout, store, logging.Discard()), store, layout, time.Hour, logging.Discard())
	j.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if got := j.Sweep(); got != 2 {
		t.Fatalf("Sweep() = %d, want 2", got)
	}
	if _, ok := store.Get(active.ID); !ok {
		t.Error("processing job was removed")
	}
	if !exists(layout.ClipDir(active.ID)) {
		t.Error("processing job files were removed")
	}
	if _, ok := store.Get(old.ID); ok {
		t.Error("expired done job still present")
	}
	if exists(layout.StorageDir(failed.ID)) {
		t.Error("expired error job files still present")
	}
}

func TestJanitor_KeepsFreshJobs(t *testing.T) {
	layout := NewLayout(t.TempDir())
	store := jobs.NewMemoryStore()
	job := store.Create()
	store.Update(job.ID, jobs.Patch{State: jobs.Ptr(jobs.StateDone)})

	j := NewJanitor(NewCleaner(layout, store, logging.Discard()), store, layout, time.Hour, logging.Discard())
	if got := j.Sweep(); got != 0 {
		t.Fatalf("Sweep() = %d, want 0", got)
	}
}

func TestLayout_Lock(t *testing.T) {
	layout := NewLayout(t.TempDir())

	first, err := layout.Lock()
	if err != nil {
		t.Fatalf("first Lock error: %v", err)
	}
	if !exists(first.Path()) {
		t.Error("lock file not created")
	}

	if _, err := layout.Lock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock error = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	again, err := layout.Lock()
	if err != nil {
		t.Fatalf("Lock after Release error: %v", err)
	}
	again.Release()
}

func TestJanitor_SweepOlderThanZero(t *testing.T) {
	layout := NewLayout(t.TempDir())
	store := jobs.NewMemoryStore()
	done := store.Create()
	store.Update(done.ID, jobs.Patch{State: jobs.Ptr(jobs.StateDone)})
	queued := store.Create()

	j := NewJanitor(NewCleaner(layout, store, logging.Discard()), store, layout, time.Hour, logging.Discard())
	if got := j.SweepOlderThan(0); got != 1 {
		t.Fatalf("SweepOlderThan(0) = %d, want 1", got)
	}
	if _, ok := store.Get(queued.ID); !ok {
		t.Error("queued job was removed")
	}
}
