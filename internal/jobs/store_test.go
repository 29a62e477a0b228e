package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-splitter/internal/indexparse"
)

func TestMemoryStore_Create(t *testing.T) {
	s := NewMemoryStore()

	a := s.Create()
	b := s.Create()

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.State != StateQueued || a.Progress != 0 {
		t.Fatalf("new job = %+v, want queued/0", a)
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}

	got, ok := s.Get(a.ID)
	if !ok || got.ID != a.ID {
		t.Fatalf("Get(%q) = %+v, %v", a.ID, got, ok)
	}
}

func TestMemoryStore_UpdateMergesOnlySuppliedFields(t *testing.T) {
	s := NewMemoryStore()
	job := s.Create()

	segs := []indexparse.Segment{{Start: "00:00:01", End: "00:00:02", Title: "a"}}
	if _, ok := s.Update(job.ID, Patch{
		Segments:    &segs,
		SourceTitle: Ptr("lecture"),
		Message:     Ptr("hello"),
	}); !ok {
		t.Fatal("Update returned false for existing job")
	}

	got, ok := s.Update(job.ID, Patch{Progress: Ptr(40), State: Ptr(StateProcessing)})
	if !ok {
		t.Fatal("second Update returned false")
	}

	if got.Progress != 40 || got.State != StateProcessing {
		t.Errorf("state/progress = %s/%d", got.State, got.Progress)
	}
	if got.SourceTitle != "lecture" || got.Message != "hello" || len(got.Segments) != 1 {
		t.Errorf("unsupplied fields were touched: %+v", got)
	}
	if !got.UpdatedAt.After(job.CreatedAt) && !got.UpdatedAt.Equal(job.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, job.CreatedAt)
	}
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Update("missing", Patch{Progress: Ptr(1)}); ok {
		t.Fatal("Update on unknown id returned true")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("Update created a record")
	}
}

func TestMemoryStore_ReturnedJobIsCopy(t *testing.T) {
	s := NewMemoryStore()
	job := s.Create()
	job.State = StateDone

	got, _ := s.Get(job.ID)
	if got.State != StateQueued {
		t.Fatalf("mutating returned job leaked into store: %s", got.State)
	}
}

func TestMemoryStore_SegmentsNotShared(t *testing.T) {
	s := NewMemoryStore()
	job := s.Create()
	segs := []indexparse.Segment{{Start: "00:00:00", End: "00:01:00", Title: "one"}}

	updated, _ := s.Update(job.ID, Patch{Segments: &segs})
	segs[0].Title = "changed by caller"
	updated.Segments[0].Title = "changed by update result"

	got, _ := s.Get(job.ID)
	got.Segments[0].Title = "changed by get result"
	s.List()[0].Segments[0].Title = "changed by list result"

	again, _ := s.Get(job.ID)
	if again.Segments[0].Title != "one" {
		t.Fatalf("stored title = %q, want one", again.Segments[0].Title)
	}
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	job := s.Create()

	s.Delete(job.ID)
	s.Delete(job.ID)

	if _, ok := s.Get(job.ID); ok {
		t.Fatal("job still present after Delete")
	}
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first := s.Create()
	second := s.Create()

	list := s.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("List() order wrong: %+v", list)
	}
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = s.Create().ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for p := 1; p <= 100; p++ {
			wg.Add(1)
			go func(id string, p int) {
				defer wg.Done()
				s.Update(id, Patch{Message: Ptr(fmt.Sprintf("step %d", p))})
			}(id, p)
		}
	}
	wg.Wait()

	for _, id := range ids {
		got, ok := s.Get(id)
		if !ok || got.Message == "" || got.State != StateQueued {
			t.Fatalf("job %s corrupted: %+v", id, got)
		}
	}
}

func TestCountActive(t *testing.T) {
	s := NewMemoryStore()
	a := s.Create()
	b := s.Create()
	s.Create()
	s.Update(a.ID, Patch{State: Ptr(StateDone)})
	s.Update(b.ID, Patch{State: Ptr(StateProcessing)})

	if got := CountActive(s); got != 2 {
		t.Fatalf("CountActive() = %d, want 2", got)
	}
}

func TestValidID(t *testing.T) {
	s := NewMemoryStore()
	if id := s.Create().ID; !ValidID(id) {
		t.Fatalf("ValidID(%q) = false for created id", id)
	}
	for _, bad := range []string{"", "../../etc", "job-1", "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"} {
		if ValidID(bad) {
			t.Errorf("ValidID(%q) = true, want false", bad)
		}
	}
}
