package jobs

import (
	"time"

	"github.com/heimdex/heimdex-splitter/internal/indexparse"
)

// State is a job lifecycle state.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

// Job is one request to split one source media file.
type Job struct {
	ID              string               `json:"id"`
	State           State                `json:"state"`
	Progress        int                  `json:"progress"`
	Mode            indexparse.Mode      `json:"mode,omitempty"`
	Segments        []indexparse.Segment `json:"segments,omitempty"`
	SourceMediaPath string               `json:"source_media_path,omitempty"`
	SourceTitle     string               `json:"source_title,omitempty"`
	IndexTextPath   string               `json:"index_text_path,omitempty"`
	Message         string               `json:"message,omitempty"`
	Error           string               `json:"error,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// HasSegmentMetadata reports whether clip names for the job can be
// recomputed from its segments.
func (j Job) HasSegmentMetadata() bool {
	return len(j.Segments) > 0
}

// Patch is a merge update: only non-nil fields are applied.
type Patch struct {
	State           *State
	Progress        *int
	Mode            *indexparse.Mode
	Segments        *[]indexparse.Segment
	SourceMediaPath *string
	SourceTitle     *string
	IndexTextPath   *string
	Message         *string
	Error           *string
}

func (p Patch) apply(j *Job) {
	if p.State != nil {
		j.State = *p.State
	}
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.Mode != nil {
		j.Mode = *p.Mode
	}
	if p.Segments != nil {
		j.Segments = *p.Segments
	}
	if p.SourceMediaPath != nil {
		j.SourceMediaPath = *p.SourceMediaPath
	}
	if p.SourceTitle != nil {
		j.SourceTitle = *p.SourceTitle
	}
	if p.IndexTextPath != nil {
		j.IndexTextPath = *p.IndexTextPath
	}
	if p.Message != nil {
		j.Message = *p.Message
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
