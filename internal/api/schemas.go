package api

import (
	"time"

	"github.com/heimdex/heimdex-splitter/internal/clipname"
	"github.com/heimdex/heimdex-splitter/internal/cutter"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
)

type HealthResponse struct {
	Status  string          `json:"status"`
	Version string          `json:"version"`
	UptimeS int64           `json:"uptime_s"`
	FFmpeg  *FFmpegResponse `json:"ffmpeg,omitempty"`
}

type FFmpegResponse struct {
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Error       string `json:"error,omitempty"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
}

type UploadResponse struct {
	JobID string `json:"jobId"`
}

type StatusResponse struct {
	State    jobs.State `json:"state"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type SegmentResponse struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Title    string `json:"title,omitempty"`
	Flagged  bool   `json:"flagged,omitempty"`
	ClipName string `json:"clipName"`
}

type JobResponse struct {
	ID          string            `json:"id"`
	State       jobs.State        `json:"state"`
	Progress    int               `json:"progress"`
	Mode        string            `json:"mode,omitempty"`
	SourceTitle string            `json:"sourceTitle,omitempty"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
	Segments    []SegmentResponse `json:"segments"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type BatchDownloadRequest struct {
	JobIDs []string `json:"jobIds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func StatusToResponse(j jobs.Job) StatusResponse {
	return StatusResponse{
		State:    j.State,
		Progress: j.Progress,
		Message:  j.Message,
		Error:    j.Error,
	}
}

func JobToResponse(j jobs.Job) JobResponse {
	segments := make([]SegmentResponse, len(j.Segments))
	for i, s := range j.Segments {
		segments[i] = SegmentResponse{
			Start:    s.Start,
			End:      s.End,
			Title:    s.Title,
			Flagged:  s.Flagged,
			ClipName: clipname.NameFor(s, i),
		}
	}
	return JobResponse{
		ID:          j.ID,
		State:       j.State,
		Progress:    j.Progress,
		Mode:        string(j.Mode),
		SourceTitle: j.SourceTitle,
		Message:     j.Message,
		Error:       j.Error,
		Segments:    segments,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}

func CapabilitiesToResponse(c *cutter.Capabilities) *FFmpegResponse {
	return &FFmpegResponse{
		Available:   c.Available,
		Version:     c.Version,
		Error:       c.Error,
		LastProbeAt: c.ProbedAt.Format(time.RFC3339),
	}
}
