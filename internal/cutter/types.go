// Package cutter runs the external clip-cutting tool (ffmpeg) as a subprocess
// and probes whether it is installed.
package cutter

import (
	"context"
	"time"
)

// Invoker runs the cutting tool once with the given arguments.
//
// A non-nil error means the tool could not be started at all. A tool that
// ran and exited non-zero is reported through RunResult.
type Invoker interface {
	Invoke(ctx context.Context, args []string) (RunResult, error)
}

// RunResult is the structured outcome of one tool invocation.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// Capabilities describes the installed tool as seen by the last probe.
type Capabilities struct {
	Available bool      `json:"available"`
	Binary    string    `json:"binary,omitempty"`
	Version   string    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
	ProbedAt  time.Time `json:"probed_at"`
}

// CutArgs builds a stream-copy cut of [start, end] from input into output.
// Nothing is re-encoded.
func CutArgs(input, start, end, output string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", start,
		"-to", end,
		"-i", input,
		"-c", "copy",
		output,
	}
}
