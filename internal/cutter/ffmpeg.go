package cutter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
	probeTimeout   = 10 * time.Second
)

// Config holds the ffmpeg invoker's configuration.
type Config struct {
	Binary  string        // ffmpeg binary name or path; empty = "ffmpeg" on PATH
	Timeout time.Duration // per-invocation limit; zero disables it
	Logger  *slog.Logger
}

// FFmpeg is the production Invoker.
type FFmpeg struct {
	cfg    Config
	binary string // resolved binary path
}

// NewFFmpeg creates an FFmpeg invoker, resolving the binary path.
func NewFFmpeg(cfg Config) (*FFmpeg, error) {
	binary, err := resolveBinary(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}

	cfg.Logger.Info("ffmpeg invoker initialised", "binary", binary, "timeout", cfg.Timeout)

	return &FFmpeg{cfg: cfg, binary: binary}, nil
}

// Binary returns the resolved ffmpeg path.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Invoke runs ffmpeg with args and waits for it to exit.
func (f *FFmpeg) Invoke(ctx context.Context, args []string) (RunResult, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.binary, args...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard

	f.cfg.Logger.Debug("executing ffmpeg", "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			f.cfg.Logger.Error("ffmpeg could not be started", "error", err)
			return RunResult{ExitCode: -1, Duration: elapsed}, fmt.Errorf("start ffmpeg: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	stderrTail := strings.TrimSpace(stderrBuf.String())

	if exitCode != 0 {
		f.cfg.Logger.Warn("ffmpeg failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		f.cfg.Logger.Debug("ffmpeg succeeded", "duration_ms", elapsed.Milliseconds())
	}

	return RunResult{
		ExitCode:   exitCode,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}, nil
}

// Version runs `ffmpeg -version` and returns its first output line.
func (f *FFmpeg) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, f.binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -version: %w", err)
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return strings.TrimSpace(string(line)), nil
}

// resolveBinary finds a usable ffmpeg binary.
func resolveBinary(preferred string) (string, error) {
	name := preferred
	if name == "" {
		name = "ffmpeg"
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%q not found: %w", name, err)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}

type unavailable struct {
	err error
}

// Unavailable returns an Invoker for a missing ffmpeg. Every call fails with
// err, so jobs still reach the error state instead of hanging in queued.
func Unavailable(err error) Invoker {
	return unavailable{err: err}
}

func (u unavailable) Invoke(ctx context.Context, args []string) (RunResult, error) {
	return RunResult{ExitCode: -1}, u.err
}
