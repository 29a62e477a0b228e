// Package playback streams single clips so a client can preview them before
// downloading an archive.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heimdex/heimdex-splitter/internal/jobs"
)

var ErrClipNotFound = errors.New("clip not found")

// ClipDirs resolves the directory holding a job's clips.
type ClipDirs interface {
	ClipDir(jobID string) string
}

type ClipServer struct {
	dirs   ClipDirs
	logger *slog.Logger
}

func NewClipServer(dirs ClipDirs, logger *slog.Logger) *ClipServer {
	return &ClipServer{dirs: dirs, logger: logger}
}

// Resolve maps a job id and clip file name to a path inside the job's clip
// directory. Names that could leave the directory are rejected.
func (s *ClipServer) Resolve(jobID, name string) (string, error) {
	if !jobs.ValidID(jobID) || !validClipName(name) {
		return "", ErrClipNotFound
	}
	path := filepath.Join(s.dirs.ClipDir(jobID), name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrClipNotFound
	}
	return path, nil
}

func validClipName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// videoTypes covers containers the host mime table often lacks.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ServeClip writes the clip with byte range support. ErrClipNotFound and
// ErrUnsatisfiable are returned before anything is written so the caller can
// pick the response; the 416 headers are already set for the latter.
func (s *ClipServer) ServeClip(w http.ResponseWriter, r *http.Request, jobID, name string) error {
	path, err := s.Resolve(jobID, name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrClipNotFound
		}
		return fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat clip: %w", err)
	}
	size := info.Size()

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")

	span, partial, err := ParseByteRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		return err
	case err != nil:
		// Malformed headers are ignored and the whole clip is sent.
		partial = false
	}

	h.Set("Content-Type", contentTypeFor(name))
	if !partial {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		if _, err := io.Copy(w, f); err != nil {
			s.logger.Debug("clip stream interrupted", "job_id", jobID, "error", err)
		}
		return nil
	}

	if _, err := f.Seek(span.First, io.SeekStart); err != nil {
		return fmt.Errorf("seek clip: %w", err)
	}
	h.Set("Content-Length", strconv.FormatInt(span.Length(), 10))
	h.Set("Content-Range", span.Header(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := io.CopyN(w, f, span.Length()); err != nil {
		s.logger.Debug("clip stream interrupted", "job_id", jobID, "error", err)
	}
	return nil
}
