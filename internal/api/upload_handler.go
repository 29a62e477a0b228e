package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-splitter/internal/clipname"
	"github.com/heimdex/heimdex-splitter/internal/indexparse"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
	"github.com/heimdex/heimdex-splitter/internal/splitter"
)

const (
	fieldVideo     = "video"
	fieldIndexText = "indexText"
	fieldMode      = "mode"

	maxIndexTextBytes = 4 << 20
	maxModeBytes      = 64
)

var mediaExtPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// uploadForm is what survives of a multipart upload once the media is on
// disk.
type uploadForm struct {
	videoSaved bool
	videoPath  string
	videoSize  int64
	title      string
	indexText  string
	mode       string
}

func uploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.MaxUploadBytes > 0 {
			if r.ContentLength > cfg.MaxUploadBytes {
				WriteError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(cfg.MaxUploadBytes))), "TOO_LARGE")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}
		mr, err := r.MultipartReader()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "expected multipart/form-data", "BAD_REQUEST")
			return
		}

		job := cfg.Store.Create()
		logger := logging.WithJobID(cfg.Logger, job.ID)
		fail := func(status int, jobErr, message string) {
			cfg.Store.Update(job.ID, jobs.Patch{
				State: jobs.Ptr(jobs.StateError),
				Error: jobs.Ptr(jobErr),
			})
			code := "BAD_REQUEST"
			switch status {
			case http.StatusRequestEntityTooLarge:
				code = "TOO_LARGE"
			case http.StatusInternalServerError, http.StatusServiceUnavailable:
				code = "INTERNAL_ERROR"
			}
			WriteError(w, status, message, code)
		}

		if err := os.MkdirAll(cfg.Layout.StorageDir(job.ID), 0755); err != nil {
			logger.Error("failed to create job storage", "error", err)
			fail(http.StatusInternalServerError, "storage unavailable", "failed to store upload")
			return
		}

		form, err := readUpload(mr, cfg, job.ID)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fail(http.StatusRequestEntityTooLarge, "upload too large",
					fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(tooLarge.Limit))))
				return
			}
			logger.Warn("failed to read upload", "error", err)
			fail(http.StatusBadRequest, "invalid upload", "invalid multipart body")
			return
		}

		if !form.videoSaved {
			fail(http.StatusBadRequest, "missing video file", "video file is required")
			return
		}
		if strings.TrimSpace(form.indexText) == "" {
			fail(http.StatusBadRequest, "missing indexText", "indexText is required")
			return
		}
		mode, err := indexparse.ParseMode(form.mode)
		if err != nil {
			fail(http.StatusBadRequest, "invalid mode", err.Error())
			return
		}

		indexPath := cfg.Layout.IndexTextPath(job.ID)
		if err := os.WriteFile(indexPath, []byte(form.indexText), 0644); err != nil {
			logger.Error("failed to write index text", "error", err)
			fail(http.StatusInternalServerError, "storage unavailable", "failed to store upload")
			return
		}

		segments := cfg.ParseIndex(form.indexText, mode)
		if len(segments) > 0 {
			logger.Debug("parsed first segment", "segment", segments[0])
		}

		patch := jobs.Patch{
			Mode:            jobs.Ptr(mode),
			Segments:        &segments,
			SourceMediaPath: jobs.Ptr(form.videoPath),
			IndexTextPath:   jobs.Ptr(indexPath),
		}
		if form.title != "" {
			patch.SourceTitle = jobs.Ptr(form.title)
		}
		cfg.Store.Update(job.ID, patch)

		if err := cfg.Scheduler.Submit(job.ID); err != nil {
			logger.Error("failed to schedule job", "error", err)
			if errors.Is(err, splitter.ErrSchedulerClosed) {
				fail(http.StatusServiceUnavailable, "server shutting down", "server is shutting down")
				return
			}
			fail(http.StatusInternalServerError, err.Error(), "failed to schedule job")
			return
		}

		logger.Info("upload accepted",
			"size", humanize.Bytes(uint64(form.videoSize)),
			"segments", len(segments),
			"mode", mode,
		)
		WriteJSON(w, http.StatusOK, UploadResponse{JobID: job.ID})
	}
}

// readUpload streams the parts in order. The first "video" file part is
// written to the job's storage; other file parts are drained.
func readUpload(mr *multipart.Reader, cfg ServerConfig, jobID string) (*uploadForm, error) {
	form := &uploadForm{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return form, nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case part.FileName() != "":
			if part.FormName() == fieldVideo && !form.videoSaved {
				if err := saveVideo(part, cfg, jobID, form); err != nil {
					part.Close()
					return nil, err
				}
			} else if _, err := io.Copy(io.Discard, part); err != nil {
				part.Close()
				return nil, err
			}
		case part.FormName() == fieldIndexText:
			data, err := readField(part, maxIndexTextBytes)
			if err != nil {
				part.Close()
				return nil, err
			}
			form.indexText = data
		case part.FormName() == fieldMode:
			data, err := readField(part, maxModeBytes)
			if err != nil {
				part.Close()
				return nil, err
			}
			form.mode = data
		default:
			io.Copy(io.Discard, part)
		}
		part.Close()
	}
}

func saveVideo(part *multipart.Part, cfg ServerConfig, jobID string, form *uploadForm) error {
	fileName := filepath.Base(part.FileName())
	ext := strings.ToLower(filepath.Ext(fileName))
	if !mediaExtPattern.MatchString(ext) {
		ext = ""
	}

	dst := cfg.Layout.SourcePath(jobID, ext)
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := io.Copy(f, part)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write video: %w", err)
	}

	form.videoSaved = true
	form.videoPath = dst
	form.videoSize = n
	form.title = clipname.SanitizeOr(strings.TrimSuffix(fileName, filepath.Ext(fileName)), clipname.MaxFolderRunes, "")
	return nil
}

func readField(part *multipart.Part, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("field %s exceeds %s", part.FormName(), humanize.Bytes(uint64(limit)))
	}
	return string(data), nil
}
