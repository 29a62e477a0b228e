package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-splitter/internal/playback"
)

func clipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		name := chi.URLParam(r, "name")
		if r.URL.RawPath != "" {
			if unescaped, err := url.PathUnescape(name); err == nil {
				name = unescaped
			}
		}

		err := cfg.Clips.ServeClip(w, r, jobID, name)
		switch {
		case err == nil:
		case errors.Is(err, playback.ErrClipNotFound):
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
		case errors.Is(err, playback.ErrUnsatisfiable):
			WriteError(w, http.StatusRequestedRangeNotSatisfiable, err.Error(), "RANGE_NOT_SATISFIABLE")
		default:
			cfg.Logger.Error("failed to serve clip", "job_id", jobID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to serve clip", "INTERNAL_ERROR")
		}
	}
}
