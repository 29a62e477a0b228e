package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-splitter/internal/archive"
)

func downloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")

		plan, err := cfg.Archives.PlanSingle(jobID)
		if errors.Is(err, archive.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "clips not found", "NOT_FOUND")
			return
		}
		if err != nil {
			cfg.Logger.Error("failed to plan archive", "job_id", jobID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to build archive", "INTERNAL_ERROR")
			return
		}

		streamArchive(w, plan, cfg.Logger)
	}
}

func batchDownloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchDownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		ids := make([]string, 0, len(req.JobIDs))
		for _, id := range req.JobIDs {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			WriteError(w, http.StatusBadRequest, "jobIds is required", "BAD_REQUEST")
			return
		}

		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}
		streamArchive(w, cfg.Archives.PlanBatch(ids, now()), cfg.Logger)
	}
}

// streamArchive writes the zip as the response body. Once the headers are out
// a failure can only be signalled by dropping the connection.
func streamArchive(w http.ResponseWriter, plan *archive.Plan, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", plan.FileName()))
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	n, err := plan.WriteTo(w)
	if err != nil {
		logger.Error("archive stream aborted",
			"archive", plan.FileName(),
			"written", humanize.Bytes(uint64(n)),
			"error", err,
		)
		panic(http.ErrAbortHandler)
	}

	logger.Info("archive streamed",
		"archive", plan.FileName(),
		"files", len(plan.Entries()),
		"size", humanize.Bytes(uint64(n)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
