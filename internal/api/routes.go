package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-splitter/internal/workspace"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSMiddleware(cfg.CORSOrigin))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(cfg))
		r.Post("/upload", uploadHandler(cfg))
		r.Get("/status/{jobId}", statusHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{jobId}", getJobHandler(cfg))
		r.Delete("/jobs/{jobId}", cleanupHandler(cfg))
		r.Get("/jobs/{jobId}/clips/{name}", clipHandler(cfg))
		r.Head("/jobs/{jobId}/clips/{name}", clipHandler(cfg))
		r.Get("/download/{jobId}", downloadHandler(cfg))
		r.Post("/download/batch", batchDownloadHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		resp := HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		}
		if cfg.Probe != nil {
			resp.FFmpeg = CapabilitiesToResponse(cfg.Probe.Get(r.Context()))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := cfg.Store.Get(chi.URLParam(r, "jobId"))
		if !ok {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, StatusToResponse(job))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := cfg.Store.List()
		resp := JobsResponse{Jobs: make([]JobResponse, len(list))}
		for i, j := range list {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := cfg.Store.Get(chi.URLParam(r, "jobId"))
		if !ok {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func cleanupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Cleaner.Cleanup(chi.URLParam(r, "jobId"))
		switch {
		case errors.Is(err, workspace.ErrInvalidJobID):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		case err != nil:
			WriteError(w, http.StatusInternalServerError, "cleanup failed", "INTERNAL_ERROR")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
