package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heimdex/heimdex-splitter/internal/archive"
	"github.com/heimdex/heimdex-splitter/internal/cutter"
	"github.com/heimdex/heimdex-splitter/internal/indexparse"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/playback"
	"github.com/heimdex/heimdex-splitter/internal/workspace"
)

// JobSubmitter hands a prepared job to background processing.
type JobSubmitter interface {
	Submit(jobID string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Addr           string
	Store          jobs.Store
	Layout         workspace.Layout
	Scheduler      JobSubmitter
	Archives       *archive.Builder
	Cleaner        *workspace.Cleaner
	Clips          *playback.ClipServer
	Probe          *cutter.CachedProbe
	ParseIndex     indexparse.Strategy
	MaxUploadBytes int64
	CORSOrigin     string
	Logger         *slog.Logger
	StartTime      time.Time
	Version        string
	// Now names batch archives; nil means time.Now.
	Now func() time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: router,
			// Uploads and archive downloads are long-lived streams, so only
			// the header read is bounded.
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       0,
			WriteTimeout:      0,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
