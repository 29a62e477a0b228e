package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-splitter/internal/api"
	"github.com/heimdex/heimdex-splitter/internal/archive"
	"github.com/heimdex/heimdex-splitter/internal/config"
	"github.com/heimdex/heimdex-splitter/internal/cutter"
	"github.com/heimdex/heimdex-splitter/internal/indexparse"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
	"github.com/heimdex/heimdex-splitter/internal/playback"
	"github.com/heimdex/heimdex-splitter/internal/splitter"
	"github.com/heimdex/heimdex-splitter/internal/ui"
	"github.com/heimdex/heimdex-splitter/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background splitter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cmd.Context(), cfg, headless || cfg.Headless())
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the system tray")
	return cmd
}

func runServe(parent context.Context, cfg *config.EnvConfig, headless bool) error {
	startTime := time.Now()

	logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFormat())
	logger.Info("starting heimdex splitter",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
		"config_file", cfg.File(),
	)

	layout := workspace.NewLayout(cfg.DataDir())
	if err := layout.Ensure(); err != nil {
		return fmt.Errorf("failed to prepare data dir: %w", err)
	}

	lock, err := layout.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release data dir lock", "error", err)
		}
	}()

	parseIndex, err := indexparse.Lookup(cfg.IndexStrategy())
	if err != nil {
		return err
	}

	store := jobs.NewMemoryStore()

	var invoker cutter.Invoker
	var probe *cutter.CachedProbe
	ff, err := cutter.NewFFmpeg(cutter.Config{
		Binary:  cfg.FFmpegPath(),
		Timeout: cfg.FFmpegTimeout(),
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("ffmpeg unavailable, uploads will fail to split", "error", err)
		invoker = cutter.Unavailable(err)
		probe = cutter.NewCachedProbe(nil, cfg.FFmpegPath(), logger)
	} else {
		invoker = ff
		probe = cutter.NewCachedProbe(ff, ff.Binary(), logger)

		initCtx, initCancel := context.WithTimeout(parent, 10*time.Second)
		caps := probe.Refresh(initCtx)
		initCancel()
		if caps.Available {
			logger.Info("ffmpeg detected", "version", caps.Version)
		}
	}

	orchestrator := splitter.NewOrchestrator(store, invoker, layout, logger)
	scheduler := splitter.NewScheduler(orchestrator, cfg.MaxConcurrentJobs(), logger)
	cleaner := workspace.NewCleaner(layout, store, logger)
	janitor := workspace.NewJanitor(cleaner, store, layout, cfg.JobTTL(), logger)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go janitor.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr(),
		Store:          store,
		Layout:         layout,
		Scheduler:      scheduler,
		Archives:       archive.NewBuilder(store, layout, logger),
		Cleaner:        cleaner,
		Clips:          playback.NewClipServer(layout, logger),
		Probe:          probe,
		ParseIndex:     parseIndex,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CORSOrigin:     cfg.CORSOrigin(),
		Logger:         logger,
		StartTime:      startTime,
		Version:        config.Version,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	quitCh := make(chan struct{})
	var quitErr error

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
		case err := <-serverErr:
			if err != nil {
				logger.Error("HTTP server error", "error", err)
				quitErr = err
			}
		case <-ctx.Done():
		}
		close(quitCh)
	}()

	if headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Store:  store,
			Addr:   cfg.Addr(),
			Logger: logger,
			OnSweep: func() int {
				return janitor.SweepOlderThan(0)
			},
			OnQuit: func() {
				select {
				case sigCh <- syscall.SIGTERM:
				default:
				}
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	if err := scheduler.Close(shutdownCtx); err != nil {
		logger.Warn("jobs still running at shutdown", "running", scheduler.Running(), "error", err)
	}

	logger.Info("shutdown complete")
	return quitErr
}
