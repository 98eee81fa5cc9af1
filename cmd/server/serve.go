package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dild26/caffeine-projects-sub001/internal/api"
	"github.com/dild26/caffeine-projects-sub001/internal/jobs"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger.Info("initializing record store", zap.String("driver", cfg.Storage.Driver))
	store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}

	spool, err := storage.NewLocalStore(cfg.Storage.SpoolDirectory)
	if err != nil {
		return err
	}

	jobMgr := jobs.NewManager(spool, newIngester(cfg, store, archive, logger), logger)
	go jobMgr.RunCleanup(ctx, cfg.CleanupInterval(), cfg.JobRetention())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:           logger,
		RequestLogging:   cfg.Log.RequestLogging,
		EnableCORS:       cfg.Server.EnableCORS,
		AllowOrigins:     cfg.Server.AllowOrigins,
		BodyLimit:        cfg.Server.BodyLimit,
		ShowErrorDetails: cfg.Log.Level == "debug",
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Spool:     spool,
		Jobs:      jobMgr,
		Stats:     store,
		Templates: store,
		MaxFiles:  cfg.Ingest.MaxFilesPerBatch,
		Version:   Version,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("ingestion server started",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("addr", cfg.GetServerAddr()),
		zap.String("config", configPath()),
		zap.String("archive", cfg.Archive.Driver))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := jobMgr.Shutdown(shutdownCtx); err != nil {
		logger.Warn("jobs did not stop in time", zap.Error(err))
	}
	return nil
}
