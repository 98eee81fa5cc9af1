package main

import (
	"context"
	"fmt"

	"github.com/dild26/caffeine-projects-sub001/internal/config"
	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	applog "github.com/dild26/caffeine-projects-sub001/internal/log"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// loadRuntime reads .env and the config file, then builds the logger.
func loadRuntime() (*config.AppConfig, *zap.Logger, error) {
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	lvl, err := applog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, applog.InitLog(lvl, cfg.Log.Format), nil
}

func openRecordStore(ctx context.Context, cfg *config.AppConfig) (storage.RecordStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return storage.NewPostgresStore(ctx, cfg.Storage.PostgresURL)
	case config.DriverDuckDB:
		return storage.NewDuckStore(cfg.Storage.DuckDBPath)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// openArchive returns nil when archiving is disabled.
func openArchive(ctx context.Context, cfg *config.AppConfig) (ingest.Archive, error) {
	switch cfg.Archive.Driver {
	case config.ArchiveNone:
		return nil, nil
	case config.ArchiveLocal:
		return storage.NewDirArchive(cfg.Archive.Directory)
	case config.ArchiveMinio:
		archive, err := storage.NewMinioArchive(storage.MinioConfig{
			Endpoint:  cfg.Archive.MinioEndpoint,
			AccessKey: cfg.Archive.MinioAccessKey,
			SecretKey: cfg.Archive.MinioSecretKey,
			Bucket:    cfg.Archive.MinioBucket,
			Prefix:    cfg.Archive.MinioPrefix,
			UseSSL:    cfg.Archive.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	}
	return nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
}

func newIngester(cfg *config.AppConfig, store storage.RecordStore, archive ingest.Archive, logger *zap.Logger) *ingest.Ingester {
	return ingest.New(store, ingest.Options{
		Logger:           logger,
		Reporter:         store,
		Archive:          archive,
		DefaultCategory:  cfg.Ingest.DefaultCategory,
		ContextLimit:     cfg.Ingest.ContextLimit,
		DescriptionLimit: cfg.Ingest.DescriptionLimit,
	})
}
