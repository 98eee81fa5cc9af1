// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/jobs"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/labstack/echo/v4"
)

// IngestHandler handles batch ingestion operations
type IngestHandler interface {
	HandleIngestMultipart(c echo.Context) error
	HandleIngestJSON(c echo.Context) error
	HandleJobStatus(c echo.Context) error
	HandleJobProgressStream(c echo.Context) error
	HandleJobFileSets(c echo.Context) error
	HandleCancelJob(c echo.Context) error
}

// TemplateHandler serves auto-saved templates
type TemplateHandler interface {
	HandleGetTemplate(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// JobManager defines the interface for ingestion job management
// This allows mocking in tests
type JobManager interface {
	StartJob(fileIDs []string) (jobs.Job, error)
	GetJob(id string) (jobs.Job, bool)
	Result(id string) (*ingest.Result, bool)
	Cancel(id string) bool
}

// StatsProvider reports record counts for the health endpoint
type StatsProvider interface {
	Stats(ctx context.Context) (storage.Stats, error)
}

// TemplateReader looks up a stored template by id
type TemplateReader interface {
	Template(ctx context.Context, id string) (*models.TemplateRecord, error)
}

var _ JobManager = (*jobs.Manager)(nil)
