package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
)

// RecordStore is a durable sink for ingestion output. Both the DuckDB and
// the PostgreSQL implementations satisfy it.
type RecordStore interface {
	SubmitProcessedFile(ctx context.Context, rec models.ProcessedFileRecord) error
	SubmitTemplate(ctx context.Context, tmpl models.TemplateRecord) error
	SubmitCatalogEntry(ctx context.Context, entry models.CatalogEntry) error
	ReportError(ctx context.Context, report models.ErrorReport) error
	Template(ctx context.Context, id string) (*models.TemplateRecord, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// ErrNotFound is returned by lookups for a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Stats counts the rows held per table.
type Stats struct {
	ProcessedFiles int64 `json:"processedFiles"`
	Templates      int64 `json:"templates"`
	CatalogEntries int64 `json:"catalogEntries"`
	ErrorLogs      int64 `json:"errorLogs"`
}

// Table names shared by both backends.
const (
	tableProcessedFiles = "processed_files"
	tableTemplates      = "templates"
	tableCatalogEntries = "catalog_entries"
	tableErrorLogs      = "error_logs"
)

func encodeFields(fields []models.ExtractedField) (string, error) {
	if fields == nil {
		fields = []models.ExtractedField{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}
	return string(b), nil
}

func decodeFields(raw string) ([]models.ExtractedField, error) {
	var fields []models.ExtractedField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	return fields, nil
}
