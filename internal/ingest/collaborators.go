package ingest

import (
	"context"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
)

// Store receives the records derived from completed file sets. It is only
// ever written to during a run.
type Store interface {
	SubmitProcessedFile(ctx context.Context, rec models.ProcessedFileRecord) error
	SubmitTemplate(ctx context.Context, tmpl models.TemplateRecord) error
	SubmitCatalogEntry(ctx context.Context, entry models.CatalogEntry) error
}

// ErrorReporter is the error-log sink. Its failures are swallowed.
type ErrorReporter interface {
	ReportError(ctx context.Context, report models.ErrorReport) error
}

// Archive keeps the original payload of a file that could not be recovered
// and returns the key it was stored under.
type Archive interface {
	Preserve(ctx context.Context, name string, data []byte) (string, error)
}

// Error-log kinds emitted outside the parser's own classes.
const (
	KindDuplicate        = "duplicate_content"
	KindUnsupportedInput = "unsupported_input"
	KindReadError        = "read_error"
	KindInternal         = "internal_error"
	recoveredPrefix      = "recovered_"
)
