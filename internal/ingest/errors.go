package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate marks a structured-data file whose digest was already seen in the run.
	ErrDuplicate = errors.New("duplicate file detected")
	// ErrUnsupportedArchive marks an archive in the batch.
	ErrUnsupportedArchive = errors.New("archive processing not supported")
	// ErrUnsupportedType marks a file with an unrecognized extension.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Auto-save steps, in the order they run.
const (
	StepProcessedFile = "processed_file"
	StepTemplate      = "template"
	StepCatalogEntry  = "catalog_entry"
)

// PersistenceError is returned by an auto-save step. It never changes the
// parse status of the file set.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("auto-save %s: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
