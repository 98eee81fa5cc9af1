package models

import "time"

// RecordStatusSuccess is the only status a ProcessedFileRecord is submitted with.
const RecordStatusSuccess = "success"

// ProcessedFileRecord is the durable artifact derived from a completed FileSet.
type ProcessedFileRecord struct {
	Filename    string           `json:"filename"`
	Content     string           `json:"content"`
	ContentHash string           `json:"contentHash"`
	Fields      []ExtractedField `json:"fields"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// TemplateRecord is a reusable template keyed by an id derived from the content digest.
type TemplateRecord struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Fields   []ExtractedField `json:"fields"`
	Category string           `json:"category"`
}

// CatalogEntry references the template with the same id.
type CatalogEntry struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	SourceFilename string   `json:"sourceFilename"`
}

// ErrorReport is sent to the error-log collaborator.
type ErrorReport struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	FileContext  string    `json:"fileContext"`
	ErrorKind    string    `json:"errorKind"`
	SuggestedFix string    `json:"suggestedFix,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RejectedFile is a file refused before matching.
type RejectedFile struct {
	Name   string   `json:"name" msgpack:"name"`
	Kind   FileKind `json:"kind" msgpack:"kind"`
	Reason string   `json:"reason" msgpack:"reason"`
}
