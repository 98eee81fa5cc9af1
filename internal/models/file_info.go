package models

import "time"

// Spool statuses of an uploaded file.
const (
	FileStatusSpooled  = "spooled"
	FileStatusIngested = "ingested"
)

// FileInfo represents metadata about a spooled upload.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"`
}
