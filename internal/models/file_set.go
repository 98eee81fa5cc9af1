// Package models contains domain types for the ingestion pipeline.
package models

// FileKind is the slot a file occupies inside a FileSet.
type FileKind string

const (
	KindStructured  FileKind = "json"
	KindText        FileKind = "text"
	KindImage       FileKind = "image"
	KindArchive     FileKind = "archive"
	KindUnsupported FileKind = "unsupported"
)

// Status represents the processing state of a FileSet.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ExtractedField is one (path, value) pair produced by flattening.
type ExtractedField struct {
	Path  string `json:"path" msgpack:"path"`
	Value string `json:"value" msgpack:"value"`
}

// FileSet groups the structured-data, text and image files of one entity.
type FileSet struct {
	BaseName        string           `json:"baseName" msgpack:"baseName"`
	JSONFile        *RawFile         `json:"-" msgpack:"-"`
	TextFile        *RawFile         `json:"-" msgpack:"-"`
	ImageFile       *RawFile         `json:"-" msgpack:"-"`
	Status          Status           `json:"status" msgpack:"status"`
	ContentHash     string           `json:"contentHash,omitempty" msgpack:"contentHash,omitempty"`
	ErrorMessage    string           `json:"errorMessage,omitempty" msgpack:"errorMessage,omitempty"`
	Fields          []ExtractedField `json:"fields,omitempty" msgpack:"fields,omitempty"`
	TextFields      []ExtractedField `json:"textFields,omitempty" msgpack:"textFields,omitempty"`
	Recovered       bool             `json:"recovered,omitempty" msgpack:"recovered,omitempty"`
	Heuristics      []string         `json:"heuristics,omitempty" msgpack:"heuristics,omitempty"`
	OriginalContent string           `json:"originalContent,omitempty" msgpack:"originalContent,omitempty"` // only kept for unrecoverable files
	ArchivedAs      string           `json:"archivedAs,omitempty" msgpack:"archivedAs,omitempty"`
	AutoSaved       bool             `json:"autoSaved" msgpack:"autoSaved"`
}

// NewFileSet creates a pending FileSet.
func NewFileSet(baseName string) *FileSet {
	return &FileSet{
		BaseName: baseName,
		Status:   StatusPending,
	}
}

// Slot returns the file stored for kind, or nil.
func (fs *FileSet) Slot(kind FileKind) *RawFile {
	switch kind {
	case KindStructured:
		return fs.JSONFile
	case KindText:
		return fs.TextFile
	case KindImage:
		return fs.ImageFile
	}
	return nil
}

// Attach stores f in the slot for kind. It returns false when the slot is
// already taken; the existing file is never replaced.
func (fs *FileSet) Attach(kind FileKind, f RawFile) bool {
	if fs.Slot(kind) != nil {
		return false
	}
	switch kind {
	case KindStructured:
		fs.JSONFile = &f
	case KindText:
		fs.TextFile = &f
	case KindImage:
		fs.ImageFile = &f
	default:
		return false
	}
	return true
}

// HasUnmatchedImage reports an image with no structured-data sibling.
func (fs *FileSet) HasUnmatchedImage() bool {
	return fs.ImageFile != nil && fs.JSONFile == nil
}

// FileNames lists the names of the attached files, structured data first.
func (fs *FileSet) FileNames() []string {
	var names []string
	for _, f := range []*RawFile{fs.JSONFile, fs.TextFile, fs.ImageFile} {
		if f != nil {
			names = append(names, f.Name)
		}
	}
	return names
}

// MarkError moves the set to the error state.
func (fs *FileSet) MarkError(msg string) {
	fs.Status = StatusError
	fs.ErrorMessage = msg
}
