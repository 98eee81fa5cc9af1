// Package fileset groups a flat upload batch into per-entity file sets.
package fileset

import (
	"path/filepath"
	"strings"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
)

// Rejection reasons for files that never reach matching.
const (
	ReasonArchive     = "archive processing not supported"
	ReasonUnsupported = "unsupported file type"
)

// kindRule maps a set of extensions to a file kind.
type kindRule struct {
	kind       models.FileKind
	extensions []string
}

// Classifier resolves a file kind from its extension, first rule wins.
type Classifier struct {
	rules []kindRule
}

var defaultClassifier = NewClassifier()

// NewClassifier returns the classifier for the recognized kinds.
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []kindRule{
			{kind: models.KindStructured, extensions: []string{".json"}},
			{kind: models.KindText, extensions: []string{".txt", ".md"}},
			{kind: models.KindImage, extensions: []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}},
			{kind: models.KindArchive, extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".tgz"}},
		},
	}
}

// DefaultClassifier returns the shared classifier.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// Classify returns the kind of a file name and the extension that matched.
func (c *Classifier) Classify(name string) (models.FileKind, string) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return models.KindUnsupported, ""
	}
	for _, r := range c.rules {
		for _, e := range r.extensions {
			if e == ext {
				return r.kind, ext
			}
		}
	}
	return models.KindUnsupported, ext
}

// Matchable reports whether kind occupies a FileSet slot.
func Matchable(kind models.FileKind) bool {
	return kind == models.KindStructured || kind == models.KindText || kind == models.KindImage
}
