package testutil

import (
	"errors"
	"io"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
)

// File builds an in-memory RawFile.
func File(name, content string) models.RawFile {
	return models.NewBytesFile(name, []byte(content))
}

// UnreadableFile builds a RawFile whose payload cannot be opened.
func UnreadableFile(name string) models.RawFile {
	return models.NewRawFile(name, 0, func() (io.ReadCloser, error) {
		return nil, errors.New("device not ready")
	})
}

// CountingFile wraps content and counts how often it was opened.
func CountingFile(name, content string, opens *int) models.RawFile {
	inner := File(name, content)
	return models.NewRawFile(name, inner.Size, func() (io.ReadCloser, error) {
		*opens++
		return inner.Open()
	})
}
