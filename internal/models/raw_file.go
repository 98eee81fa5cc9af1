package models

import (
	"bytes"
	"io"
	"os"
)

// RawFile is one uploaded blob. The payload is opened on demand so a batch
// never has to hold every file in memory at once.
type RawFile struct {
	Name string
	Size int64
	open func() (io.ReadCloser, error)
}

// NewRawFile wraps an opener that yields the file's payload.
func NewRawFile(name string, size int64, open func() (io.ReadCloser, error)) RawFile {
	return RawFile{Name: name, Size: size, open: open}
}

// NewBytesFile builds a RawFile over an in-memory payload.
func NewBytesFile(name string, data []byte) RawFile {
	return NewRawFile(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// NewDiskFile builds a RawFile backed by a file on disk.
func NewDiskFile(name, path string, size int64) RawFile {
	return NewRawFile(name, size, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// Open returns a fresh reader over the payload.
func (f RawFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, os.ErrNotExist
	}
	return f.open()
}

// ReadAll reads the whole payload.
func (f RawFile) ReadAll() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
