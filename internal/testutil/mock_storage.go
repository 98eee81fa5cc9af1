// mock_storage.go - In-memory collaborators for testing
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
)

// ErrInjected is the default failure returned by an injected fault.
var ErrInjected = errors.New("injected failure")

// MockStore records every submitted record. Set a Fail* field to make the
// matching call return that error.
type MockStore struct {
	mu sync.RWMutex

	ProcessedFiles []models.ProcessedFileRecord
	Templates      []models.TemplateRecord
	CatalogEntries []models.CatalogEntry
	Reports        []models.ErrorReport

	FailProcessedFile error
	FailTemplate      error
	FailCatalogEntry  error
	FailReport        error
	PanicOnReport     bool
	PanicOnTemplate   bool
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) SubmitProcessedFile(ctx context.Context, rec models.ProcessedFileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailProcessedFile != nil {
		return m.FailProcessedFile
	}
	m.ProcessedFiles = append(m.ProcessedFiles, rec)
	return nil
}

func (m *MockStore) SubmitTemplate(ctx context.Context, tmpl models.TemplateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PanicOnTemplate {
		panic("template store exploded")
	}
	if m.FailTemplate != nil {
		return m.FailTemplate
	}
	m.Templates = append(m.Templates, tmpl)
	return nil
}

// Template returns the most recently submitted template with id.
func (m *MockStore) Template(ctx context.Context, id string) (*models.TemplateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.Templates) - 1; i >= 0; i-- {
		if m.Templates[i].ID == id {
			tmpl := m.Templates[i]
			return &tmpl, nil
		}
	}
	return nil, fmt.Errorf("template %s: %w", id, storage.ErrNotFound)
}

func (m *MockStore) SubmitCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCatalogEntry != nil {
		return m.FailCatalogEntry
	}
	m.CatalogEntries = append(m.CatalogEntries, entry)
	return nil
}

func (m *MockStore) ReportError(ctx context.Context, report models.ErrorReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PanicOnReport {
		panic("reporter exploded")
	}
	if m.FailReport != nil {
		return m.FailReport
	}
	m.Reports = append(m.Reports, report)
	return nil
}

// Test Helper Methods

// ReportKinds returns the kinds of all recorded error reports, in order.
func (m *MockStore) ReportKinds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kinds := make([]string, 0, len(m.Reports))
	for _, r := range m.Reports {
		kinds = append(kinds, r.ErrorKind)
	}
	return kinds
}

// ProcessedFilenames returns the filenames of the submitted records, in order.
func (m *MockStore) ProcessedFilenames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.ProcessedFiles))
	for _, r := range m.ProcessedFiles {
		names = append(names, r.Filename)
	}
	return names
}

// Clear drops everything recorded so far. Injected failures are kept.
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessedFiles = nil
	m.Templates = nil
	m.CatalogEntries = nil
	m.Reports = nil
}

// MockArchive keeps preserved payloads in memory.
type MockArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
	Fail    error
}

// NewMockArchive creates an empty archive.
func NewMockArchive() *MockArchive {
	return &MockArchive{objects: make(map[string][]byte)}
}

func (a *MockArchive) Preserve(ctx context.Context, name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail != nil {
		return "", a.Fail
	}
	key := fmt.Sprintf("mock://%s", name)
	a.objects[key] = append([]byte(nil), data...)
	return key, nil
}

// Object returns a preserved payload.
func (a *MockArchive) Object(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[key]
	return data, ok
}

// Len returns the number of preserved payloads.
func (a *MockArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
