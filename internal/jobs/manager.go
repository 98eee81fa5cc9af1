// Package jobs runs ingestion batches asynchronously for the HTTP surface.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status represents the job processing status.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusCanceled Status = "canceled"
	StatusError    Status = "error"
)

// Finished reports whether the job reached a terminal status.
func (s Status) Finished() bool {
	return s == StatusComplete || s == StatusCanceled || s == StatusError
}

// ErrNoFiles is returned when a job is started without files.
var ErrNoFiles = errors.New("no files to ingest")

// Job represents an async ingestion job. Done and Total count file sets,
// not uploaded files; Total stays 0 until grouping has run.
type Job struct {
	ID          string              `json:"id" msgpack:"id"`
	Files       []string            `json:"files" msgpack:"files"`
	Status      Status              `json:"status" msgpack:"status"`
	Progress    float64             `json:"progress" msgpack:"progress"`
	Done        int                 `json:"done" msgpack:"done"`
	Total       int                 `json:"total" msgpack:"total"`
	Current     string              `json:"current,omitempty" msgpack:"current,omitempty"`
	Report      *models.BatchReport `json:"report,omitempty" msgpack:"report,omitempty"`
	Error       string              `json:"error,omitempty" msgpack:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" msgpack:"createdAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty" msgpack:"completedAt,omitempty"`
}

// Runner is the ingestion entry point a job drives.
type Runner interface {
	Ingest(ctx context.Context, files []models.RawFile, onProgress ingest.ProgressFunc) (*ingest.Result, error)
}

type entry struct {
	job     *Job
	fileIDs []string
	result  *ingest.Result
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager handles async ingestion jobs.
type Manager struct {
	jobs   map[string]*entry
	mu     sync.RWMutex
	spool  storage.Spool
	runner Runner
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewManager creates a new job manager.
func NewManager(spool storage.Spool, runner Runner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		jobs:   make(map[string]*entry),
		spool:  spool,
		runner: runner,
		logger: logger.Named("jobs"),
	}
}

// StartJob begins async ingestion of spooled files. Files are ingested in
// the order given.
func (m *Manager) StartJob(fileIDs []string) (Job, error) {
	if len(fileIDs) == 0 {
		return Job{}, ErrNoFiles
	}
	names := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		info, err := m.spool.Get(id)
		if err != nil {
			return Job{}, fmt.Errorf("resolving spooled file: %w", err)
		}
		names = append(names, info.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		job: &Job{
			ID:        uuid.New().String(),
			Files:     names,
			Status:    StatusQueued,
			CreatedAt: time.Now(),
		},
		fileIDs: fileIDs,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[e.job.ID] = e
	snapshot := *e.job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.processJob(ctx, e)

	return snapshot, nil
}

// GetJob returns a snapshot of a job.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *e.job, true
}

// Result returns the ingestion result of a finished job.
func (m *Manager) Result(id string) (*ingest.Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	if !ok || e.result == nil {
		return nil, false
	}
	return e.result, true
}

// Cancel asks a running job to stop after its current file set.
func (m *Manager) Cancel(id string) bool {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	e.cancel()
	return true
}

// Wait blocks until the job finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("job not found: %s", id)
	}
	select {
	case <-e.done:
		job, _ := m.GetJob(id)
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// processJob handles the actual async processing.
func (m *Manager) processJob(ctx context.Context, e *entry) {
	defer m.wg.Done()
	defer close(e.done)
	defer e.cancel()

	logger := m.logger.With(zap.String("job_id", e.job.ID))
	logger.Info("starting ingestion job", zap.Int("files", len(e.fileIDs)))
	m.updateJob(e, func(j *Job) { j.Status = StatusRunning })

	files := make([]models.RawFile, 0, len(e.fileIDs))
	for _, id := range e.fileIDs {
		raw, err := m.spool.RawFile(id)
		if err != nil {
			m.markJobError(e, fmt.Sprintf("failed to open spooled file: %v", err))
			m.releaseSpool(e, logger)
			return
		}
		files = append(files, raw)
	}

	res, err := m.runner.Ingest(ctx, files, func(p ingest.Progress) {
		m.updateJob(e, func(j *Job) {
			j.Done = p.Done
			j.Total = p.Total
			j.Current = p.BaseName
			j.Progress = p.Fraction * 100
		})
	})

	m.releaseSpool(e, logger)

	switch {
	case res == nil:
		m.markJobError(e, fmt.Sprintf("ingestion failed: %v", err))
	case errors.Is(err, context.Canceled):
		m.finish(e, res, StatusCanceled)
		logger.Info("ingestion job canceled", zap.Int("done", res.Report.Attempted+res.Report.Skipped))
	default:
		m.finish(e, res, StatusComplete)
		logger.Info("ingestion job complete",
			zap.Int("succeeded", res.Report.Succeeded),
			zap.Int("failed", res.Report.Failed),
			zap.Int("auto_saved", res.Report.AutoSaved))
	}
}

// releaseSpool deletes the job's spooled payloads. Read-and-release is per
// run: nothing outlives the job on disk.
func (m *Manager) releaseSpool(e *entry, logger *zap.Logger) {
	for _, id := range e.fileIDs {
		_ = m.spool.SetStatus(id, models.FileStatusIngested)
		if err := m.spool.Delete(id); err != nil {
			logger.Warn("failed to remove spooled file", zap.String("file_id", id), zap.Error(err))
		}
	}
}

// updateJob mutates a job under the lock (thread-safe).
func (m *Manager) updateJob(e *entry, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(e.job)
}

// finish stores the result and marks the job terminal (thread-safe).
func (m *Manager) finish(e *entry, res *ingest.Result, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := res.Report
	e.result = res
	e.job.Report = &report
	e.job.Status = status
	e.job.Current = ""
	if status == StatusComplete {
		e.job.Progress = 100
	}
	now := time.Now()
	e.job.CompletedAt = &now
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(e *entry, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.job.Status = StatusError
	e.job.Error = errMsg
	now := time.Now()
	e.job.CompletedAt = &now
	m.logger.Error("ingestion job failed", zap.String("job_id", e.job.ID), zap.String("error", errMsg))
}

// CleanupOldJobs removes finished jobs older than the specified duration.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, e := range m.jobs {
		if e.job.Status.Finished() && e.job.CompletedAt != nil && e.job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps finished jobs every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupOldJobs(maxAge); n > 0 {
				m.logger.Debug("removed finished jobs", zap.Int("count", n))
			}
		}
	}
}

// Shutdown cancels running jobs and waits for them, or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	for _, e := range m.jobs {
		e.cancel()
	}
	m.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
