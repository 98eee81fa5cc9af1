package api

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/jobs"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/stretchr/testify/require"
)

// fakeJobs is an in-memory JobManager.
type fakeJobs struct {
	mu       sync.Mutex
	spool    storage.Spool
	jobs     map[string]jobs.Job
	results  map[string]*ingest.Result
	started  [][]string
	canceled []string
	startErr error
}

func newFakeJobs(spool storage.Spool) *fakeJobs {
	return &fakeJobs{
		spool:   spool,
		jobs:    make(map[string]jobs.Job),
		results: make(map[string]*ingest.Result),
	}
}

func (f *fakeJobs) StartJob(fileIDs []string) (jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return jobs.Job{}, f.startErr
	}
	job := jobs.Job{ID: "job-1", Status: jobs.StatusQueued}
	for _, id := range fileIDs {
		info, err := f.spool.Get(id)
		if err != nil {
			return jobs.Job{}, err
		}
		job.Files = append(job.Files, info.Name)
	}
	f.jobs[job.ID] = job
	f.started = append(f.started, fileIDs)
	return job, nil
}

func (f *fakeJobs) GetJob(id string) (jobs.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	return job, ok
}

func (f *fakeJobs) Result(id string) (*ingest.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[id]
	return res, ok
}

func (f *fakeJobs) Cancel(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return false
	}
	f.canceled = append(f.canceled, id)
	return true
}

func (f *fakeJobs) put(job jobs.Job, res *ingest.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	if res != nil {
		f.results[job.ID] = res
	}
}

type stubStats struct {
	stats storage.Stats
	err   error
}

func (s stubStats) Stats(context.Context) (storage.Stats, error) {
	return s.stats, s.err
}

var errStats = errors.New("store offline")

func newSpool(t *testing.T) *storage.LocalStore {
	t.Helper()
	spool, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return spool
}

func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	require.Equal(t, status, apiErr.Status)
	require.Equal(t, code, apiErr.Code)
}
