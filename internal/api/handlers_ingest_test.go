package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/jobs"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestIngestHandler_HandleIngestJSON(t *testing.T) {
	tests := []struct {
		name       string
		request    ingestJSONRequest
		maxFiles   int
		wantStatus int
		errCode    string
	}{
		{
			name: "valid batch",
			request: ingestJSONRequest{Files: []uploadFileRequest{
				{Name: "a.json", Data: b64(`{"title":"A"}`)},
				{Name: "a.txt", Data: b64("notes")},
			}},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "empty file is accepted",
			request: ingestJSONRequest{Files: []uploadFileRequest{
				{Name: "empty.json", Data: ""},
			}},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "no files",
			request:    ingestJSONRequest{},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "blank name",
			request: ingestJSONRequest{Files: []uploadFileRequest{
				{Name: "  ", Data: b64("{}")},
			}},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "invalid base64",
			request: ingestJSONRequest{Files: []uploadFileRequest{
				{Name: "a.json", Data: "not-valid-base64!!!"},
			}},
			wantStatus: http.StatusBadRequest,
			errCode:    "BAD_REQUEST",
		},
		{
			name: "too many files",
			request: ingestJSONRequest{Files: []uploadFileRequest{
				{Name: "a.json", Data: b64("{}")},
				{Name: "b.json", Data: b64("{}")},
			}},
			maxFiles:   1,
			wantStatus: http.StatusRequestEntityTooLarge,
			errCode:    "TOO_MANY_FILES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spool := newSpool(t)
			jobMgr := newFakeJobs(spool)
			handler := NewIngestHandler(spool, jobMgr, tt.maxFiles)

			e := echo.New()
			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/api/ingest/json", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleIngestJSON(c)

			if tt.errCode != "" {
				assertAPIError(t, err, tt.wantStatus, tt.errCode)
				assert.Empty(t, jobMgr.started)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp jobStartedResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "job-1", resp.JobID)
			assert.Equal(t, jobs.StatusQueued, resp.Status)
			require.Len(t, jobMgr.started, 1)
			assert.Len(t, jobMgr.started[0], len(tt.request.Files))
			for i, f := range tt.request.Files {
				assert.Equal(t, f.Name, resp.Files[i])
			}
		})
	}
}

func TestIngestHandler_StartFailureReleasesSpool(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)
	jobMgr.startErr = errors.New("manager closed")
	handler := NewIngestHandler(spool, jobMgr, 0)

	e := echo.New()
	body, _ := json.Marshal(ingestJSONRequest{Files: []uploadFileRequest{{Name: "a.json", Data: b64("{}")}}})
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/json", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	assertAPIError(t, handler.HandleIngestJSON(c), http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestIngestHandler_HandleIngestMultipart(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)
	handler := NewIngestHandler(spool, jobMgr, 0)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("files", "one.json")
	part.Write([]byte(`{"a":1}`))
	part, _ = writer.CreateFormFile("files", "one.png")
	part.Write([]byte{0x89, 'P', 'N', 'G'})
	writer.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.HandleIngestMultipart(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, jobMgr.started, 1)
	require.Len(t, jobMgr.started[0], 2)

	info, err := spool.Get(jobMgr.started[0][1])
	require.NoError(t, err)
	assert.Equal(t, "one.png", info.Name)
	assert.Equal(t, int64(4), info.Size)
}

func TestIngestHandler_HandleIngestMultipartErrors(t *testing.T) {
	t.Run("not multipart", func(t *testing.T) {
		spool := newSpool(t)
		handler := NewIngestHandler(spool, newFakeJobs(spool), 0)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", bytes.NewReader([]byte("{}")))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c := e.NewContext(req, httptest.NewRecorder())

		assertAPIError(t, handler.HandleIngestMultipart(c), http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("no files field", func(t *testing.T) {
		spool := newSpool(t)
		handler := NewIngestHandler(spool, newFakeJobs(spool), 0)
		body := new(bytes.Buffer)
		writer := multipart.NewWriter(body)
		writer.WriteField("note", "x")
		writer.Close()

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
		req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
		c := e.NewContext(req, httptest.NewRecorder())

		assertAPIError(t, handler.HandleIngestMultipart(c), http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestIngestHandler_HandleJobStatus(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)
	jobMgr.put(jobs.Job{ID: "j1", Status: jobs.StatusRunning, Progress: 50, Done: 1, Total: 2, CreatedAt: time.Now()}, nil)
	handler := NewIngestHandler(spool, jobMgr, 0)
	e := echo.New()

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ingest/j1", nil), rec)
		c.SetParamNames("jobId")
		c.SetParamValues("j1")

		require.NoError(t, handler.HandleJobStatus(c))
		var job jobs.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, jobs.StatusRunning, job.Status)
		assert.Equal(t, 50.0, job.Progress)
	})

	t.Run("msgpack", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/ingest/j1", nil)
		req.Header.Set(echo.HeaderAccept, mimeMsgpack)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("jobId")
		c.SetParamValues("j1")

		require.NoError(t, handler.HandleJobStatus(c))
		assert.Equal(t, mimeMsgpack, rec.Header().Get(echo.HeaderContentType))
		var job jobs.Job
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, "j1", job.ID)
		assert.Equal(t, 1, job.Done)
	})

	t.Run("not found", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ingest/zz", nil), httptest.NewRecorder())
		c.SetParamNames("jobId")
		c.SetParamValues("zz")

		assertAPIError(t, handler.HandleJobStatus(c), http.StatusNotFound, "NOT_FOUND")
	})
}

func TestIngestHandler_HandleJobFileSets(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)

	ok := models.NewFileSet("alpha")
	ok.Status = models.StatusCompleted
	bad := models.NewFileSet("beta")
	bad.MarkError("invalid structured data")
	img := models.NewFileSet("gamma")
	img.Attach(models.KindImage, models.NewBytesFile("gamma.png", []byte{1}))

	jobMgr.put(jobs.Job{ID: "done", Status: jobs.StatusComplete}, &ingest.Result{
		FileSets: []*models.FileSet{ok, bad, img},
		Report:   models.BatchReport{Attempted: 2, Succeeded: 1, Failed: 1, Skipped: 1, UnmatchedImages: 1},
	})
	jobMgr.put(jobs.Job{ID: "busy", Status: jobs.StatusRunning}, nil)
	handler := NewIngestHandler(spool, jobMgr, 0)
	e := echo.New()

	call := func(id, query string) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ingest/"+id+"/filesets"+query, nil), rec)
		c.SetParamNames("jobId")
		c.SetParamValues(id)
		return rec, handler.HandleJobFileSets(c)
	}

	rec, err := call("done", "")
	require.NoError(t, err)
	var resp fileSetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.FileSets, 3)
	assert.Equal(t, 1, resp.Report.Failed)
	assert.Equal(t, []string{"gamma.png"}, resp.UnmatchedImages)

	rec, err = call("done", "?status=error")
	require.NoError(t, err)
	resp = fileSetsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.FileSets, 1)
	assert.Equal(t, "beta", resp.FileSets[0].BaseName)
	assert.Equal(t, "invalid structured data", resp.FileSets[0].ErrorMessage)

	_, err = call("busy", "")
	assertAPIError(t, err, http.StatusConflict, "CONFLICT")

	_, err = call("ghost", "")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestIngestHandler_HandleCancelJob(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)
	jobMgr.put(jobs.Job{ID: "run", Status: jobs.StatusRunning}, nil)
	jobMgr.put(jobs.Job{ID: "fin", Status: jobs.StatusComplete}, nil)
	handler := NewIngestHandler(spool, jobMgr, 0)
	e := echo.New()

	call := func(id string) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/ingest/"+id, nil), rec)
		c.SetParamNames("jobId")
		c.SetParamValues(id)
		return rec, handler.HandleCancelJob(c)
	}

	rec, err := call("run")
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"run"}, jobMgr.canceled)

	_, err = call("fin")
	assertAPIError(t, err, http.StatusConflict, "CONFLICT")

	_, err = call("nope")
	assertAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestIngestHandler_HandleJobProgressStream(t *testing.T) {
	spool := newSpool(t)
	jobMgr := newFakeJobs(spool)
	jobMgr.put(jobs.Job{ID: "fin", Status: jobs.StatusComplete, Progress: 100}, nil)
	handler := NewIngestHandler(spool, jobMgr, 0)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ingest/fin/progress", nil), rec)
	c.SetParamNames("jobId")
	c.SetParamValues("fin")

	require.NoError(t, handler.HandleJobProgressStream(c))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `data: {"id":"fin"`)
	assert.Contains(t, rec.Body.String(), `"status":"complete"`)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ingest/x/progress", nil), rec)
	c.SetParamNames("jobId")
	c.SetParamValues("x")
	require.NoError(t, handler.HandleJobProgressStream(c))
	assert.Contains(t, rec.Body.String(), "job not found")
}
