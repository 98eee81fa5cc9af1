// handlers_ingest.go - Batch ingestion handlers
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dild26/caffeine-projects-sub001/internal/fileset"
	"github.com/dild26/caffeine-projects-sub001/internal/jobs"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const mimeMsgpack = "application/msgpack"

// IngestHandlerImpl implements the IngestHandler interface
type IngestHandlerImpl struct {
	spool    storage.Spool
	jobs     JobManager
	maxFiles int
}

// NewIngestHandler creates a new ingest handler. maxFiles <= 0 disables the
// per-batch limit.
func NewIngestHandler(spool storage.Spool, jobMgr JobManager, maxFiles int) IngestHandler {
	return &IngestHandlerImpl{
		spool:    spool,
		jobs:     jobMgr,
		maxFiles: maxFiles,
	}
}

// HandleIngestMultipart accepts a batch as multipart/form-data under the
// "files" field and starts an ingestion job
func (h *IngestHandlerImpl) HandleIngestMultipart(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return NewValidationError("files")
	}
	if err := h.checkLimit(len(files)); err != nil {
		return err
	}

	ids := make([]string, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			h.release(ids)
			return NewInternalError("failed to open uploaded file", err)
		}
		info, err := h.spool.Save(fh.Filename, src)
		src.Close()
		if err != nil {
			h.release(ids)
			return NewInternalError("failed to save file", err)
		}
		ids = append(ids, info.ID)
	}

	return h.start(c, ids)
}

// HandleIngestJSON accepts a batch of base64 encoded files as JSON and
// starts an ingestion job
func (h *IngestHandlerImpl) HandleIngestJSON(c echo.Context) error {
	var req ingestJSONRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if err := h.checkLimit(len(req.Files)); err != nil {
		return err
	}

	payloads := make([][]byte, len(req.Files))
	for i, f := range req.Files {
		decoded, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("invalid base64 data for %s", f.Name), err)
		}
		payloads[i] = decoded
	}

	ids := make([]string, 0, len(req.Files))
	for i, f := range req.Files {
		info, err := h.spool.Save(f.Name, bytes.NewReader(payloads[i]))
		if err != nil {
			h.release(ids)
			return NewInternalError("failed to save file", err)
		}
		ids = append(ids, info.ID)
	}

	return h.start(c, ids)
}

// HandleJobStatus returns a snapshot of an ingestion job
func (h *IngestHandlerImpl) HandleJobStatus(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	return respond(c, http.StatusOK, job)
}

// HandleJobProgressStream streams job progress via SSE
func (h *IngestHandlerImpl) HandleJobProgressStream(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	job, ok := h.jobs.GetJob(id)
	if !ok {
		sendSSEError(c, "job not found")
		return nil
	}
	sendSSEData(c, job)
	if job.Status.Finished() {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			job, ok := h.jobs.GetJob(id)
			if !ok {
				sendSSEError(c, "job not found")
				return nil
			}
			sendSSEData(c, job)
			if job.Status.Finished() {
				return nil
			}
		case <-timeout.C:
			sendSSEError(c, "stream timeout")
			return nil
		}
	}
}

// HandleJobFileSets returns the file sets of a finished job. The optional
// status query parameter filters by FileSet status.
func (h *IngestHandlerImpl) HandleJobFileSets(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	if _, ok := h.jobs.GetJob(id); !ok {
		return NewNotFoundError("job", id)
	}
	res, ok := h.jobs.Result(id)
	if !ok {
		return NewConflictError("job has not finished")
	}

	status := models.Status(c.QueryParam("status"))
	sets := make([]*models.FileSet, 0, len(res.FileSets))
	for _, set := range res.FileSets {
		if status == "" || set.Status == status {
			sets = append(sets, set)
		}
	}

	unmatched := res.UnmatchedImages()
	images := make([]string, 0, len(unmatched))
	for _, set := range unmatched {
		images = append(images, set.ImageFile.Name)
	}

	return respond(c, http.StatusOK, fileSetsResponse{
		JobID:           id,
		Report:          res.Report,
		FileSets:        sets,
		Rejected:        res.Rejected,
		Anomalies:       res.Anomalies,
		UnmatchedImages: images,
	})
}

// HandleCancelJob asks a running job to stop after its current file set
func (h *IngestHandlerImpl) HandleCancelJob(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	if job.Status.Finished() {
		return NewConflictError("job already finished")
	}
	h.jobs.Cancel(id)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"jobId":  id,
		"status": "canceling",
	})
}

func (h *IngestHandlerImpl) checkLimit(n int) error {
	if h.maxFiles > 0 && n > h.maxFiles {
		return NewTooManyFilesError(n, h.maxFiles)
	}
	return nil
}

func (h *IngestHandlerImpl) start(c echo.Context, ids []string) error {
	job, err := h.jobs.StartJob(ids)
	if err != nil {
		h.release(ids)
		return NewInternalError("failed to start ingestion", err)
	}

	return c.JSON(http.StatusAccepted, jobStartedResponse{
		JobID:  job.ID,
		Status: job.Status,
		Files:  job.Files,
	})
}

// release drops spooled payloads of a batch that never started.
func (h *IngestHandlerImpl) release(ids []string) {
	for _, id := range ids {
		_ = h.spool.Delete(id)
	}
}

// respond encodes v as MessagePack when the client asks for it, JSON
// otherwise.
func respond(c echo.Context, status int, v interface{}) error {
	if !wantsMsgpack(c) {
		return c.JSON(status, v)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, mimeMsgpack, data)
}

func wantsMsgpack(c echo.Context) bool {
	return c.QueryParam("format") == "msgpack" ||
		strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack)
}

func sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func sendSSEError(c echo.Context, message string) {
	sendSSEData(c, map[string]string{"error": message})
}

// Request/response types

type uploadFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded content
}

type ingestJSONRequest struct {
	Files []uploadFileRequest `json:"files"`
}

func (r *ingestJSONRequest) validate() error {
	if len(r.Files) == 0 {
		return NewValidationError("files")
	}
	for i := range r.Files {
		if strings.TrimSpace(r.Files[i].Name) == "" {
			return NewValidationError(fmt.Sprintf("files[%d].name", i))
		}
	}
	return nil
}

type jobStartedResponse struct {
	JobID  string      `json:"jobId"`
	Status jobs.Status `json:"status"`
	Files  []string    `json:"files"`
}

type fileSetsResponse struct {
	JobID           string                `json:"jobId" msgpack:"jobId"`
	Report          models.BatchReport    `json:"report" msgpack:"report"`
	FileSets        []*models.FileSet     `json:"fileSets" msgpack:"fileSets"`
	Rejected        []models.RejectedFile `json:"rejected,omitempty" msgpack:"rejected,omitempty"`
	Anomalies       []fileset.Anomaly     `json:"anomalies,omitempty" msgpack:"anomalies,omitempty"`
	UnmatchedImages []string              `json:"unmatchedImages,omitempty" msgpack:"unmatchedImages,omitempty"`
}
