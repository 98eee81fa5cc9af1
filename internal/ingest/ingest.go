// Package ingest drives one sequential pass over a batch of uploaded files:
// matching, duplicate suppression, recovery parsing, flattening and the
// best-effort auto-save sequence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dild26/caffeine-projects-sub001/internal/digest"
	"github.com/dild26/caffeine-projects-sub001/internal/fileset"
	"github.com/dild26/caffeine-projects-sub001/internal/metrics"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/parser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults applied when Options leaves a limit at zero.
const (
	DefaultCategory         = "imported"
	DefaultContextLimit     = 500
	DefaultDescriptionLimit = 500
)

// Options configures an Ingester. Reporter and Archive are optional.
type Options struct {
	Logger           *zap.Logger
	Reporter         ErrorReporter
	Archive          Archive
	Recoverer        *parser.Recoverer
	DefaultCategory  string
	ContextLimit     int
	DescriptionLimit int
	Now              func() time.Time
}

// Progress is passed to the progress callback after each file set.
type Progress struct {
	Done     int
	Total    int
	Fraction float64
	BaseName string
}

// ProgressFunc observes a run. It is called from the ingesting goroutine.
type ProgressFunc func(Progress)

// Result is the outcome of one run.
type Result struct {
	FileSets  []*models.FileSet     `json:"fileSets" msgpack:"fileSets"`
	Report    models.BatchReport    `json:"report" msgpack:"report"`
	Rejected  []models.RejectedFile `json:"rejected,omitempty" msgpack:"rejected,omitempty"`
	Anomalies []fileset.Anomaly     `json:"anomalies,omitempty" msgpack:"anomalies,omitempty"`
	// RejectionErr joins one error per rejected file, or is nil.
	RejectionErr error `json:"-" msgpack:"-"`
}

// UnmatchedImages returns the sets holding an image with no structured-data
// sibling, for the secondary image-handling path.
func (r *Result) UnmatchedImages() []*models.FileSet {
	var out []*models.FileSet
	for _, set := range r.FileSets {
		if set.HasUnmatchedImage() {
			out = append(out, set)
		}
	}
	return out
}

// Ingester runs batches against one store. A single Ingester may serve
// concurrent runs; per-run state lives in Ingest.
type Ingester struct {
	store     Store
	reporter  ErrorReporter
	archive   Archive
	recoverer *parser.Recoverer
	matcher   *fileset.Matcher
	logger    *zap.Logger
	now       func() time.Time

	defaultCategory  string
	contextLimit     int
	descriptionLimit int
}

// New creates an Ingester writing to store.
func New(store Store, opts Options) *Ingester {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &Ingester{
		store:            store,
		reporter:         opts.Reporter,
		archive:          opts.Archive,
		recoverer:        opts.Recoverer,
		matcher:          fileset.NewMatcher(logger.Named("matcher")),
		logger:           logger.Named("ingest"),
		now:              opts.Now,
		defaultCategory:  opts.DefaultCategory,
		contextLimit:     opts.ContextLimit,
		descriptionLimit: opts.DescriptionLimit,
	}
	if in.recoverer == nil {
		in.recoverer = parser.NewRecoverer()
	}
	if in.now == nil {
		in.now = time.Now
	}
	if in.defaultCategory == "" {
		in.defaultCategory = DefaultCategory
	}
	if in.contextLimit <= 0 {
		in.contextLimit = DefaultContextLimit
	}
	if in.descriptionLimit <= 0 {
		in.descriptionLimit = DefaultDescriptionLimit
	}
	return in
}

// run holds the state of one Ingest call.
type run struct {
	id     string
	seen   digest.Seen
	report *models.BatchReport
}

// Ingest matches files into sets and processes them in first-seen order.
// File-scoped failures never abort the batch. The only error returned is
// ctx.Err() when the run was canceled between sets; the partial result is
// returned with it.
func (in *Ingester) Ingest(ctx context.Context, files []models.RawFile, onProgress ProgressFunc) (*Result, error) {
	r := &run{
		id:   uuid.NewString(),
		seen: make(digest.Seen),
	}
	matched := in.matcher.Match(files)
	res := &Result{
		FileSets:  matched.Sets,
		Rejected:  matched.Rejected,
		Anomalies: matched.Anomalies,
		Report: models.BatchReport{
			RunID:           r.id,
			StartedAt:       in.now(),
			UnmatchedImages: matched.Summary.UnmatchedImages,
			Unsupported:     len(matched.Rejected),
		},
	}
	r.report = &res.Report
	metrics.IncreaseBatchesTotal()

	logger := in.logger.With(zap.String("run_id", r.id))
	logger.Info("ingestion started", zap.Int("files", len(files)), zap.Int("sets", len(res.FileSets)))

	res.RejectionErr = in.reportRejected(ctx, matched.Rejected)

	total := len(res.FileSets)
	var runErr error
	for i, set := range res.FileSets {
		if err := ctx.Err(); err != nil {
			res.Report.Canceled = true
			runErr = err
			logger.Warn("ingestion canceled", zap.Int("done", i), zap.Int("total", total))
			break
		}

		in.visit(ctx, r, set)

		if onProgress != nil {
			onProgress(Progress{
				Done:     i + 1,
				Total:    total,
				Fraction: float64(i+1) / float64(total),
				BaseName: set.BaseName,
			})
		}
	}

	res.Report.FinishedAt = in.now()
	logger.Info("ingestion finished",
		zap.Int("attempted", res.Report.Attempted),
		zap.Int("succeeded", res.Report.Succeeded),
		zap.Int("recovered", res.Report.Recovered),
		zap.Int("auto_saved", res.Report.AutoSaved),
		zap.Int("failed", res.Report.Failed),
		zap.Int("duplicates", res.Report.Duplicates),
		zap.Int("skipped", res.Report.Skipped),
		zap.Bool("canceled", res.Report.Canceled))
	return res, runErr
}

// visit processes one set and tallies its outcome.
func (in *Ingester) visit(ctx context.Context, r *run, set *models.FileSet) {
	if set.JSONFile == nil {
		r.report.Skipped++
		metrics.IncreaseFileSetsTotal("skipped")
		return
	}

	r.report.Attempted++
	err := in.process(ctx, r, set)
	switch {
	case err == nil:
		r.report.Succeeded++
		if set.Recovered {
			r.report.Recovered++
		}
		if set.AutoSaved {
			r.report.AutoSaved++
		}
	case errors.Is(err, ErrDuplicate):
		r.report.Duplicates++
		r.report.Failed++
	default:
		r.report.Failed++
	}
	metrics.IncreaseFileSetsTotal(string(set.Status))
}

// process runs one structured-data set to a terminal status. The returned
// error is file-scoped; a panic is converted into one.
func (in *Ingester) process(ctx context.Context, r *run, set *models.FileSet) (err error) {
	name := set.JSONFile.Name
	logger := in.logger.With(zap.String("run_id", r.id), zap.String("file", name))

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while processing %s: %v", name, p)
			set.MarkError(err.Error())
			logger.Error("recovered panic", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			in.reportError(ctx, models.ErrorReport{
				Message:   err.Error(),
				ErrorKind: KindInternal,
			})
		}
	}()

	set.Status = models.StatusProcessing

	data, err := set.JSONFile.ReadAll()
	if err != nil {
		err = fmt.Errorf("reading %s: %w", name, err)
		set.MarkError(err.Error())
		in.reportError(ctx, models.ErrorReport{Message: err.Error(), ErrorKind: KindReadError})
		return err
	}

	set.ContentHash = digest.Bytes(data)
	if !r.seen.Add(set.ContentHash) {
		set.MarkError(ErrDuplicate.Error())
		logger.Info("duplicate content", zap.String("hash", set.ContentHash))
		in.reportError(ctx, models.ErrorReport{
			Message:     fmt.Sprintf("%s: %s", name, ErrDuplicate),
			FileContext: set.ContentHash,
			ErrorKind:   KindDuplicate,
		})
		return ErrDuplicate
	}

	content := string(data)
	out := in.recoverer.Recover(content)
	if !out.OK() {
		return in.fail(ctx, r, set, out, data)
	}
	if out.State == parser.StateRecovered {
		set.Recovered = true
		set.Heuristics = out.Effective
		for _, h := range out.Effective {
			metrics.IncreaseRecoveriesTotal(h)
		}
		logger.Info("recovered malformed payload",
			zap.String("class", string(out.Class)),
			zap.Strings("heuristics", out.Effective))
		in.reportError(ctx, models.ErrorReport{
			Message:      fmt.Sprintf("%s recovered: %v", name, out.Err),
			FileContext:  truncate(content, in.contextLimit),
			ErrorKind:    recoveredPrefix + string(out.Class),
			SuggestedFix: strings.Join(out.Effective, ", "),
		})
	}

	set.Fields = parser.Flatten(out.Value)
	description := in.readText(set, logger)
	set.Status = models.StatusCompleted

	rec := models.ProcessedFileRecord{
		Filename:    name,
		Content:     content,
		ContentHash: set.ContentHash,
		Fields:      set.Fields,
		Status:      models.RecordStatusSuccess,
		CreatedAt:   in.now(),
	}
	if perr := in.autoSave(ctx, set, out.Value, rec, description); perr != nil {
		metrics.IncreaseAutoSaveFailuresTotal(perr.Step)
		logger.Warn("auto-save failed",
			zap.String("step", perr.Step),
			zap.Error(perr.Err))
		return nil
	}
	set.AutoSaved = true
	return nil
}

// fail records an unrecoverable payload. The original bytes are kept on the
// set and, when an archive is configured, preserved there.
func (in *Ingester) fail(ctx context.Context, r *run, set *models.FileSet, out *parser.Outcome, data []byte) error {
	err := out.Error()
	set.OriginalContent = out.Original
	set.MarkError(err.Error())

	if in.archive != nil {
		key, aerr := in.archive.Preserve(ctx, r.id+"/"+set.JSONFile.Name, data)
		if aerr != nil {
			in.logger.Warn("preserving original payload failed",
				zap.String("file", set.JSONFile.Name), zap.Error(aerr))
		} else {
			set.ArchivedAs = key
		}
	}

	suggested := ""
	if len(out.Applied) > 0 {
		suggested = "manual review; attempted: " + strings.Join(out.Applied, ", ")
	}
	in.reportError(ctx, models.ErrorReport{
		Message:      fmt.Sprintf("%s: %v", set.JSONFile.Name, err),
		FileContext:  truncate(out.Original, in.contextLimit),
		ErrorKind:    string(out.Class),
		SuggestedFix: suggested,
	})
	return err
}

// readText flattens the companion text file and returns the catalog
// description. A text read failure only costs the description.
func (in *Ingester) readText(set *models.FileSet, logger *zap.Logger) string {
	if set.TextFile == nil {
		return ""
	}
	data, err := set.TextFile.ReadAll()
	if err != nil {
		logger.Warn("reading companion text failed", zap.String("text_file", set.TextFile.Name), zap.Error(err))
		return ""
	}
	text := string(data)
	set.TextFields = parser.FlattenText(text)
	return truncate(strings.TrimSpace(text), in.descriptionLimit)
}

// autoSave submits the record, then the template, then the catalog entry.
// It stops at the first failing step. A panicking store is a failure of
// that step, never of the file.
func (in *Ingester) autoSave(ctx context.Context, set *models.FileSet, v parser.Value, rec models.ProcessedFileRecord, description string) *PersistenceError {
	if perr := saveStep(StepProcessedFile, func() error {
		return in.store.SubmitProcessedFile(ctx, rec)
	}); perr != nil {
		return perr
	}

	tmpl := deriveTemplate(set, v, in.defaultCategory)
	if perr := saveStep(StepTemplate, func() error {
		return in.store.SubmitTemplate(ctx, tmpl)
	}); perr != nil {
		return perr
	}

	entry := deriveCatalogEntry(set, v, tmpl, description)
	return saveStep(StepCatalogEntry, func() error {
		return in.store.SubmitCatalogEntry(ctx, entry)
	})
}

// saveStep runs one auto-save call and converts an error or panic into a
// *PersistenceError for step.
func saveStep(step string, submit func() error) (perr *PersistenceError) {
	defer func() {
		if p := recover(); p != nil {
			perr = &PersistenceError{Step: step, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := submit(); err != nil {
		return &PersistenceError{Step: step, Err: err}
	}
	return nil
}

// reportRejected emits one unsupported-input report for the whole batch.
func (in *Ingester) reportRejected(ctx context.Context, rejected []models.RejectedFile) error {
	if len(rejected) == 0 {
		return nil
	}
	errs := make([]error, 0, len(rejected))
	names := make([]string, 0, len(rejected))
	for _, rj := range rejected {
		metrics.IncreaseRejectedFilesTotal(rj.Reason)
		sentinel := ErrUnsupportedType
		if rj.Kind == models.KindArchive {
			sentinel = ErrUnsupportedArchive
		}
		errs = append(errs, fmt.Errorf("%s: %w", rj.Name, sentinel))
		names = append(names, rj.Name)
	}
	joined := errors.Join(errs...)

	in.logger.Warn("rejected unsupported files", zap.Strings("files", names))
	in.reportError(ctx, models.ErrorReport{
		Message:     joined.Error(),
		FileContext: strings.Join(names, "\n"),
		ErrorKind:   KindUnsupportedInput,
	})
	return joined
}

// reportError forwards to the error-log sink. Nothing it does can fail the run.
func (in *Ingester) reportError(ctx context.Context, report models.ErrorReport) {
	if in.reporter == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			in.logger.Debug("error reporter panicked", zap.Any("panic", p))
		}
	}()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = in.now()
	}
	if err := in.reporter.ReportError(ctx, report); err != nil {
		in.logger.Debug("error report dropped", zap.String("kind", report.ErrorKind), zap.Error(err))
	}
}
