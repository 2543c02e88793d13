package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"business-directory-backend/audit"
	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrJobFinished = errors.New("import job has already finished")

// ImportJobRepository persists import jobs. The orchestrator is stateless
// between saves; the job row is the single source of truth.
type ImportJobRepository interface {
	CreateImportJob(job *models.ImportJob) error
	UpdateImportJob(job *models.ImportJob) error
	GetImportJobByID(id uuid.UUID) (*models.ImportJob, error)
	GetAllImportJobs() ([]models.ImportJob, error)
}

// BusinessStore is the slice of the record store the pipeline writes through.
type BusinessStore interface {
	BusinessMatcherStore
	CreateBusiness(b *models.Business) error
}

// CancellationStore carries the cooperative cancel flag. Checked between
// batches only; a row mid-batch is always allowed to finish.
type CancellationStore interface {
	RequestCancel(ctx context.Context, jobID uuid.UUID) error
	IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error)
	ClearCancel(ctx context.Context, jobID uuid.UUID) error
}

// ProgressBroadcaster pushes job snapshots to connected operator dashboards.
type ProgressBroadcaster interface {
	BroadcastJobProgress(job *models.ImportJob)
}

// BusinessIndexer adds accepted businesses to the search index after their
// batch is committed. Indexing failures never fail the import.
type BusinessIndexer interface {
	IndexSingleBusiness(b models.Business) error
}

// ReportSender delivers the post-run error report to the job creator.
type ReportSender interface {
	SendImportReport(job *models.ImportJob, rowErrors []models.ImportRowError, duplicates []models.ImportRowDuplicate)
}

// ImportOrchestrator owns the end-to-end lifecycle of import jobs. Each
// submitted job is processed by a detached goroutine; the submitting call
// returns immediately with the job id.
type ImportOrchestrator struct {
	jobs     ImportJobRepository
	store    BusinessStore
	cancels  CancellationStore
	mapper   *FieldMapper
	hub      ProgressBroadcaster
	indexer  BusinessIndexer
	reporter ReportSender
	auditor  audit.Sink
	logger   *zap.Logger
}

func NewImportOrchestrator(
	jobs ImportJobRepository,
	store BusinessStore,
	cancels CancellationStore,
	logger *zap.Logger,
) *ImportOrchestrator {
	return &ImportOrchestrator{
		jobs:    jobs,
		store:   store,
		cancels: cancels,
		mapper:  NewFieldMapper(),
		auditor: audit.NopSink{},
		logger:  logger,
	}
}

// Optional collaborators. Nil-safe: the orchestrator works without them.

func (o *ImportOrchestrator) WithBroadcaster(hub ProgressBroadcaster) *ImportOrchestrator {
	o.hub = hub
	return o
}

func (o *ImportOrchestrator) WithIndexer(indexer BusinessIndexer) *ImportOrchestrator {
	o.indexer = indexer
	return o
}

func (o *ImportOrchestrator) WithReporter(reporter ReportSender) *ImportOrchestrator {
	o.reporter = reporter
	return o
}

func (o *ImportOrchestrator) WithAuditSink(sink audit.Sink) *ImportOrchestrator {
	o.auditor = sink
	return o
}

// Submit validates the file, creates the job record and kicks off background
// processing. Preview-only submissions return the preview payload without
// creating a durable job. Input-level problems (empty or malformed file)
// surface here and no job is created.
func (o *ImportOrchestrator) Submit(filename string, data []byte, cfg ImportConfig, createdBy string) (*models.ImportJob, *models.ImportPreview, error) {
	cfg.Normalize()

	headers, rows, err := ParseImportFile(filename, data)
	if err != nil {
		return nil, nil, err
	}

	mapping, rationales := o.mapper.MapHeaders(headers, cfg.FieldMappingOverrides)
	preview := o.buildPreview(headers, rows, mapping, rationales, cfg)

	if cfg.PreviewOnly {
		return nil, preview, nil
	}

	job := &models.ImportJob{
		ID:         uuid.New(),
		SourceFile: filename,
		Status:     models.ImportJobPending,
		DryRun:     cfg.DryRun,
		TotalRows:  len(rows),
		Errors:     datatypes.JSON("[]"),
		Warnings:   datatypes.JSON("[]"),
		Duplicates: datatypes.JSON("[]"),
		CreatedBy:  createdBy,
	}
	if cfg.DryRun {
		if snapshot, err := json.Marshal(preview); err == nil {
			job.Preview = snapshot
		}
	}

	if err := o.jobs.CreateImportJob(job); err != nil {
		return nil, nil, fmt.Errorf("create import job: %w", err)
	}

	o.auditor.Record("import.submitted", &job.ID, createdBy, map[string]interface{}{
		"source_file": filename,
		"total_rows":  len(rows),
		"dry_run":     cfg.DryRun,
	})

	// The processing goroutine owns job from here on; hand the caller a
	// snapshot so the response is not read while the goroutine mutates it.
	snapshot := *job
	go o.process(job, headers, rows, mapping, cfg)

	if cfg.DryRun {
		return &snapshot, preview, nil
	}
	return &snapshot, nil, nil
}

// Cancel requests cooperative cancellation. The processing goroutine observes
// the flag at the next batch boundary.
func (o *ImportOrchestrator) Cancel(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.jobs.GetImportJobByID(jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobFinished
	}
	return o.cancels.RequestCancel(ctx, jobID)
}

// jobState accumulates row outcomes while a job is running. Flushed onto the
// job record after every batch.
type jobState struct {
	processed  int
	success    int
	errorRows  int
	warnRows   int
	dupRows    int
	errors     []models.ImportRowError
	warnings   []models.ImportRowError
	duplicates []models.ImportRowDuplicate
	accepted   []*models.Business
}

func (o *ImportOrchestrator) process(job *models.ImportJob, headers []string, rows [][]string, mapping map[string]string, cfg ImportConfig) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Import processing panicked",
				zap.String("job_id", job.ID.String()),
				zap.Any("panic", r),
			)
			state := &jobState{errors: []models.ImportRowError{{
				RowIndex: -1,
				Message:  fmt.Sprintf("Import aborted by an internal error: %v", r),
			}}}
			o.finalize(job, state, models.ImportJobFailed)
		}
	}()

	validator := NewRowValidator(cfg.StrictValidation, cfg.SkipValidation)
	validator.SetPhonePattern(cfg.PhonePattern)
	matcher := NewDuplicateMatcher(cfg.DedupeMode, o.store)

	now := time.Now()
	job.Status = models.ImportJobProcessing
	job.StartedAt = &now
	o.saveJob(job)
	o.broadcast(job)

	state := &jobState{}

	for start := 0; start < len(rows); start += cfg.BatchSize {
		cancelled, err := o.cancels.IsCancelRequested(ctx, job.ID)
		if err != nil {
			o.logger.Warn("Cancel flag check failed, continuing",
				zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		if cancelled {
			o.finalize(job, state, models.ImportJobCancelled)
			return
		}

		end := start + cfg.BatchSize
		if end > len(rows) {
			end = len(rows)
		}

		var createdThisBatch []models.Business
		for i, row := range rows[start:end] {
			rowIndex := start + i
			created, fatal := o.processRow(rowIndex, headers, row, mapping, validator, matcher, cfg, state)
			if fatal != nil {
				state.errors = append(state.errors, models.ImportRowError{
					RowIndex: -1,
					Message:  fmt.Sprintf("Import aborted: %v", fatal),
				})
				o.finalize(job, state, models.ImportJobFailed)
				return
			}
			if created != nil {
				createdThisBatch = append(createdThisBatch, *created)
			}

			if state.errorRows >= cfg.MaxErrors {
				state.errors = append(state.errors, models.ImportRowError{
					RowIndex: -1,
					Message:  fmt.Sprintf("Import stopped: error limit of %d reached", cfg.MaxErrors),
				})
				o.finalize(job, state, models.ImportJobFailed)
				return
			}
		}

		o.applyCounters(job, state)
		o.saveJob(job)
		o.broadcast(job)
		o.indexBatch(createdThisBatch)
	}

	o.finalize(job, state, models.ImportJobCompleted)
}

// processRow runs one row through map → validate → dedupe → persist. Returns
// the created business (nil when the row was rejected, skipped or dry-run)
// and a fatal error only for infrastructure failures that must abort the job.
func (o *ImportOrchestrator) processRow(
	rowIndex int,
	headers []string,
	row []string,
	mapping map[string]string,
	validator *RowValidator,
	matcher *DuplicateMatcher,
	cfg ImportConfig,
	state *jobState,
) (*models.Business, error) {
	state.processed++
	record := ApplyMapping(headers, row, mapping)

	result := validator.Validate(record)
	for _, w := range result.Warnings {
		state.warnings = append(state.warnings, models.ImportRowError{
			RowIndex: rowIndex,
			Field:    w.Field,
			Message:  w.Message,
			RowData:  record,
		})
	}
	if len(result.Warnings) > 0 {
		state.warnRows++
	}
	if !result.Valid() {
		for _, e := range result.Errors {
			state.errors = append(state.errors, models.ImportRowError{
				RowIndex: rowIndex,
				Field:    e.Field,
				Message:  e.Message,
				RowData:  record,
			})
		}
		state.errorRows++
		return nil, nil
	}

	match, err := matcher.Match(record, state.accepted)
	if err != nil {
		// Lookup failures mean the store is unavailable; that aborts the job.
		return nil, err
	}
	if match != nil {
		persisted := cfg.DedupeScope == ImportOnlyScope
		state.duplicates = append(state.duplicates, models.ImportRowDuplicate{
			RowIndex:   rowIndex,
			Reason:     match.Reason,
			MatchedID:  match.Matched.ID,
			Confidence: match.Confidence,
			Persisted:  persisted && !cfg.DryRun,
			RowData:    record,
		})
		state.dupRows++
		if !persisted {
			return nil, nil
		}
	}

	business := o.businessFromRecord(record)
	if !cfg.DryRun {
		if err := o.store.CreateBusiness(business); err != nil {
			state.errors = append(state.errors, models.ImportRowError{
				RowIndex: rowIndex,
				Message:  fmt.Sprintf("Failed to save row: %v", err),
				RowData:  record,
			})
			// A row already counted as a duplicate stays a duplicate; the
			// error entry records the failed write without double-counting
			// the row.
			if match == nil {
				state.errorRows++
			}
			return nil, nil
		}
	}

	state.accepted = append(state.accepted, business)
	if match == nil {
		state.success++
	}
	if cfg.DryRun {
		return nil, nil
	}
	return business, nil
}

func (o *ImportOrchestrator) businessFromRecord(record map[string]string) *models.Business {
	business := &models.Business{
		ID:             uuid.New(),
		Source:         models.ImportSource,
		ApprovalStatus: models.ApprovedApproval,
	}
	for field, value := range record {
		business.SetAttribute(field, value)
	}
	return business
}

func (o *ImportOrchestrator) applyCounters(job *models.ImportJob, state *jobState) {
	job.ProcessedRows = state.processed
	job.SuccessCount = state.success
	job.ErrorCount = state.errorRows
	job.WarningCount = state.warnRows
	job.DuplicateCount = state.dupRows
	if job.TotalRows > 0 {
		job.Progress = state.processed * 100 / job.TotalRows
	}

	if job.StartedAt != nil && state.processed > 0 {
		elapsed := time.Since(*job.StartedAt).Seconds()
		remaining := job.TotalRows - state.processed
		eta := int(elapsed / float64(state.processed) * float64(remaining))
		job.ETASeconds = &eta
	}

	job.Errors = marshalList(state.errors)
	job.Warnings = marshalList(state.warnings)
	job.Duplicates = marshalList(state.duplicates)
}

func (o *ImportOrchestrator) finalize(job *models.ImportJob, state *jobState, status models.ImportJobStatus) {
	ctx := context.Background()

	o.applyCounters(job, state)
	job.Status = status
	now := time.Now()
	job.CompletedAt = &now
	if status == models.ImportJobCompleted {
		job.Progress = 100
		zero := 0
		job.ETASeconds = &zero
	}
	o.saveJob(job)
	o.broadcast(job)

	if err := o.cancels.ClearCancel(ctx, job.ID); err != nil {
		o.logger.Debug("Failed to clear cancel flag", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	o.auditor.Record("import."+strings.ToLower(string(status)), &job.ID, job.CreatedBy, map[string]interface{}{
		"processed_rows":  job.ProcessedRows,
		"success_count":   job.SuccessCount,
		"error_count":     job.ErrorCount,
		"duplicate_count": job.DuplicateCount,
	})

	if o.reporter != nil && (len(state.errors) > 0 || len(state.duplicates) > 0) {
		o.reporter.SendImportReport(job, state.errors, state.duplicates)
	}

	o.logger.Info("Import job finished",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(status)),
		zap.Int("processed", job.ProcessedRows),
		zap.Int("success", job.SuccessCount),
		zap.Int("errors", job.ErrorCount),
		zap.Int("duplicates", job.DuplicateCount),
	)
}

func (o *ImportOrchestrator) saveJob(job *models.ImportJob) {
	if err := o.jobs.UpdateImportJob(job); err != nil {
		o.logger.Error("Failed to save import job",
			zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

func (o *ImportOrchestrator) broadcast(job *models.ImportJob) {
	if o.hub != nil {
		o.hub.BroadcastJobProgress(job)
	}
}

func (o *ImportOrchestrator) indexBatch(created []models.Business) {
	if o.indexer == nil {
		return
	}
	for _, b := range created {
		if err := o.indexer.IndexSingleBusiness(b); err != nil {
			o.logger.Warn("Failed to index business",
				zap.String("business_id", b.ID.String()), zap.Error(err))
		}
	}
}

func marshalList(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}
