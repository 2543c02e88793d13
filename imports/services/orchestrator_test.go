package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"business-directory-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- in-memory fakes ----

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]models.ImportJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]models.ImportJob)}
}

func (r *fakeJobRepo) CreateImportJob(job *models.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeJobRepo) UpdateImportJob(job *models.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeJobRepo) GetImportJobByID(id uuid.UUID) (*models.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	copied := job
	return &copied, nil
}

func (r *fakeJobRepo) GetAllImportJobs() ([]models.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ImportJob
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out, nil
}

type fakeBusinessStore struct {
	mu        sync.Mutex
	seeded    []models.Business
	created   []models.Business
	lookupErr error
	createErr error
}

func (s *fakeBusinessStore) all() []models.Business {
	out := append([]models.Business{}, s.seeded...)
	return append(out, s.created...)
}

func (s *fakeBusinessStore) FindByExactIdentifier(field, value string) (*models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, b := range s.all() {
		if b.Attribute(field) == value {
			copied := b
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeBusinessStore) FindLooseMatch(name, suburb string) (*models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, b := range s.all() {
		if NamesSimilar(b.Name, name) && SuburbsEqual(b.Attribute("suburb"), suburb) {
			copied := b
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeBusinessStore) CreateBusiness(b *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, *b)
	return nil
}

func (s *fakeBusinessStore) createdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type fakeCancelStore struct {
	mu        sync.Mutex
	flags     map[uuid.UUID]bool
	cancelAll bool
}

func newFakeCancelStore() *fakeCancelStore {
	return &fakeCancelStore{flags: make(map[uuid.UUID]bool)}
}

func (s *fakeCancelStore) RequestCancel(_ context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[jobID] = true
	return nil
}

func (s *fakeCancelStore) IsCancelRequested(_ context.Context, jobID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAll || s.flags[jobID], nil
}

func (s *fakeCancelStore) ClearCancel(_ context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, jobID)
	return nil
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	count int
}

func (b *fakeBroadcaster) BroadcastJobProgress(_ *models.ImportJob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
}

func (b *fakeBroadcaster) broadcasts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// ---- helpers ----

func newTestOrchestrator() (*ImportOrchestrator, *fakeJobRepo, *fakeBusinessStore, *fakeCancelStore) {
	jobs := newFakeJobRepo()
	store := &fakeBusinessStore{}
	cancels := newFakeCancelStore()
	o := NewImportOrchestrator(jobs, store, cancels, zap.NewNop())
	return o, jobs, store, cancels
}

func waitForTerminal(t *testing.T, repo *fakeJobRepo, jobID uuid.UUID) *models.ImportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := repo.GetImportJobByID(jobID)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
	return nil
}

func decodeErrors(t *testing.T, job *models.ImportJob) []models.ImportRowError {
	t.Helper()
	var out []models.ImportRowError
	require.NoError(t, json.Unmarshal(job.Errors, &out))
	return out
}

func decodeDuplicates(t *testing.T, job *models.ImportJob) []models.ImportRowDuplicate {
	t.Helper()
	var out []models.ImportRowDuplicate
	require.NoError(t, json.Unmarshal(job.Duplicates, &out))
	return out
}

func csvFile(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

// ---- tests ----

func TestSubmitProcessesAllRows(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	hub := &fakeBroadcaster{}
	o.WithBroadcaster(hub)

	data := csvFile(
		"name,phone,suburb",
		"Acme,0355550123,Richmond",
		"Apex,0399990000,Fitzroy",
		"Zenith,0388880000,Carlton",
	)

	job, preview, err := o.Submit("list.csv", data, ImportConfig{}, "staff@example.com")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Nil(t, preview)
	assert.Equal(t, models.ImportJobPending, job.Status)
	assert.Equal(t, 3, job.TotalRows)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 3, final.ProcessedRows)
	assert.Equal(t, 3, final.SuccessCount)
	assert.Equal(t, 0, final.ErrorCount)
	assert.Equal(t, 0, final.DuplicateCount)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.ETASeconds)
	assert.Equal(t, 0, *final.ETASeconds)
	assert.NotNil(t, final.StartedAt)
	assert.NotNil(t, final.CompletedAt)

	assert.Equal(t, 3, store.createdCount())
	for _, b := range store.created {
		assert.Equal(t, models.ImportSource, b.Source)
		assert.Equal(t, models.ApprovedApproval, b.ApprovalStatus)
	}
	assert.Greater(t, hub.broadcasts(), 0)
}

func TestSubmitRejectsRowsWithoutName(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
		",0399990000",
		"Zenith,0388880000",
	)

	job, _, err := o.Submit("list.csv", data, ImportConfig{}, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 3, final.ProcessedRows)
	assert.Equal(t, 2, final.SuccessCount)
	assert.Equal(t, 1, final.ErrorCount)
	assert.Equal(t, 2, store.createdCount())

	rowErrors := decodeErrors(t, final)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, 1, rowErrors[0].RowIndex)
	assert.Equal(t, "name", rowErrors[0].Field)
}

func TestSubmitStrictDedupeSkipsStoreCollision(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	existing := models.Business{ID: uuid.New(), Name: "Old Acme", Phone: strPtr("0355550123")}
	store.seeded = []models.Business{existing}

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
		"Apex,0399990000",
	)

	cfg := ImportConfig{DedupeMode: StrictMatch, DedupeScope: GlobalScope}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 2, final.ProcessedRows)
	assert.Equal(t, 1, final.SuccessCount)
	assert.Equal(t, 1, final.DuplicateCount)
	assert.Equal(t, final.ProcessedRows, final.SuccessCount+final.ErrorCount+final.DuplicateCount)
	// the colliding row was skipped, only Apex was written
	assert.Equal(t, 1, store.createdCount())

	dups := decodeDuplicates(t, final)
	require.Len(t, dups, 1)
	assert.Equal(t, existing.ID, dups[0].MatchedID)
	assert.False(t, dups[0].Persisted)
}

func TestSubmitImportOnlyScopePersistsFlaggedDuplicates(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	store.seeded = []models.Business{{ID: uuid.New(), Name: "Old Acme", Phone: strPtr("0355550123")}}

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
	)

	cfg := ImportConfig{DedupeMode: StrictMatch, DedupeScope: ImportOnlyScope}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 1, final.ProcessedRows)
	assert.Equal(t, 0, final.SuccessCount)
	assert.Equal(t, 1, final.DuplicateCount)
	// flagged but still written
	assert.Equal(t, 1, store.createdCount())

	dups := decodeDuplicates(t, final)
	require.Len(t, dups, 1)
	assert.True(t, dups[0].Persisted)
}

func TestSubmitImportOnlyDuplicateWithFailedWriteCountsOnce(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	store.seeded = []models.Business{{ID: uuid.New(), Name: "Old Acme", Phone: strPtr("0355550123")}}
	store.createErr = errors.New("unique constraint violation")

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
	)

	cfg := ImportConfig{DedupeMode: StrictMatch, DedupeScope: ImportOnlyScope}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 1, final.ProcessedRows)
	assert.Equal(t, 0, final.SuccessCount)
	assert.Equal(t, 1, final.DuplicateCount)
	// the failed write is reported but the row is only counted as a duplicate
	assert.Equal(t, 0, final.ErrorCount)
	assert.LessOrEqual(t, final.SuccessCount+final.ErrorCount+final.DuplicateCount, final.ProcessedRows)
	assert.Equal(t, 0, store.createdCount())

	errs := decodeErrors(t, final)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Failed to save row")
}

func TestSubmitReturnsSnapshotDetachedFromProcessing(t *testing.T) {
	o, jobs, _, _ := newTestOrchestrator()

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
	)

	job, _, err := o.Submit("list.csv", data, ImportConfig{}, "staff@example.com")
	require.NoError(t, err)
	require.NotNil(t, job)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)

	// the caller's copy is frozen at submission time
	assert.Equal(t, models.ImportJobPending, job.Status)
	assert.Nil(t, job.StartedAt)
	assert.Equal(t, 0, job.ProcessedRows)
}

func TestSubmitCatchesInBatchDuplicates(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()

	// two rows in the same file share a phone number
	data := csvFile(
		"name,phone,suburb",
		"Joe's Plumbing,0355550123,Richmond",
		"Joseph's Plumbing Services,0355550123,Fitzroy",
	)

	cfg := ImportConfig{DedupeMode: StrictMatch}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, 1, final.SuccessCount)
	assert.Equal(t, 1, final.DuplicateCount)
	assert.Equal(t, 1, store.createdCount())

	dups := decodeDuplicates(t, final)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Reason, "earlier row in this import")
}

func TestSubmitDryRunWritesNothing(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
		",0399990000",
	)

	job, preview, err := o.Submit("list.csv", data, ImportConfig{DryRun: true}, "staff@example.com")
	require.NoError(t, err)
	require.NotNil(t, preview)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.True(t, final.DryRun)
	// counters report what a real run would have done
	assert.Equal(t, 2, final.ProcessedRows)
	assert.Equal(t, 1, final.SuccessCount)
	assert.Equal(t, 1, final.ErrorCount)
	// but nothing reached the store
	assert.Equal(t, 0, store.createdCount())
	assert.NotEmpty(t, final.Preview)
}

func TestSubmitDryRunDuplicatesNeverMarkedPersisted(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	store.seeded = []models.Business{{ID: uuid.New(), Name: "Old Acme", Phone: strPtr("0355550123")}}

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
	)

	cfg := ImportConfig{DryRun: true, DedupeMode: StrictMatch, DedupeScope: ImportOnlyScope}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 1, final.DuplicateCount)
	assert.Equal(t, 0, store.createdCount())

	dups := decodeDuplicates(t, final)
	require.Len(t, dups, 1)
	// nothing was written, so the entry must not claim the row was kept
	assert.False(t, dups[0].Persisted)
}

func TestSubmitStopsAtErrorLimit(t *testing.T) {
	o, jobs, _, _ := newTestOrchestrator()

	data := csvFile(
		"name,phone",
		",1",
		",2",
		",3",
		",4",
	)

	cfg := ImportConfig{MaxErrors: 2}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobFailed, final.Status)
	assert.Equal(t, 2, final.ErrorCount)
	assert.Less(t, final.ProcessedRows, final.TotalRows)

	rowErrors := decodeErrors(t, final)
	last := rowErrors[len(rowErrors)-1]
	assert.Equal(t, -1, last.RowIndex)
	assert.Contains(t, last.Message, "error limit")
}

func TestSubmitObservesCancellation(t *testing.T) {
	o, jobs, store, cancels := newTestOrchestrator()
	cancels.cancelAll = true

	data := csvFile(
		"name",
		"Acme",
		"Apex",
	)

	job, _, err := o.Submit("list.csv", data, ImportConfig{BatchSize: 1}, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobCancelled, final.Status)
	// flag was set before the first batch, nothing was written
	assert.Equal(t, 0, store.createdCount())
	assert.Equal(t, 0, final.ProcessedRows)
}

func TestSubmitFailsWhenLookupStoreIsDown(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	store.lookupErr = errors.New("connection refused")

	data := csvFile(
		"name,phone",
		"Acme,0355550123",
	)

	cfg := ImportConfig{DedupeMode: StrictMatch}
	job, _, err := o.Submit("list.csv", data, cfg, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, models.ImportJobFailed, final.Status)

	rowErrors := decodeErrors(t, final)
	require.NotEmpty(t, rowErrors)
	assert.Equal(t, -1, rowErrors[0].RowIndex)
	assert.Contains(t, rowErrors[0].Message, "aborted")
}

func TestSubmitRecordsRowCreateFailures(t *testing.T) {
	o, jobs, store, _ := newTestOrchestrator()
	store.createErr = errors.New("disk full")

	data := csvFile(
		"name",
		"Acme",
	)

	job, _, err := o.Submit("list.csv", data, ImportConfig{}, "staff@example.com")
	require.NoError(t, err)

	final := waitForTerminal(t, jobs, job.ID)
	// a save failure rejects the row, it does not abort the job
	assert.Equal(t, models.ImportJobCompleted, final.Status)
	assert.Equal(t, 1, final.ErrorCount)
	assert.Equal(t, 0, final.SuccessCount)
}

func TestSubmitPreviewOnlyCreatesNoJob(t *testing.T) {
	o, jobs, _, _ := newTestOrchestrator()

	data := csvFile(
		"company,telephone,notes",
		"Acme,0355550123,hello",
	)

	job, preview, err := o.Submit("list.csv", data, ImportConfig{PreviewOnly: true}, "staff@example.com")
	require.NoError(t, err)
	assert.Nil(t, job)
	require.NotNil(t, preview)

	assert.Equal(t, "name", preview.FieldMapping["company"])
	assert.Equal(t, "phone", preview.FieldMapping["telephone"])
	assert.Equal(t, 1, preview.TotalRows)

	all, err := jobs.GetAllImportJobs()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitPreviewWarnsWhenNameUnmapped(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()

	data := csvFile(
		"contact,telephone",
		"Joe,0355550123",
	)

	_, preview, err := o.Submit("list.csv", data, ImportConfig{PreviewOnly: true}, "staff@example.com")
	require.NoError(t, err)
	require.NotNil(t, preview)

	found := false
	for _, rec := range preview.Recommendations {
		if strings.Contains(rec, "No column is mapped to 'name'") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSubmitRejectsUnusableFiles(t *testing.T) {
	o, _, _, _ := newTestOrchestrator()

	_, _, err := o.Submit("empty.csv", nil, ImportConfig{}, "staff@example.com")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, _, err = o.Submit("header.csv", []byte("name\n"), ImportConfig{}, "staff@example.com")
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestCancelGuardsTerminalJobs(t *testing.T) {
	o, jobs, _, cancels := newTestOrchestrator()

	done := models.ImportJob{ID: uuid.New(), Status: models.ImportJobCompleted}
	require.NoError(t, jobs.CreateImportJob(&done))
	err := o.Cancel(context.Background(), done.ID)
	assert.ErrorIs(t, err, ErrJobFinished)

	running := models.ImportJob{ID: uuid.New(), Status: models.ImportJobProcessing}
	require.NoError(t, jobs.CreateImportJob(&running))
	require.NoError(t, o.Cancel(context.Background(), running.ID))
	flagged, err := cancels.IsCancelRequested(context.Background(), running.ID)
	require.NoError(t, err)
	assert.True(t, flagged)
}
