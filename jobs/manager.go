// Package jobs owns the lifecycle of scrape jobs: creation, launch on an
// independent goroutine, progress tracking and finalisation.
//
// The Manager is the only writer of a job's state, result and completion
// time. The crawl it launches only appends progress lines through a sink.
// External collaborators (result files, the spreadsheet status column,
// webhooks) are called best-effort and can never change a job's outcome.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/humbal1/pierce-doc-links-scrapper/crawler"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// ErrEmptyDocumentType is returned by CreateJob for a blank document type.
var ErrEmptyDocumentType = errors.New("document type is required")

// Crawler runs one crawl. *crawler.Crawler implements it.
type Crawler interface {
	Crawl(ctx context.Context, documentType string, maxPages int, sink crawler.ProgressSink) (*crawler.Report, error)
}

// ResultSink persists a job's records and returns an output reference,
// or "" when there was nothing to save.
type ResultSink interface {
	Save(ctx context.Context, documentType string, records []models.Record) (string, error)
}

// StatusSink reports job status back to the work-queue row a job came from.
type StatusSink interface {
	MarkRunning(ctx context.Context, rowRef string) error
	MarkComplete(ctx context.Context, rowRef, outputRef string) error
	MarkError(ctx context.Context, rowRef, message string) error
}

// WorkQueue lists the rows of the external work queue.
type WorkQueue interface {
	Rows(ctx context.Context) ([]models.QueueRow, error)
}

// Listener observes job lifecycle transitions. Calls happen on the job's
// goroutine and receive snapshots.
type Listener interface {
	JobStarted(job models.Job)
	JobFinished(job models.Job)
}

// Manager creates, starts and tracks jobs.
type Manager struct {
	registry  *Registry
	crawler   Crawler
	results   ResultSink
	status    StatusSink
	listeners []Listener
	sem       *semaphore.Weighted
	maxPages  int
	logger    *slog.Logger

	counter atomic.Int64
	wg      sync.WaitGroup
}

// Option customises a Manager.
type Option func(*Manager)

// WithResultSink sets where records are saved.
func WithResultSink(s ResultSink) Option {
	return func(m *Manager) { m.results = s }
}

// WithStatusSink sets the work-queue status sink.
func WithStatusSink(s StatusSink) Option {
	return func(m *Manager) { m.status = s }
}

// WithListener adds a lifecycle listener.
func WithListener(l Listener) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, l) }
}

// WithMaxConcurrent bounds how many jobs crawl at once. n <= 0 is unbounded.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMaxPages sets the page ceiling passed to every crawl.
func WithMaxPages(n int) Option {
	return func(m *Manager) { m.maxPages = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager around registry and c.
func NewManager(registry *Registry, c Crawler, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		crawler:  c,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateJob registers a queued job. rowRef may be empty.
func (m *Manager) CreateJob(documentType, rowRef string) (string, error) {
	job, err := m.newJob(documentType, rowRef)
	if err != nil {
		return "", err
	}
	m.registry.Add(job)
	m.logger.Info("job created", "job_id", job.ID, "document_type", job.DocumentType, "row", rowRef)
	return job.ID, nil
}

func (m *Manager) newJob(documentType, rowRef string) (*models.Job, error) {
	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		return nil, ErrEmptyDocumentType
	}
	return &models.Job{
		ID:           fmt.Sprintf("job_%d_%d", m.counter.Add(1), time.Now().Unix()),
		DocumentType: documentType,
		RowRef:       rowRef,
		State:        models.JobQueued,
		Progress:     []models.ProgressEntry{},
		CreatedAt:    time.Now(),
	}, nil
}

// Start moves a queued job to Running and launches its crawl. It returns
// without waiting for the crawl.
func (m *Manager) Start(id string) error {
	if err := m.registry.MarkRunning(id); err != nil {
		return err
	}
	job, _ := m.registry.Get(id)

	m.wg.Add(1)
	go m.run(job)
	return nil
}

// Get returns a snapshot of one job.
func (m *Manager) Get(id string) (models.Job, bool) {
	return m.registry.Get(id)
}

// List returns snapshots of every job in creation order.
func (m *Manager) List() []models.Job {
	return m.registry.List()
}

// Stats counts jobs by state.
func (m *Manager) Stats() models.JobStats {
	return m.registry.Stats()
}

// RunBatch creates and starts a job for every eligible row and reports the
// jobs it started. It does not wait for them. A row that still has a queued
// or running job is skipped, whatever its status cell says.
func (m *Manager) RunBatch(rows []models.QueueRow) []models.StartedJob {
	started := make([]models.StartedJob, 0)
	for _, row := range rows {
		if !row.Eligible() {
			continue
		}
		job, err := m.newJob(row.DocumentType, row.RowRef)
		if err != nil {
			m.logger.Warn("skipping work-queue row", "row", row.RowRef, "error", err)
			continue
		}
		id, added := m.registry.AddIfRowIdle(job)
		if !added {
			m.logger.Info("skipping work-queue row with an active job", "row", row.RowRef, "job_id", id)
			continue
		}
		m.logger.Info("job created", "job_id", id, "document_type", job.DocumentType, "row", row.RowRef)
		if err := m.Start(id); err != nil {
			m.logger.Warn("failed to start job", "job_id", id, "error", err)
			continue
		}
		started = append(started, models.StartedJob{
			JobID:        id,
			DocumentType: strings.TrimSpace(row.DocumentType),
			RowRef:       row.RowRef,
		})
	}
	return started
}

// SyncQueue reads the work queue and runs a batch over its rows.
func (m *Manager) SyncQueue(ctx context.Context, queue WorkQueue) ([]models.StartedJob, error) {
	rows, err := queue.Rows(ctx)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeWorkQueue, "failed to read work queue", err)
	}
	started := m.RunBatch(rows)
	m.logger.Info("work queue synced", "rows", len(rows), "started", len(started))
	return started, nil
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run executes one job on its own goroutine and always leaves it terminal.
func (m *Manager) run(job models.Job) {
	defer m.wg.Done()
	ctx := context.Background()
	log := m.logger.With("job_id", job.ID, "document_type", job.DocumentType)

	m.notify(log, "job started", func(l Listener) { l.JobStarted(job) })
	if job.RowRef != "" && m.status != nil {
		m.callSink(log, "mark running", func() error { return m.status.MarkRunning(ctx, job.RowRef) })
	}

	state, result := m.execute(ctx, job)
	if err := m.registry.Complete(job.ID, state, result); err != nil {
		log.Error("failed to finalise job", "error", err)
	}
	log.Info("job finished", "state", state, "records", result.RecordCount)

	if job.RowRef != "" && m.status != nil {
		if state == models.JobSucceeded {
			m.callSink(log, "mark complete", func() error {
				return m.status.MarkComplete(ctx, job.RowRef, result.OutputRef)
			})
		} else {
			m.callSink(log, "mark error", func() error {
				return m.status.MarkError(ctx, job.RowRef, result.Message)
			})
		}
	}

	if final, ok := m.registry.Get(job.ID); ok {
		m.notify(log, "job finished", func(l Listener) { l.JobFinished(final) })
	}
}

// execute crawls and decides the outcome. A panic anywhere in it fails the job.
func (m *Manager) execute(ctx context.Context, job models.Job) (state models.JobState, result *models.JobResult) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("job panicked",
				"job_id", job.ID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			msg := fmt.Sprintf("internal error: %v", rec)
			m.registry.AppendProgress(job.ID, "Error: "+msg)
			state = models.JobFailed
			result = &models.JobResult{Status: models.ResultError, Message: msg}
		}
	}()

	report, err := m.crawl(ctx, job)
	return m.outcome(ctx, job, report, err)
}

func (m *Manager) crawl(ctx context.Context, job models.Job) (*crawler.Report, error) {
	if m.sem != nil {
		if !m.sem.TryAcquire(1) {
			m.registry.AppendProgress(job.ID, "Waiting for a free worker slot")
			if err := m.sem.Acquire(ctx, 1); err != nil {
				return nil, models.NewCrawlError(models.ErrCodeInternal, "no worker slot", err)
			}
		}
		defer m.sem.Release(1)
	}

	sink := func(msg string) { m.registry.AppendProgress(job.ID, msg) }
	return m.crawler.Crawl(ctx, job.DocumentType, m.maxPages, sink)
}

// outcome applies the job outcome policy:
//   - records found: Succeeded, noting a partial crawl when it also failed
//   - no records and a crawl error: Failed
//   - no records and no error: Succeeded with zero records
func (m *Manager) outcome(ctx context.Context, job models.Job, report *crawler.Report, crawlErr error) (models.JobState, *models.JobResult) {
	var records []models.Record
	if report != nil {
		records = report.Records
	}
	n := len(records)

	if n == 0 {
		if crawlErr != nil {
			return models.JobFailed, &models.JobResult{
				Status:  models.ResultError,
				Message: crawlErr.Error(),
			}
		}
		msg := "No records found"
		if report != nil && !report.DocumentTypeFound {
			msg = "Document type not found: " + job.DocumentType
		}
		return models.JobSucceeded, &models.JobResult{Status: models.ResultSuccess, Message: msg}
	}

	ref, err := m.save(ctx, job, records)
	if err != nil {
		m.registry.AppendProgress(job.ID, "Error: could not save results: "+err.Error())
		return models.JobFailed, &models.JobResult{
			Status:      models.ResultError,
			Message:     models.NewCrawlError(models.ErrCodeResultSave, "failed to save results", err).Error(),
			RecordCount: n,
		}
	}

	msg := fmt.Sprintf("Successfully scraped %d records", n)
	if crawlErr != nil {
		msg = fmt.Sprintf("Scraped %d records before the crawl stopped: %v", n, crawlErr)
	}
	return models.JobSucceeded, &models.JobResult{
		Status:      models.ResultSuccess,
		Message:     msg,
		RecordCount: n,
		OutputRef:   ref,
	}
}

func (m *Manager) save(ctx context.Context, job models.Job, records []models.Record) (string, error) {
	if m.results == nil {
		return "", nil
	}
	ref, err := m.results.Save(ctx, job.DocumentType, records)
	if err != nil {
		return "", err
	}
	if ref != "" {
		m.registry.AppendProgress(job.ID, "Saved results to "+ref)
	}
	return ref, nil
}

// callSink runs a status-sink call, logging failures and panics.
func (m *Manager) callSink(log *slog.Logger, what string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("status sink panicked", "call", what, "panic", rec)
		}
	}()
	if err := fn(); err != nil {
		log.Warn("status sink call failed", "call", what, "error", err)
	}
}

// notify calls fn for every listener, isolating their panics.
func (m *Manager) notify(log *slog.Logger, event string, fn func(Listener)) {
	for _, l := range m.listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("listener panicked", "event", event, "panic", rec)
				}
			}()
			fn(l)
		}()
	}
}
