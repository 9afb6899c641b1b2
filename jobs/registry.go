package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

var (
	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued is returned when starting a job that already left Queued.
	ErrJobNotQueued = errors.New("job is not queued")

	// ErrJobTerminal is returned when finishing a job that already finished.
	ErrJobTerminal = errors.New("job already finished")
)

// cleanupInterval is how often finished jobs past retention are evicted.
const cleanupInterval = 5 * time.Minute

// Registry is the in-memory store of jobs. Reads return deep copies, so a
// snapshot never changes under the caller. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*models.Job
	order     []string
	retention time.Duration

	// activeRows maps a work-queue row to its queued or running job.
	activeRows map[string]string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a Registry. When retention > 0 a background goroutine
// evicts finished jobs older than retention; stop it with Close.
func NewRegistry(retention time.Duration) *Registry {
	r := &Registry{
		jobs:       make(map[string]*models.Job),
		retention:  retention,
		activeRows: make(map[string]string),
		stop:       make(chan struct{}),
	}
	if retention > 0 {
		go r.cleanupLoop()
	}
	return r
}

// Add registers a new job.
func (r *Registry) Add(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(job)
}

// AddIfRowIdle registers job unless its row already has a queued or running
// job, in which case it returns that job's id and false.
func (r *Registry) AddIfRowIdle(job *models.Job) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.RowRef != "" {
		if id, busy := r.activeRows[job.RowRef]; busy {
			return id, false
		}
	}
	r.add(job)
	return job.ID, true
}

func (r *Registry) add(job *models.Job) {
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	if job.RowRef != "" {
		r.activeRows[job.RowRef] = job.ID
	}
}

// ActiveJobForRow returns the queued or running job holding rowRef.
func (r *Registry) ActiveJobForRow(rowRef string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.activeRows[rowRef]
	return id, ok
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return j.Clone(), true
}

// List returns snapshots of every job in creation order.
func (r *Registry) List() []models.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id].Clone())
	}
	return out
}

// AppendProgress adds a line to the job's progress log. Lines are accepted
// in every state so late notes from cleanup are never lost.
func (r *Registry) AppendProgress(id, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	j.Progress = append(j.Progress, models.ProgressEntry{Time: time.Now(), Message: message})
	return true
}

// MarkRunning moves a queued job to Running.
func (r *Registry) MarkRunning(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.State != models.JobQueued {
		return ErrJobNotQueued
	}
	now := time.Now()
	j.State = models.JobRunning
	j.StartedAt = &now
	return nil
}

// Complete moves a job into a terminal state with its result. Terminal
// states are final.
func (r *Registry) Complete(id string, state models.JobState, result *models.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.State.Terminal() {
		return ErrJobTerminal
	}
	now := time.Now()
	j.State = state
	j.CompletedAt = &now
	if j.RowRef != "" && r.activeRows[j.RowRef] == id {
		delete(r.activeRows, j.RowRef)
	}
	if result != nil {
		res := *result
		j.Result = &res
	}
	return nil
}

// Stats counts jobs by state.
func (r *Registry) Stats() models.JobStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s models.JobStats
	for _, j := range r.jobs {
		switch j.State {
		case models.JobQueued:
			s.Queued++
		case models.JobRunning:
			s.Running++
		case models.JobSucceeded:
			s.Succeeded++
		case models.JobFailed:
			s.Failed++
		}
	}
	return s
}

// evictFinishedBefore drops terminal jobs completed before cutoff and
// returns how many were removed.
func (r *Registry) evictFinishedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		j := r.jobs[id]
		if j.State.Terminal() && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.evictFinishedBefore(time.Now().Add(-r.retention))
		case <-r.stop:
			return
		}
	}
}

// Close stops the background eviction.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}
