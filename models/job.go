package models

import (
	"strings"
	"time"
)

// JobState is the lifecycle position of a scrape job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ProgressEntry is one line of a job's progress log.
type ProgressEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Result status values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// JobResult is populated when a job enters a terminal state.
type JobResult struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Message is the human-readable outcome.
	Message string `json:"message"`

	// RecordCount is the number of extracted records.
	RecordCount int `json:"record_count"`

	// OutputRef names the saved result file; empty when nothing was saved.
	OutputRef string `json:"filepath,omitempty"`
}

// Job tracks one requested scrape run.
type Job struct {
	ID           string          `json:"id"`
	DocumentType string          `json:"document_type"`
	RowRef       string          `json:"row,omitempty"` // opaque work-queue back-reference
	State        JobState        `json:"status"`
	Progress     []ProgressEntry `json:"progress"`
	Result       *JobResult      `json:"result"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// Clone returns a deep copy that shares no mutable state with j.
func (j *Job) Clone() Job {
	c := *j
	c.Progress = make([]ProgressEntry, len(j.Progress))
	copy(c.Progress, j.Progress)
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// QueueRow is one row of the external work queue.
type QueueRow struct {
	RowRef       string `json:"row"`
	County       string `json:"county"`
	DocumentType string `json:"document_type"`
	Status       string `json:"status"`
}

// Eligible reports whether the row asks for a new job.
func (r QueueRow) Eligible() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "start")
}

// StartedJob reports a job launched from a work-queue row.
type StartedJob struct {
	JobID        string `json:"job_id"`
	DocumentType string `json:"document_type"`
	RowRef       string `json:"row"`
}
