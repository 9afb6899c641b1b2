package models

// StartJobResponse is the response for POST /api/v1/jobs.
type StartJobResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// JobResponse is the response for GET /api/v1/jobs/:id.
type JobResponse struct {
	Status string `json:"status"`
	Job    Job    `json:"job"`
}

// JobsResponse is the response for GET /api/v1/jobs.
type JobsResponse struct {
	Status string `json:"status"`
	Jobs   []Job  `json:"jobs"`
}

// SheetSyncResponse is the response for GET /api/v1/sheet/sync.
type SheetSyncResponse struct {
	Status      string     `json:"status"`
	PendingJobs []QueueRow `json:"pending_jobs"`
	TotalRows   int        `json:"total_rows"`
}

// AutoSyncResponse is the response for POST /api/v1/auto-sync.
type AutoSyncResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Jobs    []StartedJob `json:"jobs"`
}

// ResultFile describes one saved result file.
type ResultFile struct {
	Filename string  `json:"filename"`
	SizeKB   float64 `json:"size_kb"`
	Created  string  `json:"created"` // RFC 3339
}

// ResultsResponse is the response for GET /api/v1/results.
type ResultsResponse struct {
	Status string       `json:"status"`
	Files  []ResultFile `json:"files"`
}

// DocumentTypesResponse is the response for GET /api/v1/document-types.
type DocumentTypesResponse struct {
	Status        string   `json:"status"`
	DocumentTypes []string `json:"document_types"`
}

// StatusResponse is a generic acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorDetail for failed API calls.
type ErrorResponse struct {
	Status string       `json:"status"`
	Error  *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string   `json:"status"` // "healthy" or "degraded"
	Uptime    string   `json:"uptime"`
	JobStats  JobStats `json:"job_stats"`
	Session   bool     `json:"session_cookies"` // a captured cookie jar is available
	WorkQueue bool     `json:"work_queue"`
	Version   string   `json:"version"`
}

// JobStats counts registered jobs by state.
type JobStats struct {
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
