package ipc

import (
	"moviola/internal/api"
	"moviola/internal/queue"
)

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workers.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports the daemon process id.
type PingResponse struct {
	PID int `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// JobView mirrors the HTTP API job DTO for internal IPC callers.
type JobView = api.JobView

// StageHealth describes readiness of a job handler.
type StageHealth = api.StageHealth

// StatusResponse represents combined daemon/worker status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LastJob     *JobView       `json:"last_job"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	LibraryDir  string         `json:"library_dir"`
	StageHealth []StageHealth  `json:"stage_health"`
	PID         int            `json:"pid"`
}

// SubmitRequest enqueues a new job.
type SubmitRequest struct {
	Kind    string       `json:"kind"`
	Project string       `json:"project"`
	Params  queue.Params `json:"params"`
	Remote  string       `json:"remote,omitempty"`
}

// SubmitResponse returns the queued job.
type SubmitResponse struct {
	Job JobView `json:"job"`
}

// PollRequest drains captured job output past the given offset.
type PollRequest struct {
	ID     int64 `json:"id"`
	Offset int64 `json:"offset"`
}

// PollResponse carries job state and the output slice.
type PollResponse struct {
	Job    JobView `json:"job"`
	Output string  `json:"output"`
	Offset int64   `json:"offset"`
}

// OutstandingRequest lists jobs that have not finished.
type OutstandingRequest struct{}

// OutstandingResponse contains pending and running jobs.
type OutstandingResponse struct {
	Jobs []JobView `json:"jobs"`
}

// QueueListRequest filters job listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// QueueDescribeRequest fetches a single job by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single job.
type QueueDescribeResponse struct {
	Job JobView `json:"job"`
}

// QueueClearRequest removes all jobs.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed jobs.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed jobs.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest resets in-flight jobs.
type QueueResetRequest struct{}

// QueueResetResponse reports number of jobs reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed jobs. Empty list means all failed jobs.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried jobs.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Failed    int `json:"failed"`
	Completed int `json:"completed"`
}
