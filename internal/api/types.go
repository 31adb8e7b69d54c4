package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a queued job in a transport-friendly format.
type JobView struct {
	ID             int64           `json:"id"`
	JobKey         string          `json:"jobKey"`
	Project        string          `json:"project"`
	Kind           string          `json:"kind"`
	Lane           string          `json:"lane"`
	Status         string          `json:"status"`
	Params         json.RawMessage `json:"params,omitempty"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	OutputBytes    int64           `json:"outputBytes"`
	QueuedSeconds  float64         `json:"queuedSeconds"`
	ProcessSeconds float64         `json:"processSeconds"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	StartedAt      string          `json:"startedAt,omitempty"`
	FinishedAt     string          `json:"finishedAt,omitempty"`
}

// WorkflowStatus summarizes worker execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *JobView       `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for job handlers.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	LibraryDir   string         `json:"libraryDir"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// QueueHealth provides per-status queue counts.
type QueueHealth struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// SubmitRequest carries a job submission over HTTP.
type SubmitRequest struct {
	Kind    string          `json:"kind"`
	Project string          `json:"project"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorResponse carries a structured API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
