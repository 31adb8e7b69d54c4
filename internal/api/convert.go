package api

import (
	"encoding/json"
	"strings"
	"time"

	"moviola/internal/queue"
	"moviola/internal/stage"
	"moviola/internal/worker"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) JobView {
	if job == nil {
		return JobView{}
	}

	now := time.Now()
	dto := JobView{
		ID:             job.ID,
		JobKey:         job.JobKey,
		Project:        job.Project,
		Kind:           string(job.Kind),
		Lane:           string(job.Lane),
		Status:         string(job.Status),
		ErrorMessage:   job.ErrorMessage,
		OutputBytes:    job.OutputBytes,
		QueuedSeconds:  job.QueuedDuration(now).Seconds(),
		ProcessSeconds: job.ProcessDuration(now).Seconds(),
	}
	if raw := strings.TrimSpace(job.ParamsJSON); raw != "" && raw != "{}" {
		dto.Params = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.StartedAt != nil {
		dto.StartedAt = job.StartedAt.UTC().Format(dateTimeFormat)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = job.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []JobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a worker status summary to an API payload.
func FromStatusSummary(summary worker.StatusSummary, stats map[string]int, health []stage.Health) WorkflowStatus {
	status := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		LastError:   summary.LastError,
		StageHealth: FromStageHealth(health),
	}
	if summary.LastJob != nil {
		view := FromJob(summary.LastJob)
		status.LastJob = &view
	}
	return status
}

// FromStageHealth converts handler readiness reports into API DTOs.
func FromStageHealth(health []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromHealthSummary converts queue counts into an API payload.
func FromHealthSummary(summary queue.HealthSummary) QueueHealth {
	return QueueHealth{
		Total:     summary.Total,
		Pending:   summary.Pending,
		Running:   summary.Running,
		Completed: summary.Completed,
		Failed:    summary.Failed,
	}
}
