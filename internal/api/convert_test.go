package api_test

import (
	"testing"
	"time"

	"moviola/internal/api"
	"moviola/internal/queue"
	"moviola/internal/stage"
	"moviola/internal/worker"
)

func TestFromJobPopulatesView(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(30 * time.Second)
	finished := started.Add(2 * time.Minute)
	job := &queue.Job{
		ID:          7,
		JobKey:      "abc-123",
		Project:     "spring-gala",
		Kind:        queue.KindRender,
		Lane:        queue.LaneCPU,
		ParamsJSON:  `{"edlFile":"cut.xges"}`,
		Status:      queue.StatusCompleted,
		OutputBytes: 42,
		CreatedAt:   created,
		UpdatedAt:   finished,
		StartedAt:   &started,
		FinishedAt:  &finished,
	}

	view := api.FromJob(job)
	if view.ID != 7 || view.Project != "spring-gala" {
		t.Fatalf("unexpected identity fields: %+v", view)
	}
	if view.Kind != "render" || view.Lane != "cpu" || view.Status != "completed" {
		t.Fatalf("unexpected enum fields: %+v", view)
	}
	if string(view.Params) != `{"edlFile":"cut.xges"}` {
		t.Fatalf("params = %s", view.Params)
	}
	if view.QueuedSeconds != 30 {
		t.Fatalf("queuedSeconds = %v", view.QueuedSeconds)
	}
	if view.ProcessSeconds != 120 {
		t.Fatalf("processSeconds = %v", view.ProcessSeconds)
	}
	if view.StartedAt == "" || view.FinishedAt == "" {
		t.Fatal("expected timestamps to be rendered")
	}
}

func TestFromJobOmitsEmptyParams(t *testing.T) {
	job := &queue.Job{ID: 1, ParamsJSON: "{}"}
	if view := api.FromJob(job); view.Params != nil {
		t.Fatalf("expected empty params to be omitted, got %s", view.Params)
	}
}

func TestFromJobNil(t *testing.T) {
	if view := api.FromJob(nil); view.ID != 0 {
		t.Fatalf("expected zero view, got %+v", view)
	}
}

func TestFromStatusSummary(t *testing.T) {
	job := &queue.Job{ID: 3, Kind: queue.KindConvert, Lane: queue.LaneCPU, Status: queue.StatusRunning, CreatedAt: time.Now()}
	summary := worker.StatusSummary{Running: true, LastError: "boom", LastJob: job}
	health := []stage.Health{stage.Healthy("convert"), stage.Unhealthy("render", "cin not found")}

	status := api.FromStatusSummary(summary, map[string]int{"pending": 2}, health)
	if !status.Running || status.LastError != "boom" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.LastJob == nil || status.LastJob.ID != 3 {
		t.Fatalf("lastJob = %+v", status.LastJob)
	}
	if len(status.StageHealth) != 2 || status.StageHealth[1].Detail != "cin not found" {
		t.Fatalf("stageHealth = %+v", status.StageHealth)
	}
	if status.QueueStats["pending"] != 2 {
		t.Fatalf("queueStats = %+v", status.QueueStats)
	}
}
