package queue_test

import (
	"testing"
	"time"

	"moviola/internal/queue"
)

func TestParseKind(t *testing.T) {
	kind, ok := queue.ParseKind("  Sync-Proxies ")
	if !ok || kind != queue.KindSyncProxies {
		t.Fatalf("unexpected parse result %v %v", kind, ok)
	}
	if _, ok := queue.ParseKind("rewind"); ok {
		t.Fatal("expected unknown kind to fail")
	}
	if _, ok := queue.ParseKind(""); ok {
		t.Fatal("expected empty kind to fail")
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := queue.ParseStatus("RUNNING")
	if !ok || status != queue.StatusRunning {
		t.Fatalf("unexpected parse result %v %v", status, ok)
	}
	if _, ok := queue.ParseStatus("paused"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestLaneForKind(t *testing.T) {
	cases := map[queue.Kind]queue.Lane{
		queue.KindIngest:        queue.LaneTransfer,
		queue.KindSyncProxies:   queue.LaneTransfer,
		queue.KindSyncEditables: queue.LaneTransfer,
		queue.KindFetchEDL:      queue.LaneTransfer,
		queue.KindConvert:       queue.LaneCPU,
		queue.KindRender:        queue.LaneCPU,
		queue.KindSlideshow:     queue.LaneCPU,
		queue.KindPublish:       queue.LanePublish,
		queue.KindArchive:       queue.LanePublish,
	}
	for kind, want := range cases {
		if got := queue.LaneForKind(kind); got != want {
			t.Errorf("LaneForKind(%s) = %s, want %s", kind, got, want)
		}
	}
	if got := queue.LaneForKind(queue.Kind("other")); got != queue.LaneLocal {
		t.Errorf("expected local lane fallback, got %s", got)
	}
}

func TestJobDurations(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := created.Add(30 * time.Second)
	finished := started.Add(2 * time.Minute)
	now := finished.Add(time.Hour)

	job := &queue.Job{CreatedAt: created}
	if got := job.QueuedDuration(started); got != 30*time.Second {
		t.Fatalf("queued duration before start = %s", got)
	}
	if got := job.ProcessDuration(now); got != 0 {
		t.Fatalf("process duration before start = %s", got)
	}

	job.StartedAt = &started
	if got := job.QueuedDuration(now); got != 30*time.Second {
		t.Fatalf("queued duration = %s", got)
	}
	if got := job.ProcessDuration(started.Add(time.Minute)); got != time.Minute {
		t.Fatalf("running process duration = %s", got)
	}

	job.FinishedAt = &finished
	if got := job.ProcessDuration(now); got != 2*time.Minute {
		t.Fatalf("finished process duration = %s", got)
	}
}

func TestJobIsTerminal(t *testing.T) {
	job := &queue.Job{Status: queue.StatusPending}
	if job.IsTerminal() {
		t.Fatal("pending is not terminal")
	}
	job.Status = queue.StatusCompleted
	if !job.IsTerminal() {
		t.Fatal("completed is terminal")
	}
	job.Status = queue.StatusFailed
	if !job.IsTerminal() {
		t.Fatal("failed is terminal")
	}
}

func TestJobParamsDecode(t *testing.T) {
	job := &queue.Job{ParamsJSON: `{"remoteHost":"edit-box","force":true}`}
	params, err := job.Params()
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}
	if params.RemoteHost != "edit-box" || !params.Force {
		t.Fatalf("unexpected params %#v", params)
	}

	empty := &queue.Job{ParamsJSON: "  "}
	if _, err := empty.Params(); err != nil {
		t.Fatalf("blank params should decode: %v", err)
	}

	broken := &queue.Job{ParamsJSON: "{"}
	if _, err := broken.Params(); err == nil {
		t.Fatal("expected decode error")
	}
}
