package daemon_test

import (
	"context"
	"strings"
	"testing"

	"moviola/internal/daemon"
	"moviola/internal/logging"
	"moviola/internal/queue"
	"moviola/internal/stage"
	"moviola/internal/testsupport"
	"moviola/internal/worker"
)

type noopHandler struct {
	kind queue.Kind
}

func (h noopHandler) Kind() queue.Kind { return h.kind }

func (h noopHandler) Execute(context.Context, *queue.Job, stage.Sink) error { return nil }

func (h noopHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(string(h.kind))
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	mgr := worker.NewManager(cfg, store, logging.NewNop())
	mgr.Register(noopHandler{kind: queue.KindConvert})
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected error on double start")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.PID <= 0 {
		t.Fatalf("pid = %d", status.PID)
	}
	if len(status.StageHealth) != 1 {
		t.Fatalf("stage health = %+v", status.StageHealth)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSubmitRemoteFallback(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()

	job, err := d.Submit(ctx, "ingest", "gala", queue.Params{}, "10.0.0.5")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	params, err := job.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params.RemoteHost != "10.0.0.5" {
		t.Fatalf("remote host = %q", params.RemoteHost)
	}

	job, err = d.Submit(ctx, "ingest", "gala", queue.Params{RemoteHost: "render-box"}, "10.0.0.5")
	if err != nil {
		t.Fatalf("Submit with explicit remote: %v", err)
	}
	params, _ = job.Params()
	if params.RemoteHost != "render-box" {
		t.Fatalf("explicit remote overwritten: %q", params.RemoteHost)
	}

	job, err = d.Submit(ctx, "convert", "gala", queue.Params{}, "10.0.0.5")
	if err != nil {
		t.Fatalf("Submit convert: %v", err)
	}
	params, _ = job.Params()
	if params.RemoteHost != "" {
		t.Fatalf("convert should not inherit caller address, got %q", params.RemoteHost)
	}
}

func TestDaemonSubmitValidation(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()

	if _, err := d.Submit(ctx, "bogus", "gala", queue.Params{}, ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := d.Submit(ctx, "convert", "../escape", queue.Params{}, ""); err == nil {
		t.Fatal("expected error for invalid project name")
	}
}

func TestDaemonPoll(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	job, err := d.Submit(ctx, "convert", "gala", queue.Params{}, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := store.AppendOutput(ctx, job.ID, "line one\nline two\n"); err != nil {
		t.Fatalf("AppendOutput: %v", err)
	}

	result, err := d.Poll(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !strings.HasPrefix(result.Output, "line one\n") {
		t.Fatalf("output = %q", result.Output)
	}

	again, err := d.Poll(ctx, job.ID, result.Offset)
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if again.Output != "" {
		t.Fatalf("expected drained output, got %q", again.Output)
	}
}
