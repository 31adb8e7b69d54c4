package main

import (
	"context"
	"strings"
	"testing"

	"moviola/internal/queue"
	"moviola/internal/testsupport"
)

func TestJobsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha := testsupport.MustEnqueue(t, env.store, queue.KindConvert, "alpha", queue.Params{})
	beta := testsupport.MustEnqueue(t, env.store, queue.KindRender, "beta", queue.Params{})
	if err := env.store.MarkRunning(ctx, beta); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := env.store.Finish(ctx, beta, "render crashed"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "alpha")
	requireContains(t, out, "beta")

	out, _, err = runCLI(t, []string{"jobs", "list", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --status failed: %v", err)
	}
	requireContains(t, out, "beta")
	if strings.Contains(out, "alpha") {
		t.Fatalf("expected alpha filtered out, got %q", out)
	}

	if err := env.store.AppendOutput(ctx, alpha.ID, "converting clip01.dv\n"); err != nil {
		t.Fatalf("append output: %v", err)
	}
	out, _, err = runCLI(t, []string{"jobs", "show", "1", "--output"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "alpha")
	requireContains(t, out, "converting clip01.dv")

	_, _, err = runCLI(t, []string{"jobs", "show", "99"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestJobsRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := testsupport.MustEnqueue(t, env.store, queue.KindPublish, "gala", queue.Params{})
	if err := env.store.MarkRunning(ctx, job); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := env.store.Finish(ctx, job, "upload refused"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "Retried 1 jobs")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}

	if err := env.store.MarkRunning(ctx, updated); err != nil {
		t.Fatalf("mark running again: %v", err)
	}
	if err := env.store.Finish(ctx, updated, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err = runCLI(t, []string{"jobs", "clear", "--completed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear --completed: %v", err)
	}
	requireContains(t, out, "Cleared 1 completed jobs")

	out, _, err = runCLI(t, []string{"jobs", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 0 jobs")

	_, _, err = runCLI(t, []string{"jobs", "clear", "--completed", "--failed"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for conflicting clear flags")
	}
}

func TestJobsResetAndHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := testsupport.MustEnqueue(t, env.store, queue.KindIngest, "stuck", queue.Params{})
	if err := env.store.MarkRunning(ctx, job); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "reset"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs reset: %v", err)
	}
	requireContains(t, out, "Reset 1 jobs")

	out, _, err = runCLI(t, []string{"jobs", "health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs health: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "total")
}

func TestParsePositiveIDs(t *testing.T) {
	ids, err := parsePositiveIDs([]string{"3", " 7 "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("unexpected ids %v", ids)
	}

	for _, bad := range []string{"0", "-1", "abc", ""} {
		if _, err := parsePositiveIDs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
