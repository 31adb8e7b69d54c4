package main

import (
	"context"
	"testing"

	"moviola/internal/queue"
	"moviola/internal/testsupport"
)

func TestStatusCommandWithDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := env.daemon.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	testsupport.MustEnqueue(t, env.store, queue.KindConvert, "gala", queue.Params{})

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "[OK] running")
	requireContains(t, out, "== Handlers ==")
	requireContains(t, out, "== Queue ==")
}

func TestStatusCommandOfflineFallsBackToStore(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.MustEnqueue(t, env.store, queue.KindRender, "gala", queue.Params{})

	missingSocket := env.socketPath + ".missing"
	out, _, err := runCLI(t, []string{"status"}, missingSocket, env.configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "pending")
}
