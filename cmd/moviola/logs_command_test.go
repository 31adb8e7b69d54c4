package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsCommandPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := filepath.Join(env.cfg.LogDir, "moviola.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected first line trimmed, got %q", out)
	}
}
