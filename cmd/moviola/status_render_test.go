package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "running (pid 42)", false)
	if !strings.Contains(line, "Daemon:") {
		t.Fatalf("missing label: %q", line)
	}
	if !strings.Contains(line, "[OK] running (pid 42)") {
		t.Fatalf("missing status text: %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("unexpected color codes: %q", line)
	}

	colored := renderStatusLine("Daemon", statusError, "boom", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red wrapping: %q", colored)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Queue", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %v", lines)
	}
	if lines[0] != "== Queue ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length mismatch: %q vs %q", lines[0], lines[1])
	}
}

func TestBuildQueueStatusRows(t *testing.T) {
	rows := buildQueueStatusRows(map[string]int{
		"pending":   2,
		"running":   0,
		"failed":    1,
		"completed": 0,
	})
	if len(rows) != 2 {
		t.Fatalf("expected zero counts filtered, got %v", rows)
	}
	if rows[0][0] != "failed" || rows[1][0] != "pending" {
		t.Fatalf("expected sorted rows, got %v", rows)
	}
}
