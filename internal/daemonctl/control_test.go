package daemonctl_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"moviola/internal/daemonctl"
)

func startSleeper(t *testing.T) *os.Process {
	t.Helper()
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return cmd.Process
}

func writePid(t *testing.T, path string, proc *os.Process) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strconv.Itoa(proc.Pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
}

func TestForceKillProcessReadsPidFile(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "moviola.pid")
	lockPath := filepath.Join(dir, "moviolad.lock")

	// A process we own and can safely kill.
	proc := startSleeper(t)
	writePid(t, pidPath, proc)
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatalf("write lock file: %v", err)
	}

	killed, err := daemonctl.ForceKillProcess(pidPath, lockPath, 0)
	if err != nil {
		t.Fatalf("ForceKillProcess failed: %v", err)
	}
	if killed != proc.Pid {
		t.Fatalf("expected pid %d, got %d", proc.Pid, killed)
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected pid file removed")
	}
	if _, err := os.Stat(lockPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected lock file removed")
	}
}

func TestForceKillProcessWithoutPid(t *testing.T) {
	dir := t.TempDir()
	if _, err := daemonctl.ForceKillProcess(filepath.Join(dir, "missing.pid"), "", 0); err == nil {
		t.Fatal("expected error when no pid is known")
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "moviola.pid")
	if err := os.WriteFile(pidPath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	start := time.Now()
	if _, err := daemonctl.WaitForClient(socket, 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("wait took far longer than the timeout")
	}
}

func TestWaitForShutdownMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if err := daemonctl.WaitForShutdown(socket, 300*time.Millisecond); err != nil {
		t.Fatalf("expected clean result for absent socket, got %v", err)
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	alive, pid, err := daemonctl.ProcessInfo(socket)
	if err != nil {
		t.Fatalf("ProcessInfo failed: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected not running, got alive=%v pid=%d", alive, pid)
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := daemonctl.StopAndTerminate(socket, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
