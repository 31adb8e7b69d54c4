package stage

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"moviola/internal/command"
)

// RunLogged echoes the command line into the sink before executing it, so
// the captured job output reads like a session transcript.
func RunLogged(ctx context.Context, runner command.Runner, out Sink, name string, args ...string) error {
	if out != nil {
		out.Line("+ " + name + " " + strings.Join(args, " "))
	}
	return runner.Run(ctx, name, args, func(line string) {
		if out != nil {
			out.Line(line)
		}
	})
}

// ToolHealth reports whether a binary resolves on PATH or in the configured
// scripts directory. Spawned commands see the scripts directory appended to
// PATH, so health has to look there as well.
func ToolHealth(name, binary, scriptsDir string) Health {
	if strings.TrimSpace(binary) == "" {
		return Unhealthy(name, "no tool configured")
	}
	if _, err := exec.LookPath(binary); err == nil {
		return Healthy(name)
	}
	dir := strings.TrimSpace(scriptsDir)
	if dir != "" {
		if info, err := os.Stat(filepath.Join(dir, binary)); err == nil && info.Mode().IsRegular() {
			return Healthy(name)
		}
		return Unhealthy(name, fmt.Sprintf("%s not found on PATH or in %s", binary, dir))
	}
	return Unhealthy(name, fmt.Sprintf("%s not found on PATH", binary))
}
