// Package command runs the external media tools every job kind wraps:
// rsync, the transcoder, the renderers, and the publish scripts. Commands
// stream merged stdout/stderr line by line to the caller and honor context
// cancellation.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args []string, onLine func(string)) error
}

// Option configures the executor.
type Option func(*Executor)

// WithTimeout sets a per-command timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// WithScriptsDir appends a directory to PATH for spawned commands so
// workflow scripts resolve without absolute paths.
func WithScriptsDir(dir string) Option {
	return func(e *Executor) {
		e.scriptsDir = strings.TrimSpace(dir)
	}
}

// Executor runs commands on the host, merging stderr into stdout.
type Executor struct {
	scriptsDir string
	timeout    time.Duration
}

// NewExecutor constructs an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the command, delivering each output line to onLine as it is
// produced. A non-zero exit returns an error naming the command.
func (e *Executor) Run(ctx context.Context, name string, args []string, onLine func(string)) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("command name required")
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...) //nolint:gosec
	cmd.Env = e.commandEnv()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return fmt.Errorf("command %s: %w", commandLine(name, args), ctxErr)
		}
		return fmt.Errorf("command %s: %w", commandLine(name, args), err)
	}
	if scanErr != nil {
		return fmt.Errorf("read %s output: %w", name, scanErr)
	}
	return nil
}

func (e *Executor) commandEnv() []string {
	env := os.Environ()
	if e.scriptsDir == "" {
		return env
	}
	for i, entry := range env {
		if strings.HasPrefix(entry, "PATH=") {
			env[i] = entry + string(os.PathListSeparator) + e.scriptsDir
			return env
		}
	}
	return append(env, "PATH="+e.scriptsDir)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

var _ Runner = (*Executor)(nil)
