package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moviola/internal/daemonctl"
	"moviola/internal/ipc"
	"moviola/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the moviola daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the moviola daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Stopping daemon workers...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
		for _, line := range renderSectionHeader("Daemon", colorize) {
			fmt.Fprintln(stdout, line)
		}

		var stats map[string]int
		if client != nil {
			status, err := client.Status()
			if err != nil {
				return err
			}
			kind := statusWarn
			detail := "stopped"
			if status.Running {
				kind = statusOK
				detail = fmt.Sprintf("running (pid %d)", status.PID)
			}
			fmt.Fprintln(stdout, renderStatusLine("Daemon", kind, detail, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Job store", statusInfo, status.QueueDBPath, colorize))
			if status.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.LastError, colorize))
			}
			if status.LastJob != nil {
				detail := fmt.Sprintf("#%d %s %s (%s)", status.LastJob.ID, status.LastJob.Kind, status.LastJob.Project, status.LastJob.Status)
				fmt.Fprintln(stdout, renderStatusLine("Last job", statusInfo, detail, colorize))
			}

			if len(status.StageHealth) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Handlers", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, h := range status.StageHealth {
					kind := statusOK
					detail := "Ready"
					if !h.Ready {
						kind = statusError
						detail = h.Detail
						if strings.TrimSpace(detail) == "" {
							detail = "not available"
						}
					}
					fmt.Fprintln(stdout, renderStatusLine(h.Name, kind, detail, colorize))
				}
			}
			stats = status.QueueStats
		} else {
			fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running", colorize))
			local, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			stats = local
		}

		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader("Queue", colorize) {
			fmt.Fprintln(stdout, line)
		}
		rows := buildQueueStatusRows(stats)
		if len(rows) == 0 {
			fmt.Fprintln(stdout, "Queue is empty")
			return nil
		}
		table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
		fmt.Fprintln(stdout, table)
		return nil
	})
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
