package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"moviola/internal/api"
	"moviola/internal/ipc"
	"moviola/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the job queue",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsResetCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var views []ipc.JobView
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					views = resp.Jobs
				} else {
					var statuses []queue.Status
					for _, value := range listStatuses {
						if parsed, ok := queue.ParseStatus(value); ok {
							statuses = append(statuses, parsed)
						}
					}
					jobs, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					views = api.FromJobs(jobs)
				}

				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Project", "Kind", "Lane", "Status", "Created"},
					buildJobRows(views),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var showOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePositiveID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var view ipc.JobView
				var output string
				if client != nil {
					resp, err := client.QueueDescribe(id)
					if err != nil {
						return err
					}
					view = resp.Job
					if showOutput {
						poll, err := client.Poll(id, 0)
						if err != nil {
							return err
						}
						output = poll.Output
					}
				} else {
					job, err := store.GetByID(cmd.Context(), id)
					if errors.Is(err, queue.ErrNotFound) {
						return fmt.Errorf("job %d not found", id)
					}
					if err != nil {
						return err
					}
					view = api.FromJob(job)
					if showOutput {
						text, _, err := store.ReadOutput(cmd.Context(), id, 0)
						if err != nil {
							return err
						}
						output = text
					}
				}
				printJobDetail(cmd, view, output, showOutput)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showOutput, "output", false, "Include captured job output")
	return cmd
}

func printJobDetail(cmd *cobra.Command, view ipc.JobView, output string, withOutput bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d (%s)\n", view.ID, view.JobKey)
	fmt.Fprintf(out, "  Project:  %s\n", view.Project)
	fmt.Fprintf(out, "  Kind:     %s (lane %s)\n", view.Kind, view.Lane)
	fmt.Fprintf(out, "  Status:   %s\n", view.Status)
	if view.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:    %s\n", view.ErrorMessage)
	}
	if len(view.Params) > 0 {
		fmt.Fprintf(out, "  Params:   %s\n", string(view.Params))
	}
	if view.CreatedAt != "" {
		fmt.Fprintf(out, "  Created:  %s\n", view.CreatedAt)
	}
	if view.StartedAt != "" {
		fmt.Fprintf(out, "  Started:  %s (queued %.1fs)\n", view.StartedAt, view.QueuedSeconds)
	}
	if view.FinishedAt != "" {
		fmt.Fprintf(out, "  Finished: %s (ran %.1fs)\n", view.FinishedAt, view.ProcessSeconds)
	}
	fmt.Fprintf(out, "  Output:   %d bytes\n", view.OutputBytes)
	if withOutput && output != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Fprintln(out)
		}
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var err error
				var label string
				switch {
				case clearCompleted:
					label = "completed jobs"
					if client != nil {
						var resp *ipc.QueueClearCompletedResponse
						resp, err = client.QueueClearCompleted()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
				case clearFailed:
					label = "failed jobs"
					if client != nil {
						var resp *ipc.QueueClearFailedResponse
						resp, err = client.QueueClearFailed()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
				default:
					label = "jobs"
					if client != nil {
						var resp *ipc.QueueClearResponse
						resp, err = client.QueueClear()
						if err == nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Clear(cmd.Context())
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id]...",
		Short: "Reset failed jobs back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				if client != nil {
					resp, err := client.QueueRetry(ids)
					if err != nil {
						return err
					}
					updated = resp.Updated
				} else {
					var err error
					updated, err = store.RetryFailed(cmd.Context(), ids...)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newJobsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset jobs stuck in the running state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				if client != nil {
					resp, err := client.QueueReset()
					if err != nil {
						return err
					}
					updated = resp.Updated
				} else {
					var err error
					updated, err = store.ResetStuckRunning(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate queue diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health queue.HealthSummary
				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = queue.HealthSummary{
						Total:     resp.Total,
						Pending:   resp.Pending,
						Running:   resp.Running,
						Completed: resp.Completed,
						Failed:    resp.Failed,
					}
				} else {
					var err error
					health, err = store.Health(cmd.Context())
					if err != nil {
						return err
					}
				}
				rows := [][]string{
					{"total", strconv.Itoa(health.Total)},
					{"pending", strconv.Itoa(health.Pending)},
					{"running", strconv.Itoa(health.Running)},
					{"completed", strconv.Itoa(health.Completed)},
					{"failed", strconv.Itoa(health.Failed)},
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func buildJobRows(views []ipc.JobView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		rows = append(rows, []string{
			strconv.FormatInt(view.ID, 10),
			view.Project,
			view.Kind,
			view.Lane,
			view.Status,
			view.CreatedAt,
		})
	}
	return rows
}

func parsePositiveID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parsePositiveID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
