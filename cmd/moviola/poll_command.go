package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"moviola/internal/ipc"
	"moviola/internal/queue"
)

const followInterval = time.Second

func newPollCommand(ctx *commandContext) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "poll <id>",
		Short: "Print output captured for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if follow {
					return followJob(cmd, client, id, 0)
				}
				resp, err := client.Poll(id, 0)
				if err != nil {
					return err
				}
				printJobOutput(cmd, resp)
				return jobOutcome(resp.Job)
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Poll until the job finishes")
	return cmd
}

// followJob drains job output at a fixed interval until the job reaches a
// terminal status. The returned error reflects the job outcome.
func followJob(cmd *cobra.Command, client *ipc.Client, id, offset int64) error {
	for {
		resp, err := client.Poll(id, offset)
		if err != nil {
			return err
		}
		printJobOutput(cmd, resp)
		offset = resp.Offset

		if isTerminal(resp.Job.Status) {
			return jobOutcome(resp.Job)
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(followInterval):
		}
	}
}

func printJobOutput(cmd *cobra.Command, resp *ipc.PollResponse) {
	if resp == nil || resp.Output == "" {
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), resp.Output)
	if !strings.HasSuffix(resp.Output, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
}

func isTerminal(status string) bool {
	parsed, ok := queue.ParseStatus(status)
	return ok && (parsed == queue.StatusCompleted || parsed == queue.StatusFailed)
}

func jobOutcome(job ipc.JobView) error {
	if job.Status == string(queue.StatusFailed) {
		message := strings.TrimSpace(job.ErrorMessage)
		if message == "" {
			message = "job failed"
		}
		return errors.New(message)
	}
	return nil
}
