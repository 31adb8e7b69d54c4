package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moviola/internal/ipc"
	"moviola/internal/queue"
)

func newSubmitCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newIngestCommand(ctx),
		newConvertCommand(ctx),
		newSyncCommand(ctx),
		newFetchEDLCommand(ctx),
		newRenderCommand(ctx),
		newPublishCommand(ctx),
		newArchiveCommand(ctx),
		newSlideshowCommand(ctx),
	}
}

// submitJob sends the request over IPC and either reports the queued id or
// follows the job's output until it finishes.
func submitJob(cmd *cobra.Command, ctx *commandContext, req ipc.SubmitRequest, follow bool) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Submit(req)
		if err != nil {
			return err
		}
		job := resp.Job
		fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d (%s) for project %s\n", job.ID, job.Kind, job.Project)
		if !follow {
			fmt.Fprintf(cmd.OutOrStdout(), "Follow it with `moviola poll %d --follow`\n", job.ID)
			return nil
		}
		return followJob(cmd, client, job.ID, 0)
	})
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var remote string
	var deleteExtra bool
	var follow bool

	cmd := &cobra.Command{
		Use:   "ingest <project>",
		Short: "Pull raw footage into the project's input directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindIngest),
				Project: args[0],
				Params:  queue.Params{RemoteHost: remote, Force: deleteExtra},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Workstation host to pull from (default: local)")
	cmd.Flags().BoolVar(&deleteExtra, "delete", false, "Delete files missing on the remote side")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var factor float64
	var files []string
	var follow bool

	cmd := &cobra.Command{
		Use:   "convert <project>",
		Short: "Convert input footage into editables and proxies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindConvert),
				Project: args[0],
				Params:  queue.Params{Factor: factor, Files: files},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().Float64Var(&factor, "factor", 0, "Proxy shrink factor (default from config)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "Convert only the named input files (repeatable)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push converted media to the workstation",
	}
	syncCmd.AddCommand(newSyncSubCommand(ctx, "proxies", queue.KindSyncProxies, "Push the proxy directory"))
	syncCmd.AddCommand(newSyncSubCommand(ctx, "editables", queue.KindSyncEditables, "Push the edit directory"))
	return syncCmd
}

func newSyncSubCommand(ctx *commandContext, use string, kind queue.Kind, short string) *cobra.Command {
	var remote string
	var deleteExtra bool
	var follow bool

	cmd := &cobra.Command{
		Use:   use + " <project>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(kind),
				Project: args[0],
				Params:  queue.Params{RemoteHost: remote, Force: deleteExtra},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Workstation host to push to (default: local)")
	cmd.Flags().BoolVar(&deleteExtra, "delete", false, "Delete files missing on this side")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newFetchEDLCommand(ctx *commandContext) *cobra.Command {
	var remote string
	var edlFile string
	var proxy bool
	var follow bool

	cmd := &cobra.Command{
		Use:   "fetch-edl <project>",
		Short: "Pull the project file from the workstation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindFetchEDL),
				Project: args[0],
				Params:  queue.Params{RemoteHost: remote, EDLFile: edlFile, ProxyEDL: proxy},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Workstation host to pull from (default: local)")
	cmd.Flags().StringVar(&edlFile, "edl", "", "Project file name (default from config)")
	cmd.Flags().BoolVar(&proxy, "proxy", false, "The project was cut against proxy media")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var edlFile string
	var outFile string
	var proxy bool
	var follow bool

	cmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Render the project file into the output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindRender),
				Project: args[0],
				Params: queue.Params{
					Mode:       mode,
					EDLFile:    edlFile,
					OutputFile: outFile,
					ProxyEDL:   proxy,
				},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Renderer: pitivi or cinelerra (default from config)")
	cmd.Flags().StringVar(&edlFile, "edl", "", "Project file name (default from config)")
	cmd.Flags().StringVarP(&outFile, "outfile", "o", "", "Output file name (default from config)")
	cmd.Flags().BoolVar(&proxy, "proxy", false, "The project was cut against proxy media")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var outFile string
	var title string
	var description string
	var category int
	var keywords string
	var privacy string
	var follow bool

	cmd := &cobra.Command{
		Use:   "publish <project>",
		Short: "Upload the rendered output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindPublish),
				Project: args[0],
				Params: queue.Params{
					OutputFile:  outFile,
					Title:       title,
					Description: description,
					Category:    category,
					Keywords:    keywords,
					Privacy:     privacy,
				},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().StringVarP(&outFile, "outfile", "o", "", "Output file name (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "Video title (default derived from project name)")
	cmd.Flags().StringVar(&description, "description", "", "Video description (default: title)")
	cmd.Flags().IntVar(&category, "category", 0, "Upload category id (default from config)")
	cmd.Flags().StringVar(&keywords, "keywords", "", "Comma-separated keywords")
	cmd.Flags().StringVar(&privacy, "privacy", "", "Privacy status (default from config)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	var skip bool
	var inputs bool
	var deleteAfter bool
	var accelerate bool
	var follow bool

	cmd := &cobra.Command{
		Use:   "archive <project>",
		Short: "Archive the project to cold storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindArchive),
				Project: args[0],
				Params: queue.Params{
					Skip:       skip,
					Inputs:     inputs,
					Delete:     deleteAfter,
					Accelerate: accelerate,
				},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().BoolVar(&skip, "skip", false, "Skip files already archived")
	cmd.Flags().BoolVar(&inputs, "inputs", false, "Archive input footage as well")
	cmd.Flags().BoolVar(&deleteAfter, "delete", false, "Delete local files after archiving")
	cmd.Flags().BoolVar(&accelerate, "accelerate", false, "Use accelerated transfer")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}

func newSlideshowCommand(ctx *commandContext) *cobra.Command {
	var duration float64
	var outFile string
	var follow bool

	cmd := &cobra.Command{
		Use:   "slideshow <project> <image>...",
		Short: "Build a slideshow video from still images",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SubmitRequest{
				Kind:    string(queue.KindSlideshow),
				Project: args[0],
				Params: queue.Params{
					Files:      args[1:],
					Duration:   duration,
					OutputFile: outFile,
				},
			}
			return submitJob(cmd, ctx, req, follow)
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "Seconds per image (default 5)")
	cmd.Flags().StringVarP(&outFile, "outfile", "o", "", "Output file name (default slideshow.mp4)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait and stream job output")
	return cmd
}
