package transfer

import (
	"context"
	"fmt"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Ingest pulls raw footage from the remote workstation into the project's
// input directory.
type Ingest struct {
	cfg    *config.Config
	runner command.Runner
}

// NewIngest constructs the ingest handler.
func NewIngest(cfg *config.Config, runner command.Runner) *Ingest {
	return &Ingest{cfg: cfg, runner: runner}
}

func (h *Ingest) Kind() queue.Kind { return queue.KindIngest }

func (h *Ingest) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}

	remote := ResolveRemote(params.RemoteHost)
	if IsLocal(remote) {
		out.Line(LocalRequestMessage)
		return nil
	}

	layout, err := project.NewLayout(h.cfg.LibraryDir, job.Project)
	if err != nil {
		return err
	}
	if err := project.CheckFreeSpace(h.cfg.LibraryDir, h.cfg.Workflow.MinFreeSpaceGiB); err != nil {
		return fmt.Errorf("ingest preflight: %w", err)
	}
	if err := layout.Ensure(layout.InputDir()); err != nil {
		return err
	}

	dir := layout.InputDir() + "/"
	args := []string{"-avt"}
	if params.Force {
		args = append(args, "--delete")
	}
	args = append(args, remoteSpec(remote, dir), dir)
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Rsync, args...)
}

func (h *Ingest) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Rsync, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Ingest)(nil)
