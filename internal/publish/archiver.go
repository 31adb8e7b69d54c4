package publish

import (
	"context"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Archiver pushes a finished project into cold storage.
type Archiver struct {
	cfg    *config.Config
	runner command.Runner
}

// NewArchiver constructs the archive handler.
func NewArchiver(cfg *config.Config, runner command.Runner) *Archiver {
	return &Archiver{cfg: cfg, runner: runner}
}

func (h *Archiver) Kind() queue.Kind { return queue.KindArchive }

func (h *Archiver) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}

	args := []string{"--project", job.Project}
	if params.Skip {
		args = append(args, "--skip")
	}
	if params.Inputs {
		args = append(args, "--inputs")
	}
	if params.Delete {
		args = append(args, "--delete")
	}
	if params.Accelerate {
		args = append(args, "--accelerate")
	}
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Archiver, args...)
}

func (h *Archiver) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Archiver, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Archiver)(nil)
