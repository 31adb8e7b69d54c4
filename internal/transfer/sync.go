package transfer

import (
	"context"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Sync pushes a converted media directory (proxies or editables) out to the
// remote workstation.
type Sync struct {
	cfg    *config.Config
	runner command.Runner
	kind   queue.Kind
	dir    func(project.Layout) string
}

// NewSyncProxies constructs the handler that pushes the proxy directory.
func NewSyncProxies(cfg *config.Config, runner command.Runner) *Sync {
	return &Sync{cfg: cfg, runner: runner, kind: queue.KindSyncProxies, dir: project.Layout.ProxyDir}
}

// NewSyncEditables constructs the handler that pushes the edit directory.
func NewSyncEditables(cfg *config.Config, runner command.Runner) *Sync {
	return &Sync{cfg: cfg, runner: runner, kind: queue.KindSyncEditables, dir: project.Layout.EditDir}
}

func (h *Sync) Kind() queue.Kind { return h.kind }

func (h *Sync) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
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
	dir := h.dir(layout) + "/"
	if err := layout.Ensure(h.dir(layout)); err != nil {
		return err
	}

	args := []string{"-avt"}
	if params.Force {
		args = append(args, "--delete")
	}
	args = append(args, dir, remoteSpec(remote, dir))
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Rsync, args...)
}

func (h *Sync) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.kind), h.cfg.Tools.Rsync, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Sync)(nil)
