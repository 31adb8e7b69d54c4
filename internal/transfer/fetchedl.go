package transfer

import (
	"context"
	"path/filepath"
	"strings"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/fileutil"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// FetchEDL pulls the project file from the workstation into edit/ (or
// proxy/ when the edit was cut against proxy media).
type FetchEDL struct {
	cfg    *config.Config
	runner command.Runner
}

// NewFetchEDL constructs the fetch-edl handler.
func NewFetchEDL(cfg *config.Config, runner command.Runner) *FetchEDL {
	return &FetchEDL{cfg: cfg, runner: runner}
}

func (h *FetchEDL) Kind() queue.Kind { return queue.KindFetchEDL }

func (h *FetchEDL) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
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

	edlName := strings.TrimSpace(params.EDLFile)
	if edlName == "" {
		edlName = h.cfg.Render.EDLFile
	}
	dir := layout.EditDir()
	if params.ProxyEDL {
		dir = layout.ProxyDir()
	}
	if err := layout.Ensure(dir); err != nil {
		return err
	}

	path := filepath.Join(dir, edlName)
	// Keep the previous cut around before rsync overwrites it.
	if err := fileutil.BackupFile(path); err != nil {
		return err
	}
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Rsync,
		"-avt", remoteSpec(remote, path), path)
}

func (h *FetchEDL) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Rsync, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*FetchEDL)(nil)
