// Package render implements the render job: an EDL cut against editable
// (or proxy) media is handed to an external renderer, producing the final
// video in the project's output directory.
package render

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/fileutil"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Render modes.
const (
	ModePitivi    = "pitivi"
	ModeCinelerra = "cinelerra"
)

// BatchFileName is the cinelerra batch document written into edit/.
const BatchFileName = "batchlist.xml"

// Renderer drives the configured external renderer.
type Renderer struct {
	cfg    *config.Config
	runner command.Runner
}

// NewRenderer constructs the render handler.
func NewRenderer(cfg *config.Config, runner command.Runner) *Renderer {
	return &Renderer{cfg: cfg, runner: runner}
}

func (h *Renderer) Kind() queue.Kind { return queue.KindRender }

func (h *Renderer) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}

	layout, err := project.NewLayout(h.cfg.LibraryDir, job.Project)
	if err != nil {
		return err
	}

	mode := strings.ToLower(strings.TrimSpace(params.Mode))
	if mode == "" {
		mode = h.cfg.Render.Mode
	}
	edlName := strings.TrimSpace(params.EDLFile)
	if edlName == "" {
		edlName = h.cfg.Render.EDLFile
	}
	outName := strings.TrimSpace(params.OutputFile)
	if outName == "" {
		outName = h.cfg.Render.OutputFile
	}

	if err := layout.Ensure(layout.EditDir(), layout.OutputDir()); err != nil {
		return err
	}
	edlPath := filepath.Join(layout.EditDir(), edlName)
	outputPath := filepath.Join(layout.OutputDir(), outName)

	switch mode {
	case ModePitivi:
		return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.PitiviRender, edlPath, outputPath)
	case ModeCinelerra:
		return h.renderCinelerra(ctx, layout, edlPath, outputPath, edlName, params.ProxyEDL, out)
	default:
		return fmt.Errorf("unknown render mode %q", mode)
	}
}

// renderCinelerra optionally rewrites a proxy-cut EDL back onto the
// editable media, then renders it through a generated batch document.
func (h *Renderer) renderCinelerra(ctx context.Context, layout project.Layout, edlPath, outputPath, edlName string, proxy bool, out stage.Sink) error {
	if proxy {
		factor := layout.ReadProxyFactor()
		proxyEDL := filepath.Join(layout.ProxyDir(), edlName)
		if err := fileutil.CopyFile(proxyEDL, edlPath); err != nil {
			return fmt.Errorf("stage proxy EDL: %w", err)
		}

		// Rewrite proxy media references to their editable counterparts,
		// undoing the proxy scale factor.
		err := stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.ProxyChange,
			edlPath,
			"-f", layout.ProxyDir()+"/(.*)$",
			"-t", layout.EditDir()+"/\\1",
			"-s", strconv.FormatFloat(factor, 'g', -1, 64),
			"-v", "-a",
		)
		if err != nil {
			return err
		}
	}

	batchPath := filepath.Join(layout.EditDir(), BatchFileName)
	if err := WriteBatchList(batchPath, edlPath, outputPath); err != nil {
		return err
	}
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Cinelerra, "-r", batchPath)
}

func (h *Renderer) HealthCheck(context.Context) stage.Health {
	binary := h.cfg.Tools.PitiviRender
	if h.cfg.Render.Mode == ModeCinelerra {
		binary = h.cfg.Tools.Cinelerra
	}
	return stage.ToolHealth(string(h.Kind()), binary, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Renderer)(nil)
