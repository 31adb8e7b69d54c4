// Package convert implements the conversion job: raw input footage is fed
// through the external transcoder, which produces a full-resolution
// editable copy in edit/ and a shrunken proxy in proxy/.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Converter runs the transcoder over selected input files.
type Converter struct {
	cfg    *config.Config
	runner command.Runner
}

// NewConverter constructs the convert handler.
func NewConverter(cfg *config.Config, runner command.Runner) *Converter {
	return &Converter{cfg: cfg, runner: runner}
}

func (h *Converter) Kind() queue.Kind { return queue.KindConvert }

func (h *Converter) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}

	layout, err := project.NewLayout(h.cfg.LibraryDir, job.Project)
	if err != nil {
		return err
	}
	if err := project.CheckFreeSpace(h.cfg.LibraryDir, h.cfg.Workflow.MinFreeSpaceGiB); err != nil {
		return fmt.Errorf("convert preflight: %w", err)
	}
	if err := layout.Ensure(layout.InputDir(), layout.EditDir(), layout.ProxyDir()); err != nil {
		return err
	}

	factor := params.Factor
	if factor <= 0 {
		factor = h.cfg.Convert.Factor
	}

	files, err := SelectFiles(layout, params.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		out.Line(fmt.Sprintf("no files in project %s", job.Project))
		return nil
	}

	if err := layout.WriteProxyFactor(factor); err != nil {
		return err
	}

	factorArg := strconv.FormatFloat(factor, 'g', -1, 64)
	for _, file := range files {
		out.Line("")
		if err := stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Transcoder,
			"--factor", factorArg, file); err != nil {
			return err
		}
	}
	return nil
}

func (h *Converter) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Transcoder, h.cfg.ScriptsDir)
}

// SelectFiles resolves the requested file names against the project input
// directory, or walks the whole directory when none are named. The result
// is deduplicated, restricted to files that exist, and sorted.
func SelectFiles(layout project.Layout, requested []string) ([]string, error) {
	var candidates []string
	if len(requested) == 0 {
		all, err := layout.InputFiles()
		if err != nil {
			return nil, err
		}
		candidates = all
	} else {
		for _, name := range requested {
			candidates = append(candidates, filepath.Join(layout.InputDir(), name))
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var files []string
	for _, file := range candidates {
		if _, ok := seen[file]; ok {
			continue
		}
		seen[file] = struct{}{}
		if info, err := os.Stat(file); err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

var _ stage.Handler = (*Converter)(nil)
