// Package slideshow implements the slideshow job: still images are stitched
// into a video by the external slideshow tool.
package slideshow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// DefaultDuration is the per-image display time in seconds.
const DefaultDuration = 5

// DefaultOutputFile is the slideshow output name when none is given.
const DefaultOutputFile = "slideshow.mp4"

// Builder runs the external slideshow tool.
type Builder struct {
	cfg    *config.Config
	runner command.Runner
}

// NewBuilder constructs the slideshow handler.
func NewBuilder(cfg *config.Config, runner command.Runner) *Builder {
	return &Builder{cfg: cfg, runner: runner}
}

func (h *Builder) Kind() queue.Kind { return queue.KindSlideshow }

func (h *Builder) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}
	if len(params.Files) == 0 {
		return errors.New("slideshow requires at least one image file")
	}

	duration := params.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	outName := strings.TrimSpace(params.OutputFile)
	if outName == "" {
		outName = DefaultOutputFile
	}

	args := []string{
		"--project", job.Project,
		"--duration", strconv.FormatFloat(duration, 'g', -1, 64),
		"--outfile", outName,
	}
	args = append(args, params.Files...)
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Slideshow, args...)
}

func (h *Builder) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Slideshow, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Builder)(nil)
