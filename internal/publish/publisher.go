// Package publish implements the outward-facing job kinds: uploading a
// rendered video through the external upload tool and archiving a project
// to cold storage through the external archive tool.
package publish

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Publisher uploads a rendered output file.
type Publisher struct {
	cfg    *config.Config
	runner command.Runner
}

// NewPublisher constructs the publish handler.
func NewPublisher(cfg *config.Config, runner command.Runner) *Publisher {
	return &Publisher{cfg: cfg, runner: runner}
}

func (h *Publisher) Kind() queue.Kind { return queue.KindPublish }

func (h *Publisher) Execute(ctx context.Context, job *queue.Job, out stage.Sink) error {
	params, err := job.Params()
	if err != nil {
		return err
	}

	layout, err := project.NewLayout(h.cfg.LibraryDir, job.Project)
	if err != nil {
		return err
	}

	outName := strings.TrimSpace(params.OutputFile)
	if outName == "" {
		outName = h.cfg.Render.OutputFile
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = DeriveTitle(job.Project)
	}
	description := strings.TrimSpace(params.Description)
	if description == "" {
		description = title
	}
	category := params.Category
	if category == 0 {
		category = h.cfg.Publish.Category
	}
	keywords := strings.TrimSpace(params.Keywords)
	if keywords == "" {
		keywords = "none"
	}
	privacy := strings.TrimSpace(params.Privacy)
	if privacy == "" {
		privacy = h.cfg.Publish.Privacy
	}

	path := filepath.Join(layout.OutputDir(), outName)
	return stage.RunLogged(ctx, h.runner, out, h.cfg.Tools.Uploader,
		"--file", path,
		"--title", title,
		"--description", description,
		"--category", strconv.Itoa(category),
		"--keywords", keywords,
		"--privacyStatus", privacy,
		"--noauth_local_webserver",
	)
}

func (h *Publisher) HealthCheck(context.Context) stage.Health {
	return stage.ToolHealth(string(h.Kind()), h.cfg.Tools.Uploader, h.cfg.ScriptsDir)
}

var _ stage.Handler = (*Publisher)(nil)
