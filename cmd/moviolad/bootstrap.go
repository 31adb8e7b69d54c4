package main

import (
	"path/filepath"
	"time"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/convert"
	"moviola/internal/publish"
	"moviola/internal/render"
	"moviola/internal/slideshow"
	"moviola/internal/stage"
	"moviola/internal/transfer"
)

type handlerRegistrar interface {
	Register(stage.Handler)
}

func registerHandlers(reg handlerRegistrar, cfg *config.Config) {
	if reg == nil || cfg == nil {
		return
	}

	runner := command.NewExecutor(
		command.WithScriptsDir(cfg.ScriptsDir),
		command.WithTimeout(time.Duration(cfg.Workflow.JobTimeout)*time.Second),
	)

	reg.Register(transfer.NewIngest(cfg, runner))
	reg.Register(transfer.NewSyncProxies(cfg, runner))
	reg.Register(transfer.NewSyncEditables(cfg, runner))
	reg.Register(transfer.NewFetchEDL(cfg, runner))
	reg.Register(convert.NewConverter(cfg, runner))
	reg.Register(render.NewRenderer(cfg, runner))
	reg.Register(publish.NewPublisher(cfg, runner))
	reg.Register(publish.NewArchiver(cfg, runner))
	reg.Register(slideshow.NewBuilder(cfg, runner))
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "moviola.sock")
	}
	return filepath.Join(cfg.LogDir, "moviola.sock")
}
