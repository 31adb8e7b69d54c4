package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"moviola/internal/command"
	"moviola/internal/config"
	"moviola/internal/convert"
	"moviola/internal/daemon"
	"moviola/internal/ipc"
	"moviola/internal/logging"
	"moviola/internal/publish"
	"moviola/internal/queue"
	"moviola/internal/render"
	"moviola/internal/slideshow"
	"moviola/internal/transfer"
	"moviola/internal/worker"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.LogDir, "moviola.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := worker.NewManager(cfg, store, logger)
	registerHandlers(manager, cfg)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := ctx.socketPath()
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("moviola daemon shutting down")
	return nil
}

func registerHandlers(manager *worker.Manager, cfg *config.Config) {
	if manager == nil || cfg == nil {
		return
	}

	runner := command.NewExecutor(
		command.WithScriptsDir(cfg.ScriptsDir),
		command.WithTimeout(time.Duration(cfg.Workflow.JobTimeout)*time.Second),
	)

	manager.Register(transfer.NewIngest(cfg, runner))
	manager.Register(transfer.NewSyncProxies(cfg, runner))
	manager.Register(transfer.NewSyncEditables(cfg, runner))
	manager.Register(transfer.NewFetchEDL(cfg, runner))
	manager.Register(convert.NewConverter(cfg, runner))
	manager.Register(render.NewRenderer(cfg, runner))
	manager.Register(publish.NewPublisher(cfg, runner))
	manager.Register(publish.NewArchiver(cfg, runner))
	manager.Register(slideshow.NewBuilder(cfg, runner))
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
