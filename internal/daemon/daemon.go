package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"moviola/internal/config"
	"moviola/internal/logging"
	"moviola/internal/metrics"
	"moviola/internal/project"
	"moviola/internal/queue"
	"moviola/internal/worker"
)

// remoteKinds are job kinds that transfer media to or from a remote host and
// may inherit the caller's address when no remote is given.
var remoteKinds = map[queue.Kind]struct{}{
	queue.KindIngest:        {},
	queue.KindSyncProxies:   {},
	queue.KindSyncEditables: {},
	queue.KindFetchEDL:      {},
}

// Daemon coordinates the background workers and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	workers *worker.Manager
	logPath string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     worker.StatusSummary
	QueueStats   map[string]int
	StageHealth  []StageHealthEntry
	QueueDBPath  string
	LockFilePath string
	LibraryDir   string
}

// StageHealthEntry reports readiness of one registered job handler.
type StageHealthEntry struct {
	Name   string
	Ready  bool
	Detail string
}

// PollResult carries one drain of a job's captured output.
type PollResult struct {
	Job    *queue.Job
	Output string
	Offset int64
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, workers *worker.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || workers == nil {
		return nil, errors.New("daemon requires config, store, logger, and worker manager")
	}

	lockPath := filepath.Join(cfg.LogDir, "moviolad.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workers:  workers,
		logPath:  filepath.Join(cfg.LogDir, "moviola.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start launches the worker manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another moviola daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workers.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workers: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workers.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("moviola daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workers.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("moviola daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Submit validates a request and enqueues a job. The caller's remote address,
// when known, fills in the remote host for transfer kinds that omit one.
func (d *Daemon) Submit(ctx context.Context, kindName, projectName string, params queue.Params, callerAddr string) (*queue.Job, error) {
	kind, ok := queue.ParseKind(kindName)
	if !ok {
		return nil, fmt.Errorf("unknown job kind %q", kindName)
	}
	if _, err := project.NewLayout(d.cfg.LibraryDir, projectName); err != nil {
		return nil, err
	}
	if _, needsRemote := remoteKinds[kind]; needsRemote && params.RemoteHost == "" {
		params.RemoteHost = callerAddr
	}

	job, err := d.store.Enqueue(ctx, kind, projectName, params)
	if err != nil {
		return nil, err
	}
	metrics.JobsSubmittedTotal.WithLabelValues(string(job.Kind), string(job.Lane)).Inc()
	d.logger.Info("job submitted",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldKind, string(job.Kind)),
		logging.String(logging.FieldProject, job.Project))
	return job, nil
}

// Poll returns the job's current state plus any output captured past offset.
func (d *Daemon) Poll(ctx context.Context, id, offset int64) (PollResult, error) {
	job, err := d.store.GetByID(ctx, id)
	if err != nil {
		return PollResult{}, err
	}
	output, next, err := d.store.ReadOutput(ctx, id, offset)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{Job: job, Output: output, Offset: next}, nil
}

// ListJobs returns jobs filtered by optional statuses.
func (d *Daemon) ListJobs(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	return d.store.List(ctx, statuses...)
}

// DescribeJob returns a single job by id.
func (d *Daemon) DescribeJob(ctx context.Context, id int64) (*queue.Job, error) {
	return d.store.GetByID(ctx, id)
}

// Outstanding returns jobs that have not reached a terminal status.
func (d *Daemon) Outstanding(ctx context.Context) ([]*queue.Job, error) {
	return d.store.Outstanding(ctx)
}

// ClearQueue removes all jobs.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed jobs.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RetryFailed resets failed jobs (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// ResetStuck transitions in-flight jobs back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuckRunning(ctx)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("queue stats unavailable", logging.Error(err))
	}
	health := make([]StageHealthEntry, 0)
	for _, h := range d.workers.StageHealth(ctx) {
		health = append(health, StageHealthEntry{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workers.Status(),
		QueueStats:   stats,
		StageHealth:  health,
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		LibraryDir:   d.cfg.LibraryDir,
	}
}
