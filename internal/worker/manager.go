// Package worker coordinates job execution: one goroutine per lane polls
// the queue for pending jobs and runs the registered handler for each,
// streaming captured tool output back into the job record.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"moviola/internal/config"
	"moviola/internal/logging"
	"moviola/internal/metrics"
	"moviola/internal/queue"
	"moviola/internal/stage"
)

// Manager runs registered handlers against the job queue.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration

	handlers map[queue.Kind]stage.Handler

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// NewManager constructs a worker manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "worker"),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		handlers:      make(map[queue.Kind]stage.Handler),
	}
}

// Register installs a handler for its job kind. Later registrations for the
// same kind replace earlier ones.
func (m *Manager) Register(handler stage.Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[handler.Kind()] = handler
}

// Start begins background processing, one goroutine per lane. Jobs left
// running by a previous daemon are reset to pending first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("worker already running")
	}
	if len(m.handlers) == 0 {
		m.mu.Unlock()
		return errors.New("no job handlers registered")
	}

	if reset, err := m.store.ResetStuckRunning(ctx); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("reset stuck jobs: %w", err)
	} else if reset > 0 {
		m.logger.Info("reset interrupted jobs to pending", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	lanes := queue.AllLanes()
	m.wg.Add(len(lanes))
	m.mu.Unlock()

	for _, lane := range lanes {
		go m.runLane(runCtx, lane)
	}
	return nil
}

// Stop terminates background processing and waits for lanes to drain. Jobs
// interrupted mid-flight are marked failed so pollers see a terminal state.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if failed, err := m.store.FailRunning(ctx, queue.DaemonStopReason); err != nil {
		m.logger.Warn("failed to mark interrupted jobs", logging.Error(err))
	} else if failed > 0 {
		m.logger.Info("marked interrupted jobs failed", logging.Int64("count", failed))
	}
}

// Running reports whether the manager is processing jobs.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runLane(ctx context.Context, lane queue.Lane) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldLane, string(lane)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.NextForLane(ctx, lane)
		if err != nil {
			m.setLastError(err)
			logger.Error("failed to fetch next job", logging.Error(err))
			if !m.sleep(ctx, m.retryInterval) {
				return
			}
			continue
		}
		if job == nil {
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
			continue
		}

		if err := m.processJob(ctx, logger, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Store failures would otherwise re-fetch the same job in a
			// tight loop.
			if !m.sleep(ctx, m.retryInterval) {
				return
			}
		}
	}
}

func (m *Manager) processJob(ctx context.Context, laneLogger *slog.Logger, job *queue.Job) error {
	logger := laneLogger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldKind, string(job.Kind)),
		logging.String(logging.FieldProject, job.Project),
	)

	handler := m.handlerFor(job.Kind)
	if handler == nil {
		message := fmt.Sprintf("no handler registered for kind %s", job.Kind)
		logger.Error("job rejected", logging.String("reason", message))
		if err := m.store.Finish(ctx, job, message); err != nil {
			logger.Error("failed to persist rejection", logging.Error(err))
		}
		m.setLastJob(job)
		return nil
	}

	if err := m.store.MarkRunning(ctx, job); err != nil {
		m.setLastError(err)
		logger.Error("failed to mark job running", logging.Error(err))
		return err
	}
	m.setLastJob(job)
	metrics.JobsRunning.WithLabelValues(string(job.Lane)).Inc()
	logger.Info("job started")

	start := time.Now()
	sink := newOutputSink(m.store, job.ID, logger)
	execErr := handler.Execute(ctx, job, sink)
	sink.Close()
	duration := time.Since(start)
	metrics.JobsRunning.WithLabelValues(string(job.Lane)).Dec()
	metrics.JobDuration.WithLabelValues(string(job.Kind), string(job.Lane)).Observe(duration.Seconds())

	// Persist the outcome even when the run context is gone.
	finishCtx := ctx
	if ctx.Err() != nil {
		var done context.CancelFunc
		finishCtx, done = context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
	}

	if execErr != nil {
		message := execErr.Error()
		if errors.Is(execErr, context.Canceled) {
			message = queue.DaemonStopReason
		}
		m.setLastError(execErr)
		metrics.JobsFailedTotal.WithLabelValues(string(job.Kind), string(job.Lane)).Inc()
		if err := m.store.Finish(finishCtx, job, message); err != nil {
			logger.Error("failed to persist job failure", logging.Error(err))
		}
		m.setLastJob(job)
		logger.Error("job failed",
			logging.Error(execErr),
			logging.Duration("duration", duration),
		)
		if errors.Is(execErr, context.Canceled) {
			return execErr
		}
		return nil
	}

	metrics.JobsCompletedTotal.WithLabelValues(string(job.Kind), string(job.Lane)).Inc()
	if err := m.store.Finish(finishCtx, job, ""); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist job completion", logging.Error(err))
		return err
	}
	m.setLastJob(job)
	logger.Info("job completed", logging.Duration("duration", duration))
	return nil
}

func (m *Manager) handlerFor(kind queue.Kind) stage.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handlers[kind]
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *Manager) setLastJob(job *queue.Job) {
	if job == nil {
		return
	}
	cp := *job
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastJob = &cp
}

// StatusSummary captures manager state for status reporting.
type StatusSummary struct {
	Running   bool
	LastError string
	LastJob   *queue.Job
}

// Status returns a snapshot of manager state.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := StatusSummary{Running: m.running}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		cp := *m.lastJob
		summary.LastJob = &cp
	}
	return summary
}

// StageHealth reports readiness of every registered handler, ordered by kind.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	m.mu.RLock()
	handlers := make([]stage.Handler, 0, len(m.handlers))
	for _, handler := range m.handlers {
		handlers = append(handlers, handler)
	}
	m.mu.RUnlock()

	sort.Slice(handlers, func(i, j int) bool {
		return handlers[i].Kind() < handlers[j].Kind()
	})
	health := make([]stage.Health, 0, len(handlers))
	for _, handler := range handlers {
		health = append(health, handler.HealthCheck(ctx))
	}
	return health
}
