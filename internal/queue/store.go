package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"moviola/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const jobColumns = `id, job_key, project, kind, lane, params_json, status,
	error_message, length(output), created_at, updated_at, started_at, finished_at`

// Enqueue inserts a new pending job and returns the stored record.
func (s *Store) Enqueue(ctx context.Context, kind Kind, project string, params Params) (*Job, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, errors.New("project is required")
	}
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (job_key, project, kind, lane, params_json, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		project,
		string(kind),
		string(LaneForKind(kind)),
		string(paramsJSON),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// NextForLane returns the oldest pending job in the given lane, or nil.
func (s *Store) NextForLane(ctx context.Context, lane Lane) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE lane = ? AND status = ? ORDER BY id LIMIT 1`,
		string(lane), StatusPending,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next for lane: %w", err)
	}
	return job, nil
}

// MarkRunning transitions a job to running and stamps its start time.
func (s *Store) MarkRunning(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	job.UpdatedAt = now
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		StatusRunning,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return nil
}

// Finish records a terminal status for a job. An empty errMessage marks the
// job completed; anything else marks it failed.
func (s *Store) Finish(ctx context.Context, job *Job, errMessage string) error {
	if job == nil {
		return errors.New("job is nil")
	}
	now := time.Now().UTC()
	status := StatusCompleted
	if strings.TrimSpace(errMessage) != "" {
		status = StatusFailed
	}
	job.Status = status
	job.ErrorMessage = strings.TrimSpace(errMessage)
	job.FinishedAt = &now
	job.UpdatedAt = now
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(job.ErrorMessage),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// AppendOutput appends captured command output to the job record.
func (s *Store) AppendOutput(ctx context.Context, id int64, text string) error {
	if text == "" {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET output = output || ?, updated_at = ? WHERE id = ?`,
		text, now, id,
	)
	if err != nil {
		return fmt.Errorf("append output: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReadOutput returns captured output starting at the given byte offset along
// with the new offset. Offsets past the end return an empty chunk.
func (s *Store) ReadOutput(ctx context.Context, id int64, offset int64) (string, int64, error) {
	if offset < 0 {
		offset = 0
	}
	var chunk string
	var total int64
	row := s.db.QueryRowContext(
		ctx,
		`SELECT substr(output, ?), length(output) FROM jobs WHERE id = ?`,
		offset+1, id,
	)
	if err := row.Scan(&chunk, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, ErrNotFound
		}
		return "", 0, fmt.Errorf("read output: %w", err)
	}
	if offset > total {
		return "", total, nil
	}
	return chunk, total, nil
}

// List returns jobs filtered by status set (or all jobs when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListProject returns all jobs for a project ordered by submission.
func (s *Store) ListProject(ctx context.Context, project string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE project = ? ORDER BY id`,
		strings.TrimSpace(project),
	)
	if err != nil {
		return nil, fmt.Errorf("list project jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// Outstanding returns all jobs that have not reached a terminal status.
func (s *Store) Outstanding(ctx context.Context) ([]*Job, error) {
	return s.List(ctx, StatusPending, StatusRunning)
}

// Clear removes all jobs and reports the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, "", nil)
}

// ClearCompleted removes completed jobs.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, "status = ?", []any{StatusCompleted})
}

// ClearFailed removes failed jobs.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, "status = ?", []any{StatusFailed})
}

// RetryFailed resets failed jobs (optionally a subset) back to pending. The
// previous error and output are discarded so the retry starts clean.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `UPDATE jobs SET status = ?, error_message = NULL, output = '',
        started_at = NULL, finished_at = NULL, updated_at = ? WHERE status = ?`
	args := []any{StatusPending, now, StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckRunning transitions running jobs back to pending. Used at daemon
// startup to recover work interrupted by a crash or hard stop.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, started_at = NULL, output = '', updated_at = ? WHERE status = ?`,
		StatusPending, now, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck running: %w", err)
	}
	return res.RowsAffected()
}

// FailRunning marks all running jobs failed with the given reason. Used when
// the daemon stops without the chance to finish in-flight work.
func (s *Store) FailRunning(ctx context.Context, reason string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, updated_at = ? WHERE status = ?`,
		StatusFailed, reason, now, now, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail running: %w", err)
	}
	return res.RowsAffected()
}

// Health returns aggregate job counts.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("health query: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}

// Stats returns per-status job counts keyed by status name.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	summary, err := s.Health(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		string(StatusPending):   summary.Pending,
		string(StatusRunning):   summary.Running,
		string(StatusCompleted): summary.Completed,
		string(StatusFailed):    summary.Failed,
	}, nil
}

func (s *Store) deleteWhere(ctx context.Context, where string, args []any) (int64, error) {
	query := `DELETE FROM jobs`
	if where != "" {
		query += ` WHERE ` + where
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	return res.RowsAffected()
}
