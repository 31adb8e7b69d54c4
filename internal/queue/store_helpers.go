package queue

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job         Job
		kind, lane  string
		status      string
		errMessage  sql.NullString
		createdRaw  string
		updatedRaw  string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	err := scanner.Scan(
		&job.ID,
		&job.JobKey,
		&job.Project,
		&kind,
		&lane,
		&job.ParamsJSON,
		&status,
		&errMessage,
		&job.OutputBytes,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	)
	if err != nil {
		return nil, err
	}

	job.Kind = Kind(kind)
	job.Lane = Lane(lane)
	job.Status = Status(status)
	job.ErrorMessage = errMessage.String

	if job.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimestamp(updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if startedRaw.Valid {
		ts, err := parseTimestamp(startedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		job.StartedAt = &ts
	}
	if finishedRaw.Valid {
		ts, err := parseTimestamp(finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		job.FinishedAt = &ts
	}
	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
