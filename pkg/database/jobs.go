package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one recorded research request.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Result    *string   `json:"result,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (db *PostgresDB) CreateJob(ctx context.Context, topic, format string) (*Job, error) {
	query := `
		INSERT INTO research_jobs (id, topic, format, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, topic, format, status, created_at, updated_at
	`

	job := &Job{}
	err := db.Pool.QueryRow(ctx, query, uuid.New(), topic, format).Scan(
		&job.ID, &job.Topic, &job.Format, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

func (db *PostgresDB) MarkJobRunning(ctx context.Context, id uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	return nil
}

func (db *PostgresDB) CompleteJob(ctx context.Context, id uuid.UUID, result string) error {
	_, err := db.Pool.Exec(ctx,
		"UPDATE research_jobs SET status = 'completed', result = $2, error = NULL, updated_at = NOW() WHERE id = $1",
		id, result)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

func (db *PostgresDB) FailJob(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := db.Pool.Exec(ctx,
		"UPDATE research_jobs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1",
		id, reason)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, topic, format, status, result, error, created_at, updated_at
		FROM research_jobs
		WHERE id = $1
	`
	job := &Job{}
	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Topic, &job.Format, &job.Status, &job.Result, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (db *PostgresDB) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, topic, format, status, result, error, created_at, updated_at
		FROM research_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Topic, &job.Format, &job.Status, &job.Result, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (db *PostgresDB) InsertLog(ctx context.Context, jobID uuid.UUID, ts time.Time, level, message string, metadata []byte) error {
	query := `
		INSERT INTO research_logs (job_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.Pool.Exec(ctx, query, jobID, ts, level, message, metadata)
	return err
}

func (db *PostgresDB) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := db.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
