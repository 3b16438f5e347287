package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/research-assistant/pkg/database"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeEngine struct {
	result string
	err    error

	mu     sync.Mutex
	topics []string
}

func (f *fakeEngine) Research(_ context.Context, topic, format string) (string, error) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	return f.result, f.err
}

type memoryStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*database.Job
	order     []uuid.UUID
	logs      map[uuid.UUID][]database.LogEntry
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs: make(map[uuid.UUID]*database.Job),
		logs: make(map[uuid.UUID][]database.LogEntry),
	}
}

func (m *memoryStore) CreateJob(_ context.Context, topic, format string) (*database.Job, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	job := &database.Job{ID: uuid.New(), Topic: topic, Format: format, Status: database.StatusPending, CreatedAt: now, UpdatedAt: now}
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	copied := *job
	return &copied, nil
}

func (m *memoryStore) setStatus(id uuid.UUID, fn func(*database.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

func (m *memoryStore) MarkJobRunning(_ context.Context, id uuid.UUID) error {
	return m.setStatus(id, func(j *database.Job) { j.Status = database.StatusRunning })
}

func (m *memoryStore) CompleteJob(_ context.Context, id uuid.UUID, result string) error {
	return m.setStatus(id, func(j *database.Job) {
		j.Status = database.StatusCompleted
		j.Result = &result
	})
}

func (m *memoryStore) FailJob(_ context.Context, id uuid.UUID, reason string) error {
	return m.setStatus(id, func(j *database.Job) {
		j.Status = database.StatusFailed
		j.Error = &reason
	})
}

func (m *memoryStore) GetJob(_ context.Context, id uuid.UUID) (*database.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, errors.New("failed to get job: no rows in result set")
	}
	copied := *job
	return &copied, nil
}

func (m *memoryStore) ListJobs(_ context.Context, limit int) ([]database.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []database.Job
	for i := len(m.order) - 1; i >= 0 && len(jobs) < limit; i-- {
		jobs = append(jobs, *m.jobs[m.order[i]])
	}
	return jobs, nil
}

func (m *memoryStore) InsertLog(_ context.Context, jobID uuid.UUID, ts time.Time, level, message string, metadata []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.logs[jobID]
	m.logs[jobID] = append(entries, database.LogEntry{
		ID:        len(entries) + 1,
		Timestamp: ts,
		Level:     level,
		Message:   message,
		Metadata:  metadata,
	})
	return nil
}

func (m *memoryStore) GetJobLogs(_ context.Context, jobID uuid.UUID) ([]database.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.LogEntry(nil), m.logs[jobID]...), nil
}
