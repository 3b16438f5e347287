package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mikeboe/research-assistant/pkg/database"
	"github.com/mikeboe/research-assistant/pkg/research"
)

// ErrNoDatabase is returned by job queries when no database is configured.
var ErrNoDatabase = errors.New("job history requires DATABASE_URL")

// Researcher produces research text. *research.ResearchEngine satisfies it.
type Researcher interface {
	Research(ctx context.Context, topic, format string) (string, error)
}

// JobStore records research requests and their logs.
type JobStore interface {
	LogWriter
	CreateJob(ctx context.Context, topic, format string) (*database.Job, error)
	MarkJobRunning(ctx context.Context, id uuid.UUID) error
	CompleteJob(ctx context.Context, id uuid.UUID, result string) error
	FailJob(ctx context.Context, id uuid.UUID, reason string) error
	GetJob(ctx context.Context, id uuid.UUID) (*database.Job, error)
	ListJobs(ctx context.Context, limit int) ([]database.Job, error)
	GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]database.LogEntry, error)
}

// Info describes the backend for the health endpoints.
type Info struct {
	Model     string
	APIKeySet bool
}

type Service struct {
	Engine Researcher
	Store  JobStore // nil disables job recording
	Logger *slog.Logger
	Info   Info
}

func NewService(engine Researcher, store JobStore, logger *slog.Logger, info Info) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Engine: engine,
		Store:  store,
		Logger: logger,
		Info:   info,
	}
}

// Research runs one research request and maps the outcome to the response
// envelope. When a store is configured the request is recorded as a job whose
// id is returned; otherwise the id is uuid.Nil.
func (s *Service) Research(ctx context.Context, req research.Request) (research.Response, uuid.UUID) {
	log := s.Logger
	jobID := uuid.Nil

	if s.Store != nil {
		job, err := s.Store.CreateJob(ctx, req.Topic, req.Format)
		if err != nil {
			// Recording is best effort; the request itself still runs.
			log.Error("Failed to record research job", "error", err)
		} else {
			jobID = job.ID
			log = slog.New(NewDBLogHandler(s.Store, jobID, s.Logger.Handler())).With("job_id", jobID.String())
			if err := s.Store.MarkJobRunning(ctx, jobID); err != nil {
				log.Error("Failed to update job status", "error", err)
			}
		}
	}

	log.Info("Processing research request", "topic", req.Topic, "format", req.Format)

	result, err := s.Engine.Research(research.ContextWithLogger(ctx, log), req.Topic, req.Format)
	if err != nil {
		reason := fmt.Sprintf("Failed to process research request: %v", err)
		log.Error(reason)
		if jobID != uuid.Nil {
			if err := s.Store.FailJob(context.WithoutCancel(ctx), jobID, reason); err != nil {
				log.Error("Failed to update job status", "error", err)
			}
		}
		return research.Response{Success: false, Error: reason}, jobID
	}

	if jobID != uuid.Nil {
		if err := s.Store.CompleteJob(context.WithoutCancel(ctx), jobID, result); err != nil {
			log.Error("Failed to save research result", "error", err)
		}
	}
	return research.Response{Success: true, Result: result}, jobID
}

// Validate checks an incoming request before it reaches the engine.
func Validate(req research.Request) error {
	if strings.TrimSpace(req.Topic) == "" {
		return errors.New("topic is required")
	}
	return nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*database.Job, error) {
	if s.Store == nil {
		return nil, ErrNoDatabase
	}
	return s.Store.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]database.Job, error) {
	if s.Store == nil {
		return nil, ErrNoDatabase
	}
	return s.Store.ListJobs(ctx, limit)
}

func (s *Service) GetJobLogs(ctx context.Context, id uuid.UUID) ([]database.LogEntry, error) {
	if s.Store == nil {
		return nil, ErrNoDatabase
	}
	return s.Store.GetJobLogs(ctx, id)
}
