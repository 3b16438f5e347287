package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// LogWriter persists job log records.
type LogWriter interface {
	InsertLog(ctx context.Context, jobID uuid.UUID, ts time.Time, level, message string, metadata []byte) error
}

// DBLogHandler is a slog.Handler that writes records to the research_logs
// table of one job and forwards them to the console handler.
type DBLogHandler struct {
	Store LogWriter
	JobID uuid.UUID
	Next  slog.Handler

	attrs []slog.Attr
}

func NewDBLogHandler(store LogWriter, jobID uuid.UUID, next slog.Handler) *DBLogHandler {
	return &DBLogHandler{
		Store: store,
		JobID: jobID,
		Next:  next,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // Log everything to the job
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.Next != nil && h.Next.Enabled(ctx, r.Level) {
		_ = h.Next.Handle(ctx, r.Clone())
	}

	// Extract attributes to JSON
	attrs := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = attrValue(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = attrValue(a)
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		// Fallback for marshal error
		metaJSON = []byte("{}")
	}

	// The request context may already be cancelled when the last records are written.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Store.InsertLog(ctx, h.JobID, r.Time, r.Level.String(), r.Message, metaJSON)
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.Next != nil {
		clone.Next = h.Next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup only affects the forwarded console output; job metadata stays flat.
func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.Next != nil {
		clone.Next = h.Next.WithGroup(name)
	}
	return &clone
}

func attrValue(a slog.Attr) interface{} {
	v := a.Value.Resolve().Any()
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}
