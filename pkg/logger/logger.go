// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds the configuration of the logger.
type Config struct {
	Level  slog.Level
	Format string
	Output io.Writer
}

// FromConfig maps the LOG_LEVEL / LOG_FORMAT strings to a logger Config.
func FromConfig(logLevel, logFormat string) Config {
	cfg := Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stdout,
	}

	switch strings.ToLower(logLevel) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}

	if logFormat != "" {
		cfg.Format = logFormat
	}
	return cfg
}

// New returns a JSON logger for Format "json" and a colored text logger otherwise.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: cfg.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String(a.Key, a.Value.Time().Format(time.RFC3339))
				}
				return a
			},
		}))
	}

	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      cfg.Level,
		TimeFormat: time.Kitchen,
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
