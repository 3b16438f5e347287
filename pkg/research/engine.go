package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

const systemPrompt = `You are a research assistant. Your goal is to find concise information on topics provided by the user.
Return research results strictly and only in the format the user asks for:
- summary: 3-4 sentences
- bullet points: max 5 points, one per line, each starting with "- "
- short report: max 150 words
- or a custom user-defined format.
Do not add any preamble or closing remarks.`

// ResearchEngine turns a topic and output format into research text using an LLM.
type ResearchEngine struct {
	Config Config
	LLM    llms.Model
	Logger *slog.Logger

	// backoff is the base delay between retries.
	backoff time.Duration
}

func NewEngine(cfg Config, llm llms.Model) (*ResearchEngine, error) {
	if llm == nil {
		return nil, errors.New("llm is required")
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "summary"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &ResearchEngine{
		Config:  cfg,
		LLM:     llm,
		Logger:  slog.Default(),
		backoff: time.Second,
	}, nil
}

// Prompt builds the user message for a topic and format.
func (e *ResearchEngine) Prompt(topic, format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		format = e.Config.DefaultFormat
	}
	return fmt.Sprintf("Please provide a %s on the topic: %s", format, strings.TrimSpace(topic))
}

// Research generates research text for topic in the requested format.
func (e *ResearchEngine) Research(ctx context.Context, topic, format string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("topic is required")
	}

	log := loggerFrom(ctx, e.Logger)
	input := e.Prompt(topic, format)
	log.Info("Starting research", "topic", topic, "format", format)

	content, err := e.generateWithRetry(ctx, log, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input),
	}, func(content string) error {
		if strings.TrimSpace(content) == "" {
			return errors.New("empty response")
		}
		return nil
	})
	if err != nil {
		log.Error("Research generation failed", "error", err)
		return "", err
	}

	result := strings.TrimSpace(content)
	log.Info("Research complete", "size", len(result))
	return result, nil
}

// generateWithRetry attempts to generate content and validates it using the provided function.
// It retries up to MaxRetries times if the LLM fails or the validator returns an error.
func (e *ResearchEngine) generateWithRetry(ctx context.Context, log *slog.Logger, prompts []llms.MessageContent, validator func(string) error) (string, error) {
	maxRetries := e.Config.MaxRetries
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			log.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.backoff * time.Duration(i)): // Linear backoff
			}
		}

		resp, err := e.LLM.GenerateContent(ctx, prompts)
		if err != nil {
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.New("llm returned no choices")
			continue
		}

		content := resp.Choices[0].Content
		if err := validator(content); err != nil {
			lastErr = fmt.Errorf("validation failed: %w", err)
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
}
