// Package summary produces a summary of the whole document text.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/docqa/internal/errs"
)

// LargeInputTokens is the estimated prompt size above which a warning is
// logged. The text is never truncated; the backend decides whether it fits.
const LargeInputTokens = 100000

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer asks a generative model for a summary of a text.
type Summarizer struct {
	generator Generator
	logger    *slog.Logger
}

// NewSummarizer creates a summarizer backed by generator.
func NewSummarizer(generator Generator, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{generator: generator, logger: logger}
}

// BuildPrompt returns the summarization prompt for text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Summarize the following text in a concise and informative way,
capturing all the main points making message of text understandable:

%s`, text)
}

// Summarize sends the full text in a single call and returns the model output
// unchanged. Blank text is sent as is. Failures match errs.ErrGeneration.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if tokens := estimateTokens(text); tokens > LargeInputTokens {
		s.logger.Warn("Summarizing large input", "chars", len(text), "estimated_tokens", tokens)
	}

	summary, err := s.generator.Generate(ctx, BuildPrompt(text))
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %w", errs.ErrGeneration, err)
	}

	s.logger.Debug("Generated summary", "input_chars", len(text), "summary_chars", len(summary))
	return summary, nil
}

// estimateTokens uses the rough estimate of 4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
