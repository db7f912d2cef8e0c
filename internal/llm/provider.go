// Package llm adapts hosted generative models to the text generation and
// OCR contracts used by the pipeline.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/docqa/internal/errs"
)

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultTimeout bounds every outbound model call.
const DefaultTimeout = 60 * time.Second

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Backend is a Generator that can also read text from a page image.
type Backend interface {
	Generator
	ExtractText(ctx context.Context, image []byte, instruction string) (string, error)
}

// ParseProvider normalises a provider name.
func ParseProvider(name string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case ProviderGemini, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown model provider %q (want %s or %s)",
			errs.ErrConfiguration, name, ProviderGemini, ProviderOpenAI)
	}
}

// callOptions are shared by both backends.
type callOptions struct {
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func (o callOptions) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// observe logs the outcome of one model call.
func (o callOptions) observe(op string, start time.Time, outLen int, err error) {
	if err != nil {
		o.logger.Debug("Model call failed", "op", op, "model", o.model, "duration", time.Since(start), "error", err)
		return
	}
	o.logger.Debug("Model call completed", "op", op, "model", o.model, "duration", time.Since(start), "response_length", outLen)
}
