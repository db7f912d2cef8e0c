package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/bull/docqa/internal/errs"
)

// DefaultGeminiModel is used for generation and OCR when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// NewGeminiClient creates a genai client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY not set", errs.ErrConfiguration)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return client, nil
}

// Gemini generates text and reads page images with a Gemini model.
type Gemini struct {
	client *genai.Client
	opts   callOptions
}

var _ Backend = (*Gemini)(nil)

// NewGemini creates a Gemini backend. Empty model and non-positive timeout
// fall back to DefaultGeminiModel and DefaultTimeout.
func NewGemini(client *genai.Client, model string, timeout time.Duration, logger *slog.Logger) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		client: client,
		opts:   callOptions{model: model, timeout: timeout, logger: logger},
	}
}

// Generate sends a single text prompt.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, "generate", genai.NewPartFromText(prompt))
}

// ExtractText sends a PNG page image followed by the instruction.
func (g *Gemini) ExtractText(ctx context.Context, image []byte, instruction string) (string, error) {
	return g.generate(ctx, "ocr",
		genai.NewPartFromBytes(image, "image/png"),
		genai.NewPartFromText(instruction),
	)
}

func (g *Gemini) generate(ctx context.Context, op string, parts ...*genai.Part) (string, error) {
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.model, contents, nil)
	if err != nil {
		err = fmt.Errorf("gemini %s failed: %w", op, err)
		g.opts.observe(op, start, 0, err)
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		err = fmt.Errorf("gemini %s returned no text", op)
		g.opts.observe(op, start, 0, err)
		return "", err
	}

	g.opts.observe(op, start, len(text), nil)
	return text, nil
}

// responseText returns the text of the first candidate that has any.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
