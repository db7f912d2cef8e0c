package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
)

// DefaultOpenAIModel is used for generation and OCR when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// OpenAI generates text and reads page images with an OpenAI chat model.
type OpenAI struct {
	client *openai.Client
	opts   callOptions
}

var _ Backend = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI backend. Empty model and non-positive timeout
// fall back to DefaultOpenAIModel and DefaultTimeout.
func NewOpenAI(client *openai.Client, model string, timeout time.Duration, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		client: client,
		opts:   callOptions{model: model, timeout: timeout, logger: logger},
	}
}

// Generate sends a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return o.complete(ctx, "generate", openai.UserMessage(prompt))
}

// ExtractText sends the instruction and the page as a PNG data URL.
func (o *OpenAI) ExtractText(ctx context.Context, image []byte, instruction string) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	return o.complete(ctx, "ocr", openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instruction),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}))
}

func (o *OpenAI) complete(ctx context.Context, op string, msg openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, cancel := o.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{msg},
		Model:    openai.ChatModel(o.opts.model),
	})
	if err != nil {
		err = fmt.Errorf("chat completion failed: %w", err)
		o.opts.observe(op, start, 0, err)
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		err = fmt.Errorf("chat completion returned no text")
		o.opts.observe(op, start, 0, err)
		return "", err
	}

	text := resp.Choices[0].Message.Content
	o.opts.observe(op, start, len(text), nil)
	return text, nil
}
