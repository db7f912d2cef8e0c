package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the Gemini model used for generating embeddings.
	DefaultGeminiModel = "gemini-embedding-001"

	// geminiBatchSize is the maximum number of contents per EmbedContent call.
	geminiBatchSize = 100
)

// GeminiEmbedder generates embeddings with the Gemini EmbedContent API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

// NewGeminiEmbedder creates an embedder. A positive dimension asks the model
// for truncated output vectors; 0 keeps the model default.
func NewGeminiEmbedder(client *genai.Client, model string, dimension int) *GeminiEmbedder {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: int32(dimension),
	}
}

// Embed returns one vector per text, in input order.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var cfg *genai.EmbedContentConfig
	if e.dimension > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &e.dimension}
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += geminiBatchSize {
		end := min(i+geminiBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-i)
		for _, text := range texts[i:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		result, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: embedding generation failed: %w", i, end, err)
		}
		if result == nil || len(result.Embeddings) != len(contents) {
			return nil, fmt.Errorf("batch %d-%d: expected %d embeddings from API", i, end, len(contents))
		}

		for _, emb := range result.Embeddings {
			all = append(all, emb.Values)
		}
	}

	return all, nil
}
