// Package answer composes grounded answers from retrieved chunks.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/index"
)

// Fallback is the reply the model is told to give when the context does not
// contain the answer.
const Fallback = "I am sorry, but I don't have enough information to answer that question from the context I was given."

// Retriever returns the texts of the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine retrieves context for a question and asks the model to answer from it.
type Engine struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    *slog.Logger
}

// NewEngine creates an answer engine. topK <= 0 uses index.DefaultTopK.
func NewEngine(retriever Retriever, generator Generator, topK int, logger *slog.Logger) *Engine {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// BuildPrompt assembles the grounded prompt for query from the retrieved chunk texts.
func BuildPrompt(query string, chunks []string) string {
	joined := strings.Join(chunks, "\n")
	return fmt.Sprintf(`Answer the following question based on the context provided but don't mention it, keep the tone friendly and warm and answer with confidence:
Question: %s
Context:
%s

If the answer cannot be found in the context, respond with '%s'
`, query, joined, Fallback)
}

// AnswerWithError answers query, returning retrieval and generation failures
// as errors matching errs.ErrRetrieval and errs.ErrGeneration.
func (e *Engine) AnswerWithError(ctx context.Context, query string) (string, error) {
	chunks, err := e.retriever.Retrieve(ctx, query, e.topK)
	if err != nil {
		return "", wrap(errs.ErrRetrieval, err)
	}
	e.logger.Debug("Answering question", "chunks", len(chunks))

	answer, err := e.generator.Generate(ctx, BuildPrompt(query, chunks))
	if err != nil {
		return "", wrap(errs.ErrGeneration, err)
	}
	return answer, nil
}

// Answer answers query. It never fails: errors are reported to the user as an
// apology that includes the error text.
func (e *Engine) Answer(ctx context.Context, query string) string {
	answer, err := e.AnswerWithError(ctx, query)
	if err != nil {
		e.logger.Warn("Answer failed", "error", err)
		return fmt.Sprintf("Sorry, I couldn't answer that question: %v", err)
	}
	return answer
}

// wrap tags err with kind unless it already carries it.
func wrap(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
