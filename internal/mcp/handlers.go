package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/session"
)

// Assistant answers questions about one ingested document.
// *session.Session implements it.
type Assistant interface {
	Answer(ctx context.Context, question string) string
	Summary(ctx context.Context) (string, error)
	Status(ctx context.Context) (*session.Status, error)
}

// makeAskHandler creates the ask_question tool handler.
// Retrieval and generation failures are part of the answer text, not tool errors.
func makeAskHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, AskQuestionInput,
) (*mcp.CallToolResult, AskQuestionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskQuestionInput) (
		*mcp.CallToolResult, AskQuestionOutput, error,
	) {
		if strings.TrimSpace(input.Question) == "" {
			return nil, AskQuestionOutput{}, fmt.Errorf("question must not be empty")
		}
		return nil, AskQuestionOutput{Answer: assistant.Answer(ctx, input.Question)}, nil
	}
}

// makeSummarizeHandler creates the summarize_document tool handler.
func makeSummarizeHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeInput) (
		*mcp.CallToolResult, SummarizeOutput, error,
	) {
		summary, err := assistant.Summary(ctx)
		if err != nil {
			return nil, SummarizeOutput{}, fmt.Errorf("failed to summarize document: %w", err)
		}
		return nil, SummarizeOutput{Summary: summary}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		status, err := assistant.Status(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("store_error: failed to read index status: %w", err)
		}

		return nil, StatusOutput{
			Document:      status.Document,
			Collection:    status.Collection,
			Ingested:      status.Ingested,
			Pages:         status.Pages,
			Characters:    status.Characters,
			StoredChunks:  status.StoredChunks,
			SummaryCached: status.SummaryCached,
		}, nil
	}
}
