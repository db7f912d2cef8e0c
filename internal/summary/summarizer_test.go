package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bull/docqa/internal/errs"
)

type stubGenerator struct {
	prompt string
	reply  string
	err    error
	calls  int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.reply, g.err
}

// TestSummarize_SendsFullText verifies the whole text reaches the model untruncated.
func TestSummarize_SendsFullText(t *testing.T) {
	gen := &stubGenerator{reply: "A young couple sell their treasures to buy each other gifts."}
	s := NewSummarizer(gen, nil)

	text := strings.Repeat("One dollar and eighty-seven cents. ", 20000)
	got, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if got != gen.reply {
		t.Errorf("Expected model output verbatim, got '%s'", got)
	}
	if gen.calls != 1 {
		t.Errorf("Expected 1 model call, got %d", gen.calls)
	}
	if !strings.HasSuffix(gen.prompt, text) {
		t.Error("Prompt should end with the full input text")
	}
	if !strings.Contains(gen.prompt, "concise and informative") {
		t.Error("Prompt should ask for a concise and informative summary")
	}
}

// TestSummarize_BackendFailure verifies errors are reported as generation errors.
func TestSummarize_BackendFailure(t *testing.T) {
	s := NewSummarizer(&stubGenerator{err: errors.New("request too large")}, nil)

	_, err := s.Summarize(context.Background(), "Della and Jim.")
	if !errors.Is(err, errs.ErrGeneration) {
		t.Fatalf("Expected generation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "request too large") {
		t.Errorf("Expected backend message in error, got '%v'", err)
	}
}

// TestSummarize_EmptyText verifies blank input still goes to the model and its
// reply comes back verbatim.
func TestSummarize_EmptyText(t *testing.T) {
	gen := &stubGenerator{reply: "There is no text to summarize."}
	s := NewSummarizer(gen, nil)

	got, err := s.Summarize(context.Background(), "  \n")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != gen.reply {
		t.Errorf("Expected model output verbatim, got '%s'", got)
	}
	if gen.calls != 1 {
		t.Errorf("Expected 1 model call, got %d", gen.calls)
	}
	if gen.prompt != BuildPrompt("  \n") {
		t.Errorf("Expected the blank text in the prompt, got '%s'", gen.prompt)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(strings.Repeat("a", 4000)); got != 1000 {
		t.Errorf("Expected 1000 tokens, got %d", got)
	}
}
