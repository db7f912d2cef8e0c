package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/document"
	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/storage"
	"github.com/bull/docqa/internal/summary"
)

const story = "One dollar and eighty-seven cents. That was all. " +
	"Della let her beautiful hair fall about her, rippling and shining like a cascade of brown waters. " +
	"She sold her hair to Madame Sofronie for twenty dollars. " +
	"Jim sold his gold watch to buy her a set of combs."

type stubExtractor struct {
	text  string
	pages int
	err   error
	calls int
}

func (e *stubExtractor) Extract(context.Context, document.Source) (*extract.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &extract.Result{Text: e.text, Pages: e.pages}, nil
}

// bagOfWords embeds texts as counts of a small vocabulary.
type bagOfWords struct {
	calls int
}

var vocabulary = []string{"hair", "watch", "comb", "dollar", "france"}

func (b *bagOfWords) Embed(_ context.Context, texts []string) ([][]float32, error) {
	b.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(vocabulary))
		for j, w := range vocabulary {
			v[j] = float32(strings.Count(strings.ToLower(text), w))
		}
		out[i] = v
	}
	return out, nil
}

// groundedModel answers with a context sentence sharing a keyword with the
// question, or the fallback sentence when there is none.
type groundedModel struct {
	calls int
}

func (m *groundedModel) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	if strings.HasPrefix(prompt, "Summarize") {
		return "Della and Jim each give up their greatest treasure.", nil
	}

	head, rest, _ := strings.Cut(prompt, "Context:\n")
	ctxText, _, _ := strings.Cut(rest, "\n\nIf the answer")
	question := strings.ToLower(head[strings.Index(head, "Question:"):])
	for _, w := range vocabulary {
		if !strings.Contains(question, w) {
			continue
		}
		for _, sentence := range strings.Split(ctxText, ". ") {
			if strings.Contains(strings.ToLower(sentence), w) {
				return strings.TrimSpace(sentence) + ".", nil
			}
		}
	}
	return answer.Fallback, nil
}

type fixture struct {
	session   *Session
	extractor *stubExtractor
	embedder  *bagOfWords
	model     *groundedModel
	store     storage.Store
}

func newFixture(t *testing.T, store storage.Store, size, overlap int) *fixture {
	t.Helper()
	ctx := context.Background()

	c, err := chunker.New(size, overlap)
	require.NoError(t, err)

	embedder := &bagOfWords{}
	idx, err := index.New(ctx, embedder, store, storage.DefaultCollectionName, nil)
	require.NoError(t, err)

	model := &groundedModel{}
	extractor := &stubExtractor{text: story, pages: 1}

	return &fixture{
		session:   New(extractor, c, idx, answer.NewEngine(idx, model, 3, nil), summary.NewSummarizer(model, nil), nil),
		extractor: extractor,
		embedder:  embedder,
		model:     model,
		store:     store,
	}
}

func TestIngest_BuildsIndex(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 100, 10)

	result, err := f.session.Ingest(context.Background(), document.FromBytes("magi.pdf", []byte("pdf")))
	require.NoError(t, err)

	assert.Equal(t, "magi.pdf", result.Document)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, len(story), result.Characters)
	c, err := chunker.New(100, 10)
	require.NoError(t, err)
	assert.Equal(t, len(c.Chunk(story)), result.Chunks)
	assert.False(t, result.Reused)
	assert.Equal(t, story, f.session.Text())
}

func TestAnswer_MentionsHair(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 500, 50)
	ctx := context.Background()

	result, err := f.session.Ingest(ctx, document.FromBytes("magi.pdf", []byte("pdf")))
	require.NoError(t, err)
	require.Equal(t, 1, result.Chunks)

	got := f.session.Answer(ctx, "What did Della sell? Was it her hair?")
	assert.Contains(t, strings.ToLower(got), "hair")
}

func TestAnswer_FallbackForUnrelatedQuestion(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 500, 50)
	ctx := context.Background()

	_, err := f.session.Ingest(ctx, document.FromBytes("magi.pdf", []byte("pdf")))
	require.NoError(t, err)

	got := f.session.Answer(ctx, "What is the capital of France?")
	assert.Equal(t, answer.Fallback, got)
}

func TestIngest_ExtractionFailureIsFatal(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 500, 50)
	f.extractor.err = &extract.ExtractionError{Page: 2, Err: errors.New("ocr failed")}

	_, err := f.session.Ingest(context.Background(), document.FromPath("magi.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExtraction)
	assert.Zero(t, f.embedder.calls)

	status, err := f.session.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Ingested)
	assert.Zero(t, status.StoredChunks)
}

func TestIngest_ReusesPopulatedCollection(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := newFixture(t, store, 100, 10)
	built, err := first.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	second := newFixture(t, store, 100, 10)
	result, err := second.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	assert.True(t, result.Reused)
	assert.Equal(t, built.Chunks, result.Chunks)
	assert.Zero(t, second.embedder.calls, "a populated collection must not be re-embedded")
	assert.Zero(t, second.extractor.calls, "a populated collection must not be re-extracted")
	assert.Empty(t, second.session.Text())

	got := second.session.Answer(ctx, "What did Della sell? Was it her hair?")
	assert.Contains(t, strings.ToLower(got), "hair")
	assert.Zero(t, second.extractor.calls)
}

func TestSummary_ExtractsAfterReuse(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := newFixture(t, store, 100, 10)
	_, err := first.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	second := newFixture(t, store, 100, 10)
	_, err = second.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)
	require.Zero(t, second.extractor.calls)

	summary, err := second.session.Summary(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	assert.Equal(t, 1, second.extractor.calls)
	assert.Equal(t, story, second.session.Text())

	_, err = second.session.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.extractor.calls, "text is extracted once")

	status, err := second.session.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Pages)
	assert.Equal(t, len(story), status.Characters)
}

func TestSummary_ExtractionFailureAfterReuse(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := newFixture(t, store, 100, 10)
	_, err := first.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	second := newFixture(t, store, 100, 10)
	_, err = second.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	second.extractor.err = &extract.ExtractionError{Page: 1, Err: errors.New("ocr failed")}
	_, err = second.session.Summary(ctx)
	assert.ErrorIs(t, err, errs.ErrExtraction)
	assert.Zero(t, second.model.calls)

	second.extractor.err = nil
	_, err = second.session.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.extractor.calls)
}

func TestSummary_EmptyDocument(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 100, 10)
	f.extractor.text = ""
	ctx := context.Background()

	result, err := f.session.Ingest(ctx, document.FromPath("blank.pdf"))
	require.NoError(t, err)
	assert.Zero(t, result.Chunks)

	summary, err := f.session.Summary(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	assert.Equal(t, 1, f.model.calls)
}

func TestSummary_Cached(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore(), 500, 50)
	ctx := context.Background()

	_, err := f.session.Summary(ctx)
	assert.ErrorIs(t, err, errs.ErrGeneration)

	_, err = f.session.Ingest(ctx, document.FromPath("magi.pdf"))
	require.NoError(t, err)

	first, err := f.session.Summary(ctx)
	require.NoError(t, err)
	second, err := f.session.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.model.calls)

	status, err := f.session.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.SummaryCached)
	assert.Equal(t, "magi.pdf", status.Document)
	assert.Equal(t, storage.DefaultCollectionName, status.Collection)
	assert.Equal(t, 1, status.StoredChunks)
}
