// Package session runs ingestion for one document and serves questions and
// summaries about it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/document"
	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/summary"
)

// Extractor turns a document into text.
type Extractor interface {
	Extract(ctx context.Context, src document.Source) (*extract.Result, error)
}

// IngestResult contains statistics about an ingestion.
type IngestResult struct {
	Document   string
	Pages      int
	Characters int
	Chunks     int
	Reused     bool // The collection already held embeddings and was kept
	Duration   time.Duration
}

// Status describes the current state of the session.
type Status struct {
	Document      string `json:"document"`
	Collection    string `json:"collection"`
	Ingested      bool   `json:"ingested"`
	Pages         int    `json:"pages"`
	Characters    int    `json:"characters"`
	StoredChunks  int    `json:"stored_chunks"`
	SummaryCached bool   `json:"summary_cached"`
}

// Session owns the pipeline for a single document.
//
// Ingest must complete before Answer or Summary is called, and must not run
// concurrently with them. Once ingested, Answer, Summary and Status are safe
// for concurrent use.
type Session struct {
	extractor  Extractor
	chunker    *chunker.Chunker
	index      *index.EmbeddingIndex
	engine     *answer.Engine
	summarizer *summary.Summarizer
	logger     *slog.Logger

	mu       sync.RWMutex
	source   document.Source
	document string
	text     string
	pages    int
	loaded   bool // text holds the extracted document
	ingested bool
	summary  string

	summaryMu sync.Mutex // serialises summary generation and lazy extraction
}

// New creates a session from its components.
func New(
	extractor Extractor,
	chunker *chunker.Chunker,
	index *index.EmbeddingIndex,
	engine *answer.Engine,
	summarizer *summary.Summarizer,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		extractor:  extractor,
		chunker:    chunker,
		index:      index,
		engine:     engine,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Ingest extracts the document text, splits it into chunks and builds the
// embedding index. Any failure aborts the ingestion and leaves the session
// unusable for queries.
//
// When the collection already holds embeddings nothing is extracted: the
// stored chunks answer questions as they are, and the text is extracted
// later only if a summary is requested.
func (s *Session) Ingest(ctx context.Context, src document.Source) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{Document: src.Name()}
	s.logger.Info("Starting ingestion", "document", src.Name())

	stored, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if stored > 0 {
		result.Chunks = stored
		result.Reused = true
		s.commit(src, nil)

		result.Duration = time.Since(start)
		s.logger.Info("Reusing existing collection, skipping extraction",
			"document", result.Document,
			"collection", s.index.CollectionName(),
			"chunks", result.Chunks,
		)
		return result, nil
	}

	// 1. Extract text from every page
	extracted, err := s.extractor.Extract(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Pages = extracted.Pages
	result.Characters = utf8.RuneCountInString(extracted.Text)

	// 2. Split into overlapping windows
	chunks := s.chunker.Chunk(extracted.Text)
	s.logger.Debug("Chunked document", "document", src.Name(), "chunks", len(chunks))

	// 3. Embed and store, unless the collection was filled in the meantime
	built, err := s.index.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	result.Chunks = built.Chunks
	result.Reused = built.Reused

	s.commit(src, extracted)

	result.Duration = time.Since(start)
	s.logger.Info("Ingestion complete",
		"document", result.Document,
		"pages", result.Pages,
		"characters", result.Characters,
		"chunks", result.Chunks,
		"reused", result.Reused,
		"duration", result.Duration,
	)
	return result, nil
}

// commit marks src as ingested. extracted is nil when extraction was skipped.
func (s *Session) commit(src document.Source, extracted *extract.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
	s.document = src.Name()
	s.text, s.pages, s.loaded = "", 0, false
	if extracted != nil {
		s.text, s.pages, s.loaded = extracted.Text, extracted.Pages, true
	}
	s.ingested = true
	s.summary = ""
}

// Text returns the extracted document text. It is empty when Ingest reused a
// populated collection and no summary has been generated since.
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// Answer answers a question about the document. It never fails; errors are
// returned as an apology message.
func (s *Session) Answer(ctx context.Context, question string) string {
	return s.engine.Answer(ctx, question)
}

// AnswerWithError answers a question and reports failures as errors.
func (s *Session) AnswerWithError(ctx context.Context, question string) (string, error) {
	return s.engine.AnswerWithError(ctx, question)
}

// Summary returns the document summary, generating it on first use.
// Failed attempts are not cached.
func (s *Session) Summary(ctx context.Context) (string, error) {
	s.mu.RLock()
	ingested := s.ingested
	s.mu.RUnlock()
	if !ingested {
		return "", fmt.Errorf("%w: no document has been ingested", errs.ErrGeneration)
	}

	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	if cached := s.cachedSummary(); cached != "" {
		return cached, nil
	}

	text, err := s.loadText(ctx)
	if err != nil {
		return "", err
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return summary, nil
}

// loadText returns the document text, extracting it if ingestion skipped that
// step. The caller holds summaryMu.
func (s *Session) loadText(ctx context.Context) (string, error) {
	s.mu.RLock()
	src, text, loaded := s.source, s.text, s.loaded
	s.mu.RUnlock()
	if loaded {
		return text, nil
	}

	s.logger.Info("Extracting text for summary", "document", src.Name())
	extracted, err := s.extractor.Extract(ctx, src)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	s.mu.Lock()
	s.text, s.pages, s.loaded = extracted.Text, extracted.Pages, true
	s.mu.Unlock()
	return extracted.Text, nil
}

func (s *Session) cachedSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Status reports what the session holds.
func (s *Session) Status(ctx context.Context) (*Status, error) {
	stored, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	status := &Status{
		Document:      s.document,
		Collection:    s.index.CollectionName(),
		Ingested:      s.ingested,
		Pages:         s.pages,
		Characters:    utf8.RuneCountInString(s.text),
		StoredChunks:  stored,
		SummaryCached: s.summary != "",
	}
	s.mu.RUnlock()

	return status, nil
}
