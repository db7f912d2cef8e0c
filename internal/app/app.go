// Package app assembles a session and its backends from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/document"
	"github.com/bull/docqa/internal/embedding"
	"github.com/bull/docqa/internal/errs"
	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/github"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/llm"
	"github.com/bull/docqa/internal/session"
	"github.com/bull/docqa/internal/storage"
	"github.com/bull/docqa/internal/summary"
)

// App holds a session and the resources it owns.
type App struct {
	Config  *config.Config
	Session *session.Session
	Store   storage.Store
	logger  *slog.Logger
}

// clients caches one SDK client per provider.
type clients struct {
	cfg    *config.Config
	gemini *genai.Client
	openai *embedding.Client
}

func (c *clients) geminiClient(ctx context.Context) (*genai.Client, error) {
	if c.gemini == nil {
		client, err := llm.NewGeminiClient(ctx, c.cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		c.gemini = client
	}
	return c.gemini, nil
}

func (c *clients) openaiClient() (*embedding.Client, error) {
	if c.openai == nil {
		client, err := embedding.NewClient(c.cfg.OpenAIAPIKey, option.WithRequestTimeout(c.cfg.BackendTimeout))
		if err != nil {
			return nil, err
		}
		c.openai = client
	}
	return c.openai, nil
}

// New builds the store, the model backends and the session described by cfg.
// Nothing is ingested yet.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &clients{cfg: cfg}

	backend, err := newBackend(ctx, c, cfg, logger)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(ctx, c, cfg)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		store.Close()
		return nil, err
	}

	idx, err := index.New(ctx, timedEmbedder{embedder: embedder, timeout: cfg.BackendTimeout}, store, cfg.CollectionName, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	extractor := extract.NewExtractor(
		extract.NewPDFRenderer(),
		backend,
		extract.WithPlainText(cfg.OCRPlainText),
		extract.WithLogger(logger),
	)

	sess := session.New(
		extractor,
		chunks,
		idx,
		answer.NewEngine(idx, backend, cfg.TopK, logger),
		summary.NewSummarizer(backend, logger),
		logger,
	)

	return &App{Config: cfg, Session: sess, Store: store, logger: logger}, nil
}

// Ingest resolves the configured document and ingests it.
func (a *App) Ingest(ctx context.Context) (*session.IngestResult, error) {
	src, err := ResolveDocument(ctx, a.Config, a.logger)
	if err != nil {
		return nil, err
	}
	return a.Session.Ingest(ctx, src)
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewStore opens the vector store selected by cfg.VectorStore.
func NewStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.VectorStore {
	case config.StoreMemory:
		return storage.NewMemoryStore(), nil
	case config.StoreBadger:
		store, err := storage.NewBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreQdrant:
		store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q: %w", errs.ErrConfiguration, cfg.VectorStore, storage.ErrUnknownStore)
	}
}

// ResolveDocument turns cfg.DocumentPath into a document source, downloading
// github:// locations into memory.
func ResolveDocument(ctx context.Context, cfg *config.Config, logger *slog.Logger) (document.Source, error) {
	if !github.IsLocation(cfg.DocumentPath) {
		return document.FromPath(cfg.DocumentPath), nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	loc, err := github.ParseLocation(cfg.DocumentPath)
	if err != nil {
		return document.Source{}, fmt.Errorf("%w: DOCUMENT_PATH: %w", errs.ErrConfiguration, err)
	}

	client, err := github.NewClient(cfg.GitHubToken)
	if err != nil {
		return document.Source{}, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := github.NewFetcher(client)

	doc, err := fetcher.Fetch(ctx, loc)
	if err != nil {
		return document.Source{}, &extract.ExtractionError{Err: err}
	}

	if sha, err := fetcher.GetLatestCommitSHA(ctx, loc); err == nil {
		logger.Info("Fetched document from GitHub", "location", loc.String(), "bytes", len(doc.Content), "commit", sha)
	} else {
		logger.Info("Fetched document from GitHub", "location", loc.String(), "bytes", len(doc.Content))
	}
	return doc.Source(), nil
}

func newBackend(ctx context.Context, c *clients, cfg *config.Config, logger *slog.Logger) (llm.Backend, error) {
	switch cfg.GenerationProvider {
	case llm.ProviderGemini:
		client, err := c.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return llm.NewGemini(client, cfg.GeminiModel, cfg.BackendTimeout, logger), nil
	case llm.ProviderOpenAI:
		client, err := c.openaiClient()
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAI(client.Client(), cfg.OpenAIModel, cfg.BackendTimeout, logger), nil
	default:
		_, err := llm.ParseProvider(cfg.GenerationProvider)
		return nil, err
	}
}

func newEmbedder(ctx context.Context, c *clients, cfg *config.Config) (index.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case llm.ProviderGemini:
		client, err := c.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return embedding.NewGeminiEmbedder(client, cfg.GeminiEmbedModel, 0), nil
	case llm.ProviderOpenAI:
		client, err := c.openaiClient()
		if err != nil {
			return nil, err
		}
		return embedding.NewOpenAIEmbedder(client, cfg.OpenAIEmbedModel, 0), nil
	default:
		_, err := llm.ParseProvider(cfg.EmbeddingProvider)
		return nil, err
	}
}

// timedEmbedder bounds each Embed call.
type timedEmbedder struct {
	embedder index.Embedder
	timeout  time.Duration
}

func (e timedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	vectors, err := e.embedder.Embed(ctx, texts)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("embedding timed out after %s: %w", e.timeout, err)
	}
	return vectors, err
}
